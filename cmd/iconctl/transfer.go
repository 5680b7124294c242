package main

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/boardicon/boardicon-server/internal/service"
	"github.com/boardicon/boardicon-server/internal/transfer"
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write icon assignments and defaults as YAML",
	Long: `Write the default icons and the icons of every board as YAML.

Without a file the document goes to stdout.

Examples:
  iconctl export                  # print to stdout
  iconctl export icons.yaml       # write to a file`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Apply icon assignments and defaults from YAML",
	Long: `Apply a document written by export. Boards are matched by ID; boards
that do not exist are skipped and boards with invalid icons are reported.
The stylesheet is regenerated after each change.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runExport(cmd *cobra.Command, args []string) error {
	boards, err := invoke[*service.BoardService]()
	if err != nil {
		return err
	}

	doc, err := transfer.Export(getContext(), boards)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if len(args) == 1 {
		f, err := os.Create(args[0])
		if err != nil {
			return fmt.Errorf("create %s: %w", args[0], err)
		}
		defer f.Close()
		w = f
	}

	if err := transfer.Encode(w, doc); err != nil {
		return err
	}
	if len(args) == 1 {
		fmt.Fprintf(cmd.ErrOrStderr(), "exported %d default(s) and %d board(s) to %s\n", len(doc.Defaults), len(doc.Boards), args[0])
	}
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	boards, err := invoke[*service.BoardService]()
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open %s: %w", args[0], err)
	}
	defer f.Close()

	doc, err := transfer.Decode(f)
	if err != nil {
		return err
	}

	report, err := transfer.Import(getContext(), boards, doc)
	if report != nil {
		printReport(cmd.OutOrStdout(), report)
	}
	if err != nil {
		return err
	}
	if len(report.Failed) > 0 {
		return fmt.Errorf("%d board(s) could not be imported", len(report.Failed))
	}
	return nil
}

func printReport(w io.Writer, r *transfer.Report) {
	fmt.Fprintf(w, "applied %d default(s) and %d board(s)\n", r.Defaults, r.Boards)
	for _, id := range r.Skipped {
		fmt.Fprintf(w, "skipped board %d: not found\n", id)
	}
	for _, id := range slices.Sorted(maps.Keys(r.Failed)) {
		fmt.Fprintf(w, "failed board %d: %s\n", id, r.Failed[id])
	}
}
