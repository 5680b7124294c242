package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/boardicon/boardicon-server/internal/service"
)

var checkOnly bool

// errStale makes `regenerate --check` exit non-zero.
var errStale = errors.New("stylesheet is out of date")

var regenerateCmd = &cobra.Command{
	Use:   "regenerate",
	Short: "Rewrite boardIcon.less from the database",
	Long: `Rewrite the generated stylesheet from the current boards, defaults
and uploaded icons.

With --check nothing is written; the command fails when the file on disk
differs from what regeneration would produce.`,
	Args: cobra.NoArgs,
	RunE: runRegenerate,
}

func init() {
	regenerateCmd.Flags().BoolVar(&checkOnly, "check", false, "Only report whether the file is up to date")
}

func runRegenerate(cmd *cobra.Command, _ []string) error {
	styles, err := invoke[*service.StylesheetService]()
	if err != nil {
		return err
	}
	ctx := getContext()
	out := cmd.OutOrStdout()

	if checkOnly {
		upToDate, err := styles.UpToDate(ctx)
		if err != nil {
			return err
		}
		if !upToDate {
			return fmt.Errorf("%s: %w", styles.Path(), errStale)
		}
		fmt.Fprintf(out, "%s is up to date\n", styles.Path())
		return nil
	}

	result, err := styles.Regenerate(ctx)
	if err != nil {
		return err
	}

	state := "unchanged"
	if result.Changed {
		state = "updated"
	}
	fmt.Fprintf(out, "%s %s (%d bytes, sha256 %s)\n", result.Path, state, result.Size, result.Hash)
	return nil
}
