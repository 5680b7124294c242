package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/boardicon/boardicon-server/internal/config"
	"github.com/boardicon/boardicon-server/internal/service"
)

var olderThan time.Duration

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove uploads whose form was never submitted",
	Long: `Remove staged icon uploads older than --older-than together with their
files. Defaults to the configured staging abandon-after age.`,
	Args: cobra.NoArgs,
	RunE: runSweep,
}

var iconsCmd = &cobra.Command{
	Use:   "icons",
	Short: "Inspect uploaded icons",
}

var iconsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List uploaded icons by title",
	Args:  cobra.NoArgs,
	RunE:  runIconsList,
}

func init() {
	sweepCmd.Flags().DurationVar(&olderThan, "older-than", 0, "Minimum age of swept uploads (default: configured abandon-after)")
	iconsCmd.AddCommand(iconsListCmd)
}

func runSweep(cmd *cobra.Command, _ []string) error {
	cfg, err := invoke[*config.Config]()
	if err != nil {
		return err
	}
	icons, err := invoke[*service.IconService]()
	if err != nil {
		return err
	}

	age := olderThan
	if age <= 0 {
		age = cfg.Staging.AbandonAfter
	}

	n, err := icons.SweepStaged(getContext(), age)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %d abandoned upload(s) older than %s\n", n, age)
	return nil
}

func runIconsList(cmd *cobra.Command, _ []string) error {
	icons, err := invoke[*service.IconService]()
	if err != nil {
		return err
	}

	list, err := icons.ListIcons(getContext())
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no uploaded icons")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tREFERENCE\tTITLE\tSIZE\tURL")
	for _, icon := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", icon.ID, icon.Reference(), icon.Title, icon.FileSize, icons.URL(icon))
	}
	return w.Flush()
}
