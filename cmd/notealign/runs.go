package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chrissnell/notealign/internal/app"
	"github.com/chrissnell/notealign/internal/storage"
)

func newRunsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect stored alignment runs",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List the most recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := app.OpenStore(cmd.Context(), c.cfg.Storage, c.logger)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tNAME\tSTATUS\tDRIFT")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.3f\n",
					r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Name, r.Status, r.Drift.Total)
			}
			return tw.Flush()
		},
	}
	list.Flags().IntVar(&limit, "limit", storage.DefaultListLimit, "maximum number of runs to list")

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Print one run with its anchors and segments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := app.OpenStore(cmd.Context(), c.cfg.Storage, c.logger)
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), run)
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}
