package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/chrissnell/notealign/internal/notes"
	"github.com/chrissnell/notealign/internal/overlap"
)

func newCompareCmd(c *cli) *cobra.Command {
	var (
		tolerance  float64
		start, end float64
		spans      string
		fps        float64
	)

	cmd := &cobra.Command{
		Use:   "compare REFERENCE DERIVED",
		Short: "Score how well two note lists overlap",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reference, err := notes.ReadFile(args[0])
			if err != nil {
				return err
			}
			derived, err := notes.ReadFile(args[1])
			if err != nil {
				return err
			}

			opts := overlap.Options{Tolerance: tolerance}
			if o := c.overlapOptions(); o != nil {
				opts = *o
			}
			if cmd.Flags().Changed("tolerance") {
				opts.Tolerance = tolerance
			}
			if cmd.Flags().Changed("start") {
				opts.Start = &start
			}
			if cmd.Flags().Changed("end") {
				opts.End = &end
			}

			rep := overlap.Compare(notes.FilterPitched(reference), notes.FilterPitched(derived), opts)

			if spans != "" {
				f, err := os.Create(spans)
				if err != nil {
					return err
				}
				if err := overlap.WriteCSV(f, rep.Spans, fps); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
			}

			return printJSON(cmd.OutOrStdout(), rep.Summary)
		},
	}

	f := cmd.Flags()
	f.Float64Var(&tolerance, "tolerance", 0, "minimum overlap in seconds for a note to count in a span")
	f.Float64Var(&start, "start", 0, "ignore notes ending before this time")
	f.Float64Var(&end, "end", 0, "ignore notes starting after this time")
	f.StringVar(&spans, "spans", "", "write labelled spans as CSV to this path")
	f.Float64Var(&fps, "fps", 0, "express span CSV times as frame indices at this rate")
	return cmd
}
