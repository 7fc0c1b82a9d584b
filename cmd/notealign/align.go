package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/chrissnell/notealign/internal/align"
	"github.com/chrissnell/notealign/internal/app"
	"github.com/chrissnell/notealign/internal/batch"
	"github.com/chrissnell/notealign/internal/notes"
	"github.com/chrissnell/notealign/internal/overlap"
)

func newAlignCmd(c *cli) *cobra.Command {
	var (
		output        string
		merged        string
		excerpts      string
		excerptWindow float64
		name          string
		save          bool
	)

	cmd := &cobra.Command{
		Use:   "align REFERENCE DERIVED",
		Short: "Align a reference note list onto a derived one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			refPath, derPath := args[0], args[1]

			reference, err := notes.ReadFile(refPath)
			if err != nil {
				return err
			}
			derived, err := notes.ReadFile(derPath)
			if err != nil {
				return err
			}

			aligner, err := align.NewAligner(c.params, c.logger)
			if err != nil {
				return err
			}

			if name == "" {
				name = refPath
			}
			run, aligned, alignErr := batch.AlignNotes(aligner, name, reference, derived, c.overlapOptions())
			run.ReferencePath, run.DerivedPath = refPath, derPath

			if save {
				store, _, err := app.OpenStore(cmd.Context(), c.cfg.Storage, c.logger)
				if err != nil {
					return err
				}
				defer store.Close()
				if err := store.SaveRun(cmd.Context(), run); err != nil {
					return fmt.Errorf("saving run: %w", err)
				}
			}
			if alignErr != nil {
				return alignErr
			}

			if err := notes.WriteFile(output, aligned); err != nil {
				return err
			}
			if merged != "" {
				if err := notes.WriteFile(merged, notes.Merge(aligned, derived)); err != nil {
					return err
				}
			}
			if excerpts != "" {
				ex := align.Excerpts(run.Anchors, notes.Events(aligned), notes.Events(derived), excerptWindow)
				if err := writeJSONFile(excerpts, ex); err != nil {
					return err
				}
			}

			return printJSON(cmd.OutOrStdout(), run)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&output, "output", "o", "aligned.csv", "aligned note list to write (.csv or .json)")
	f.StringVar(&merged, "merged", "", "also write aligned and derived notes as one two-track file")
	f.StringVar(&excerpts, "excerpts", "", "write per-anchor excerpts as JSON to this path")
	f.Float64Var(&excerptWindow, "excerpt-window", 5, "half-width of each anchor excerpt in seconds")
	f.StringVar(&name, "name", "", "run name (defaults to the reference path)")
	f.BoolVar(&save, "save", false, "persist the run to the configured run store")
	return cmd
}

// overlapOptions converts the batch overlap section, if any.
func (c *cli) overlapOptions() *overlap.Options {
	o := c.cfg.Batch.Overlap
	if o == nil {
		return nil
	}
	return &overlap.Options{Tolerance: o.Tolerance, Start: o.Start, End: o.End}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeJSONFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := printJSON(f, v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
