// Package batch aligns every case directory under a root directory.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/chrissnell/notealign/internal/align"
	"github.com/chrissnell/notealign/internal/notes"
	"github.com/chrissnell/notealign/internal/overlap"
	"github.com/chrissnell/notealign/internal/storage"
)

// Options names the files of each case and the optional outputs.
type Options struct {
	Root          string
	ReferenceName string
	DerivedName   string
	OutputName    string

	// MergedName, when set, also writes the aligned and derived notes as one
	// two-track file.
	MergedName string

	// Overlap, when set, adds an overlap summary to each run.
	Overlap *overlap.Options
}

// CaseFailure records why one case could not be aligned.
type CaseFailure struct {
	Case  string `json:"case"`
	RunID string `json:"run_id,omitempty"`
	Error string `json:"error"`
}

// Summary is the outcome of a batch run.
type Summary struct {
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    []CaseFailure `json:"failed"`
}

// Runner aligns case directories one at a time.
type Runner struct {
	aligner *align.Aligner
	store   storage.RunStore
	opts    Options
	logger  *zap.SugaredLogger
}

// NewRunner returns a runner. store may be nil, in which case runs are not
// persisted.
func NewRunner(aligner *align.Aligner, store storage.RunStore, opts Options, logger *zap.SugaredLogger) *Runner {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Runner{aligner: aligner, store: store, opts: opts, logger: logger}
}

// Cases lists the immediate subdirectories of root in lexical order.
func Cases(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

// Run processes every case. A failing case is recorded and the next one
// proceeds. Cancelling ctx stops between cases and returns the partial summary
// with ctx's error.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	cases, err := Cases(r.opts.Root)
	if err != nil {
		return nil, fmt.Errorf("listing cases in %s: %w", r.opts.Root, err)
	}

	sum := &Summary{Failed: []CaseFailure{}}
	for _, name := range cases {
		if err := ctx.Err(); err != nil {
			r.logger.Warnw("batch cancelled", "remaining", len(cases)-sum.Total)
			return sum, err
		}

		sum.Total++
		runID, err := r.runCase(ctx, name)
		if err != nil {
			r.logger.Warnw("case failed", "case", name, "error", err)
			sum.Failed = append(sum.Failed, CaseFailure{Case: name, RunID: runID, Error: err.Error()})
			continue
		}
		sum.Succeeded++
	}

	r.logger.Infow("batch complete", "total", sum.Total, "succeeded", sum.Succeeded, "failed", len(sum.Failed))
	return sum, nil
}

func (r *Runner) runCase(ctx context.Context, name string) (string, error) {
	dir := filepath.Join(r.opts.Root, name)
	refPath := filepath.Join(dir, r.opts.ReferenceName)
	derPath := filepath.Join(dir, r.opts.DerivedName)

	reference, err := notes.ReadFile(refPath)
	if err != nil {
		return "", fmt.Errorf("reading reference: %w", err)
	}
	derived, err := notes.ReadFile(derPath)
	if err != nil {
		return "", fmt.Errorf("reading derived: %w", err)
	}

	run, aligned, alignErr := AlignNotes(r.aligner, name, reference, derived, r.opts.Overlap)
	run.ReferencePath = refPath
	run.DerivedPath = derPath

	if alignErr == nil {
		if err := notes.WriteFile(filepath.Join(dir, r.opts.OutputName), aligned); err != nil {
			return run.ID, fmt.Errorf("writing aligned notes: %w", err)
		}
		if r.opts.MergedName != "" {
			if err := notes.WriteFile(filepath.Join(dir, r.opts.MergedName), notes.Merge(aligned, derived)); err != nil {
				return run.ID, fmt.Errorf("writing merged notes: %w", err)
			}
		}
	}

	if r.store != nil {
		if err := r.store.SaveRun(ctx, run); err != nil {
			return run.ID, fmt.Errorf("saving run: %w", err)
		}
	}

	if alignErr != nil {
		return run.ID, alignErr
	}

	r.logger.Infow("case aligned", "case", name, "run_id", run.ID,
		"anchors", len(run.Anchors), "total_drift", run.Drift.Total)
	return run.ID, nil
}
