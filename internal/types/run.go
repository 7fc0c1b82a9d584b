// Package types holds records shared by storage, batch processing and the
// REST API.
package types

import (
	"time"

	"github.com/google/uuid"

	"github.com/chrissnell/notealign/internal/align"
	"github.com/chrissnell/notealign/internal/overlap"
)

// RunStatus is the outcome of an alignment run.
type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Run is the persisted record of one alignment.
type Run struct {
	ID            string             `json:"id"`
	CreatedAt     time.Time          `json:"created_at"`
	Name          string             `json:"name"`
	ReferencePath string             `json:"reference_path,omitempty"`
	DerivedPath   string             `json:"derived_path,omitempty"`
	Status        RunStatus          `json:"status"`
	Error         string             `json:"error,omitempty"`
	Params        align.Params       `json:"params"`
	Anchors       []align.Anchor     `json:"anchors"`
	Segments      []align.Segment    `json:"segments"`
	Drift         align.DriftSummary `json:"drift"`
	Overlap       *overlap.Summary   `json:"overlap,omitempty"`
	EventCount    int                `json:"event_count"`
}

// NewRun starts a run record with a fresh ID.
func NewRun(name string, params align.Params) *Run {
	return &Run{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Name:      name,
		Params:    params,
	}
}

// Succeed fills the run from an alignment result.
func (r *Run) Succeed(res *align.Result) {
	r.Status = RunSucceeded
	r.Error = ""
	r.Anchors = res.Anchors
	r.Segments = res.Segments
	r.Drift = res.Drift
	r.EventCount = len(res.Aligned)
}

// Fail marks the run failed with err's text.
func (r *Run) Fail(err error) {
	r.Status = RunFailed
	r.Error = err.Error()
}
