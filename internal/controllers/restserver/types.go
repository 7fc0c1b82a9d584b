package restserver

import (
	"github.com/chrissnell/notealign/internal/align"
	"github.com/chrissnell/notealign/internal/notes"
	"github.com/chrissnell/notealign/internal/overlap"
	"github.com/chrissnell/notealign/internal/storage"
	"github.com/chrissnell/notealign/internal/types"
	"github.com/chrissnell/notealign/pkg/config"
)

// AlignRequest is the body of POST /api/align.
type AlignRequest struct {
	Name      string                `json:"name"`
	Reference []notes.Note          `json:"reference"`
	Derived   []notes.Note          `json:"derived"`
	Params    *config.AlignmentData `json:"params,omitempty"`

	// Overlap, when set, adds an overlap summary to the run.
	Overlap *overlap.Options `json:"overlap,omitempty"`

	// Persist defaults to true.
	Persist *bool `json:"persist,omitempty"`
}

// AlignResponse is the body of a successful POST /api/align.
type AlignResponse struct {
	Run     *types.Run   `json:"run"`
	Aligned []notes.Note `json:"aligned"`
}

// RunList is the body of GET /api/runs.
type RunList struct {
	Runs  []types.Run `json:"runs"`
	Count int         `json:"count"`
}

// AnchorList is the body of GET /api/runs/{id}/anchors.
type AnchorList struct {
	RunID   string         `json:"run_id"`
	Anchors []align.Anchor `json:"anchors"`
}

// SegmentList is the body of GET /api/runs/{id}/segments.
type SegmentList struct {
	RunID    string          `json:"run_id"`
	Segments []align.Segment `json:"segments"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string                    `json:"status"`
	Stores map[string]storage.Health `json:"stores"`
}
