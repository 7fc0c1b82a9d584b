package align

import (
	"fmt"
	"math"

	"go.uber.org/zap"
)

// Aligner finds anchors between a reference and a derived stream and fits a
// piecewise-linear time map through them.
type Aligner struct {
	params Params
	logger *zap.SugaredLogger
}

// Result is everything produced by one alignment.
type Result struct {
	Anchors    []Anchor     `json:"anchors"`
	Segments   []Segment    `json:"segments"`
	Boundaries []float64    `json:"boundaries"`
	Duration   float64      `json:"duration"`
	Drift      DriftSummary `json:"drift"`

	Map     TimeMap `json:"-"`
	Aligned []Event `json:"-"`
}

// NewAligner validates params and returns an Aligner. A nil logger discards
// all diagnostics.
func NewAligner(params Params, logger *zap.SugaredLogger) (*Aligner, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Aligner{params: params, logger: logger}, nil
}

// Params returns the parameters the aligner was built with.
func (a *Aligner) Params() Params {
	return a.params
}

// Align maps every reference event onto the derived stream's timeline.
// Neither input slice is modified.
func (a *Aligner) Align(reference, derived []Event) (*Result, error) {
	p := a.params

	ref := NewGrouping(reference, p.Epsilon, p.ExcludeLabels)
	if ref.Empty() {
		return nil, fmt.Errorf("reference: %w", ErrEmptyStream)
	}
	der := NewGrouping(derived, p.Epsilon, p.ExcludeLabels)
	if der.Empty() {
		return nil, fmt.Errorf("derived: %w", ErrEmptyStream)
	}

	first, err := a.firstAnchor(ref, der)
	if err != nil {
		return nil, err
	}
	last, err := a.lastAnchor(ref, der, first)
	if err != nil {
		return nil, err
	}

	duration := ref.MaxOnset()
	boundaries := a.boundaries(ref, first, last)

	anchors := make([]Anchor, 0, len(boundaries)+2)
	anchors = append(anchors, first)
	for k, b := range boundaries {
		prev := anchors[len(anchors)-1]
		anc, err := a.interiorAnchor(ref, der, k+1, b, ExpectedDrift(b, duration, first, last), prev, last)
		if err != nil {
			return nil, err
		}
		anchors = append(anchors, anc)
	}
	anchors = append(anchors, last)

	segs := FitSegments(anchors, duration, p.MinDenom)
	for i, s := range segs {
		if s.Degenerate {
			a.logger.Warnw("degenerate segment",
				"segment", i, "gt_start", s.GTStart, "gt_end", s.GTEnd, "a", s.A, "b", s.B)
		}
	}

	m := TimeMap{Segments: segs, Epsilon: p.Epsilon}
	res := &Result{
		Anchors:    anchors,
		Segments:   segs,
		Boundaries: boundaries,
		Duration:   duration,
		Drift:      SummarizeDrift(anchors),
		Map:        m,
		Aligned:    m.Apply(reference),
	}

	a.logger.Infow("alignment complete",
		"anchors", len(anchors), "segments", len(segs), "duration", duration,
		"total_drift", res.Drift.Total, "events", len(reference))
	return res, nil
}

// boundaries lists the nominal interior chunk starts k*SegmentLength that lie
// strictly between the first and last anchors' reference times and still have
// SeqLen non-empty groups before the last anchor.
func (a *Aligner) boundaries(ref *Grouping, first, last Anchor) []float64 {
	p := a.params
	segLen := p.SegmentLength()

	var out []float64
	for k := 1; ; k++ {
		b := float64(k) * segLen
		if b >= last.GTTime {
			break
		}
		if b <= first.GTTime {
			continue
		}
		idx := ref.nonEmptyFrom(ref.indexAtOrAfter(b), p.SeqLen)
		if len(idx) < p.SeqLen || ref.groups[idx[len(idx)-1]].Time >= last.GTTime {
			a.logger.Warnw("boundary skipped", "segment_start", b, "reason", "too few groups before last anchor")
			continue
		}
		out = append(out, b)
	}
	return out
}

// Identity reports whether every segment maps time onto itself within tol.
func (r *Result) Identity(tol float64) bool {
	for _, s := range r.Segments {
		if math.Abs(s.A-1) > tol || math.Abs(s.B) > tol {
			return false
		}
	}
	return true
}
