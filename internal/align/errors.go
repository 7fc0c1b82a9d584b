package align

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoBoundaryAnchor means the first or last anchor could not be found.
	ErrNoBoundaryAnchor = errors.New("align: no boundary anchor found")

	// ErrNoInteriorAnchor means an interior boundary could not be matched, even
	// after widening the search window.
	ErrNoInteriorAnchor = errors.New("align: no interior anchor found")

	// ErrEmptyStream means one of the input streams has no usable events.
	ErrEmptyStream = errors.New("align: stream has no events")

	// ErrInvalidParams wraps every parameter validation failure.
	ErrInvalidParams = errors.New("align: invalid parameters")
)

// CandidateRatio records the best score a reference candidate achieved.
type CandidateRatio struct {
	GTTime      float64 `json:"gt_time"`
	Ratio       float64 `json:"ratio"`
	DerivedTime float64 `json:"derived_time"`
}

// BoundaryAnchorError carries the candidates considered when a first or last
// anchor search fails.
type BoundaryAnchorError struct {
	Side       AnchorKind
	Threshold  float64
	Candidates []CandidateRatio
}

func (e *BoundaryAnchorError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v: side=%s threshold=%.2f", ErrNoBoundaryAnchor, e.Side, e.Threshold)
	for _, c := range e.Candidates {
		fmt.Fprintf(&b, " [gt=%.3f best=%.2f@%.3f]", c.GTTime, c.Ratio, c.DerivedTime)
	}
	return b.String()
}

func (e *BoundaryAnchorError) Unwrap() error { return ErrNoBoundaryAnchor }

// InteriorAnchorError describes a failed interior search
type InteriorAnchorError struct {
	Boundary      int
	SegmentStart  float64
	ExpectedDrift float64
	Window        Window
	Widened       Window
	BestRatio     float64
	Candidates    int
}

func (e *InteriorAnchorError) Error() string {
	return fmt.Sprintf("%v: boundary=%d segment_start=%.3f expected_drift=%.3f window=[%.3f, %.3f] widened=[%.3f, %.3f] candidates=%d best_ratio=%.2f",
		ErrNoInteriorAnchor, e.Boundary, e.SegmentStart, e.ExpectedDrift,
		e.Window.Lo, e.Window.Hi, e.Widened.Lo, e.Widened.Hi, e.Candidates, e.BestRatio)
}

func (e *InteriorAnchorError) Unwrap() error { return ErrNoInteriorAnchor }
