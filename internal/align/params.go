package align

import (
	"fmt"
	"math"
)

// WindowParams shapes the derived-stream search window used for interior
// anchors. Half-widths scale with the magnitude of the expected drift and are
// clamped to [Min, Max].
type WindowParams struct {
	MinBack      float64 `json:"min_back"`
	MaxBack      float64 `json:"max_back"`
	MinForward   float64 `json:"min_fwd"`
	MaxForward   float64 `json:"max_fwd"`
	ScaleBack    float64 `json:"scale_back"`
	ScaleForward float64 `json:"scale_fwd"`

	// RetryForwardFactor widens the forward half-width on the single retry
	// after a boundary search comes up empty.
	RetryForwardFactor float64 `json:"retry_fwd_factor"`
}

// Params holds every tunable of the alignment engine. All times are seconds.
type Params struct {
	// Epsilon is the grouping tolerance; onsets closer than this are simultaneous.
	// Zero collapses grouping to exact-time matching.
	Epsilon float64 `json:"epsilon"`

	// SegmentMinutes is the nominal length of each reference chunk.
	SegmentMinutes float64 `json:"segment_minutes"`

	// Attempts is how many reference candidates are tried per anchor search.
	Attempts int `json:"n_attempts"`

	ThreshFirst  float64 `json:"thresh_first"`
	ThreshLast   float64 `json:"thresh_last"`
	ThreshMiddle float64 `json:"thresh_middle"`

	SeqLen        int     `json:"seq_len"`
	SeqMaxSpan    float64 `json:"seq_max_span"`
	MaxSkipPrefix int     `json:"max_skip_prefix"`

	// SafetyForward is the minimum derived-time progress past the previous anchor.
	SafetyForward float64 `json:"safety_forward"`

	Window WindowParams `json:"window"`

	// MinDenom guards the slope computation between anchors with (nearly) equal
	// reference times.
	MinDenom float64 `json:"min_denom"`

	// ExcludeLabels are ignored when building groups.
	ExcludeLabels []int `json:"exclude_labels,omitempty"`
}

// DefaultParams returns the tuned defaults.
func DefaultParams() Params {
	return Params{
		Epsilon:        0.01,
		SegmentMinutes: 2,
		Attempts:       5,
		ThreshFirst:    0.80,
		ThreshLast:     0.80,
		ThreshMiddle:   0.50,
		SeqLen:         5,
		SeqMaxSpan:     10,
		MaxSkipPrefix:  2,
		SafetyForward:  0.25,
		Window: WindowParams{
			MinBack:            0.5,
			MaxBack:            10,
			MinForward:         5,
			MaxForward:         25,
			ScaleBack:          0.6,
			ScaleForward:       1.4,
			RetryForwardFactor: 1.5,
		},
		MinDenom: 1e-6,
	}
}

// SegmentLength is the nominal chunk length in seconds.
func (p Params) SegmentLength() float64 {
	return p.SegmentMinutes * 60
}

// Validate checks that the parameters describe a usable configuration.
func (p Params) Validate() error {
	bad := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w: %s", ErrInvalidParams, fmt.Sprintf(format, args...))
	}

	switch {
	case p.Epsilon < 0 || math.IsNaN(p.Epsilon):
		return bad("epsilon must be >= 0, got %v", p.Epsilon)
	case p.SegmentMinutes <= 0:
		return bad("segment_minutes must be > 0, got %v", p.SegmentMinutes)
	case p.Attempts < 1:
		return bad("n_attempts must be >= 1, got %d", p.Attempts)
	case p.SeqLen < 1:
		return bad("seq_len must be >= 1, got %d", p.SeqLen)
	case p.MaxSkipPrefix < 0:
		return bad("max_skip_prefix must be >= 0, got %d", p.MaxSkipPrefix)
	case p.SeqMaxSpan <= 0:
		return bad("seq_max_span must be > 0, got %v", p.SeqMaxSpan)
	case p.SafetyForward < 0:
		return bad("safety_forward must be >= 0, got %v", p.SafetyForward)
	case p.MinDenom <= 0:
		return bad("min_denom must be > 0, got %v", p.MinDenom)
	}

	for name, v := range map[string]float64{
		"thresh_first":  p.ThreshFirst,
		"thresh_last":   p.ThreshLast,
		"thresh_middle": p.ThreshMiddle,
	} {
		if v <= 0 || v > 1 {
			return bad("%s must be in (0, 1], got %v", name, v)
		}
	}

	w := p.Window
	if w.MinBack < 0 || w.MaxBack < w.MinBack {
		return bad("window back bounds invalid: min=%v max=%v", w.MinBack, w.MaxBack)
	}
	if w.MinForward < 0 || w.MaxForward < w.MinForward {
		return bad("window forward bounds invalid: min=%v max=%v", w.MinForward, w.MaxForward)
	}
	if w.ScaleBack < 0 || w.ScaleForward < 0 {
		return bad("window scales must be >= 0")
	}
	if w.RetryForwardFactor < 1 {
		return bad("retry_fwd_factor must be >= 1, got %v", w.RetryForwardFactor)
	}

	return nil
}
