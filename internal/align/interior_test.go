package align

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run returns seven two-note groups every 0.5s starting at t.
func run(t float64) []Event {
	var out []Event
	for i := 0; i < 7; i++ {
		out = append(out, chord(t+0.5*float64(i), 40+i, 70+i)...)
	}
	return out
}

func windowParams() Params {
	p := DefaultParams()
	p.Window.MinForward = 2
	return p
}

var (
	farPrev = Anchor{Kind: AnchorFirst, GTTime: 0, DerivedTime: 0}
	farLast = Anchor{Kind: AnchorLast, GTTime: 1000, DerivedTime: 1000}
)

func TestSearchWindow(t *testing.T) {
	p := windowParams()

	w := p.SearchWindow(120, 2.0, 0, 1)
	assert.InDelta(t, 122.0, w.Center, 1e-9)
	assert.InDelta(t, 1.2, w.Back, 1e-9)
	assert.InDelta(t, 2.8, w.Forward, 1e-9)
	assert.InDelta(t, 120.8, w.Lo, 1e-9)
	assert.InDelta(t, 124.8, w.Hi, 1e-9)

	w = p.SearchWindow(120, 2.0, 0, p.Window.RetryForwardFactor)
	assert.InDelta(t, 4.2, w.Forward, 1e-9)

	// lower bound is pushed past the previous anchor
	w = p.SearchWindow(120, 2.0, 121.0, 1)
	assert.InDelta(t, 121.25, w.Lo, 1e-9)

	// clamping at both ends
	w = DefaultParams().SearchWindow(0, 0, -10, 1)
	assert.InDelta(t, 0.5, w.Back, 1e-9)
	assert.InDelta(t, 5.0, w.Forward, 1e-9)
	w = DefaultParams().SearchWindow(0, -100, -1000, 1)
	assert.InDelta(t, 10.0, w.Back, 1e-9)
	assert.InDelta(t, 25.0, w.Forward, 1e-9)
}

func TestExpectedDrift(t *testing.T) {
	first := Anchor{GTTime: 0, DerivedTime: 0.5}
	last := Anchor{GTTime: 400, DerivedTime: 404.5}

	tests := []struct {
		boundary, want float64
	}{
		{0, 0.5},
		{100, 1.5},
		{200, 2.5},
		{400, 4.5},
	}
	for _, tt := range tests {
		if got := ExpectedDrift(tt.boundary, 400, first, last); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ExpectedDrift(%v) = %v, want %v", tt.boundary, got, tt.want)
		}
	}
}

func TestInteriorPrefersEarliestCandidate(t *testing.T) {
	p := windowParams()
	a := mustAligner(p)

	ref := NewGrouping(run(120), p.Epsilon, nil)
	// two copies: center-1.0 and center+2.5
	der := NewGrouping(append(run(121), run(124.5)...), p.Epsilon, nil)

	anc, err := a.interiorAnchor(ref, der, 1, 120, 2.0, farPrev, farLast)
	require.NoError(t, err)
	assert.Equal(t, AnchorInterior, anc.Kind)
	assert.InDelta(t, 120.0, anc.GTTime, 1e-9)
	assert.InDelta(t, 121.0, anc.DerivedTime, 1e-9)
	assert.InDelta(t, 1.0, anc.Confidence, 1e-9)
}

func TestInteriorWidensWindow(t *testing.T) {
	p := windowParams()
	logger, logs := observed()
	a, err := NewAligner(p, logger)
	require.NoError(t, err)

	ref := NewGrouping(run(120), p.Epsilon, nil)
	der := NewGrouping(run(126), p.Epsilon, nil)

	anc, err := a.interiorAnchor(ref, der, 1, 120, 2.0, farPrev, farLast)
	require.NoError(t, err)
	assert.InDelta(t, 126.0, anc.DerivedTime, 1e-9)
	assert.Equal(t, 1, logs.FilterMessage("window widened").Len())
	assert.Equal(t, 1, logs.FilterMessage("interior anchor found").Len())
}

func TestInteriorRespectsSafetyForward(t *testing.T) {
	p := windowParams()
	a := mustAligner(p)

	ref := NewGrouping(run(120), p.Epsilon, nil)
	der := NewGrouping(append(run(121), run(124.5)...), p.Epsilon, nil)
	prev := Anchor{Kind: AnchorInterior, GTTime: 0, DerivedTime: 121.0}

	anc, err := a.interiorAnchor(ref, der, 1, 120, 2.0, prev, farLast)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, anc.DerivedTime, 121.25)
	assert.InDelta(t, 120.5, anc.GTTime, 1e-9)
	assert.InDelta(t, 121.5, anc.DerivedTime, 1e-9)
}

func TestInteriorFailure(t *testing.T) {
	p := windowParams()
	a := mustAligner(p)

	ref := NewGrouping(run(120), p.Epsilon, nil)
	der := NewGrouping(run(140), p.Epsilon, nil)

	_, err := a.interiorAnchor(ref, der, 1, 120, 2.0, farPrev, farLast)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoInteriorAnchor))

	var ie *InteriorAnchorError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, 1, ie.Boundary)
	assert.InDelta(t, 124.8, ie.Window.Hi, 1e-9)
	assert.InDelta(t, 126.2, ie.Widened.Hi, 1e-9)
	assert.Equal(t, 2*p.Attempts, ie.Candidates)
}
