package align

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestAlignTwoGroups(t *testing.T) {
	var ref, der []Event
	ref = append(ref, chord(0, 60, 64, 67)...)
	ref = append(ref, chord(120, 60)...)
	der = append(der, chord(0.5, 60, 64, 67)...)
	der = append(der, chord(120.5, 60)...)

	res, err := mustAligner(DefaultParams()).Align(ref, der)
	require.NoError(t, err)

	require.Len(t, res.Anchors, 2)
	assert.Equal(t, 0.0, res.Anchors[0].GTTime)
	assert.Equal(t, 0.5, res.Anchors[0].DerivedTime)
	assert.Equal(t, 120.0, res.Anchors[1].GTTime)
	assert.Equal(t, 120.5, res.Anchors[1].DerivedTime)

	require.Len(t, res.Segments, 1)
	assert.InDelta(t, 1.0, res.Segments[0].A, 1e-12)
	assert.InDelta(t, 0.5, res.Segments[0].B, 1e-12)
	assert.InDelta(t, 60.5, res.Map.Map(60), 1e-12)
	assert.Empty(t, res.Boundaries)
}

func TestAlignTwoGroupsWithStretch(t *testing.T) {
	var ref, der []Event
	ref = append(ref, chord(0, 60, 64, 67)...)
	ref = append(ref, chord(120, 60)...)
	der = append(der, chord(0.5, 60, 64, 67)...)
	der = append(der, chord(121, 60)...)

	res, err := mustAligner(DefaultParams()).Align(ref, der)
	require.NoError(t, err)

	require.Len(t, res.Segments, 1)
	assert.InDelta(t, 120.5/120, res.Segments[0].A, 1e-12)
	assert.InDelta(t, 0.5, res.Segments[0].B, 1e-12)
	assert.InDelta(t, 60.75, res.Map.Map(60), 1e-9)
	assert.InDelta(t, 121.0, res.Map.Map(120), 1e-9)
}

func TestAlignIdentity(t *testing.T) {
	ref := piece(600, identity)
	der := piece(600, identity)

	res, err := mustAligner(DefaultParams()).Align(ref, der)
	require.NoError(t, err)
	assert.True(t, res.Identity(1e-12), "segments: %+v", res.Segments)
	for i := range ref {
		assert.InDelta(t, ref[i].Onset, res.Aligned[i].Onset, 1e-9)
		assert.InDelta(t, ref[i].Offset, res.Aligned[i].Offset, 1e-9)
		assert.Equal(t, ref[i].Label, res.Aligned[i].Label)
	}
}

func TestAlignLinearDrift(t *testing.T) {
	warp := func(t float64) float64 { return 1.002*t + 0.3 }
	ref := piece(800, identity)
	der := piece(800, warp)
	orig := append([]Event(nil), ref...)

	logger, logs := observed()
	a, err := NewAligner(DefaultParams(), logger)
	require.NoError(t, err)

	res, err := a.Align(ref, der)
	require.NoError(t, err)
	assert.Equal(t, orig, ref, "reference must not be modified")

	assert.Equal(t, []float64{120, 240, 360}, res.Boundaries)
	require.Len(t, res.Anchors, 5)
	wantGT := []float64{0, 120, 240, 360, 399.5}
	for i, anc := range res.Anchors {
		assert.InDelta(t, wantGT[i], anc.GTTime, 1e-9, "anchor %d", i)
		assert.InDelta(t, warp(anc.GTTime), anc.DerivedTime, 1e-9, "anchor %d", i)
		if i > 0 {
			assert.Greater(t, anc.GTTime, res.Anchors[i-1].GTTime)
			assert.Greater(t, anc.DerivedTime, res.Anchors[i-1].DerivedTime)
		}
	}
	assert.Equal(t, AnchorFirst, res.Anchors[0].Kind)
	assert.Equal(t, AnchorInterior, res.Anchors[2].Kind)
	assert.Equal(t, AnchorLast, res.Anchors[4].Kind)

	require.Len(t, res.Aligned, len(ref))
	for i := range ref {
		assert.InDelta(t, warp(ref[i].Onset), res.Aligned[i].Onset, 1e-6)
	}

	assert.InDelta(t, 0.002, res.Drift.Slope, 1e-9)
	assert.InDelta(t, 0.3, res.Drift.Intercept, 1e-9)
	assert.InDelta(t, 1.0, res.Drift.RSquared, 1e-9)

	assert.Equal(t, 1, logs.FilterMessage("first anchor found").Len())
	assert.Equal(t, 1, logs.FilterMessage("last anchor found").Len())
	assert.Equal(t, 3, logs.FilterMessage("interior anchor found").Len())
	assert.Equal(t, 3, logs.FilterMessage("search window").Len())
	assert.Equal(t, 1, logs.FilterMessage("alignment complete").Len())
	assert.Zero(t, logs.FilterMessage("window widened").Len())
}

func TestAlignInteriorFailure(t *testing.T) {
	ref := piece(800, identity)
	der := piece(800, identity)
	for i := range der {
		if der[i].Onset >= 100 && der[i].Onset < 140 {
			der[i].Label += 200
		}
	}

	_, err := mustAligner(DefaultParams()).Align(ref, der)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoInteriorAnchor))

	var ie *InteriorAnchorError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, 1, ie.Boundary)
	assert.Equal(t, 120.0, ie.SegmentStart)
	assert.Zero(t, ie.BestRatio)
}

func TestAlignEmptyStreams(t *testing.T) {
	a := mustAligner(DefaultParams())

	_, err := a.Align(nil, piece(3, identity))
	assert.True(t, errors.Is(err, ErrEmptyStream))
	_, err = a.Align(piece(3, identity), nil)
	assert.True(t, errors.Is(err, ErrEmptyStream))
}

func TestNewAlignerRejectsInvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"negative epsilon", func(p *Params) { p.Epsilon = -1 }},
		{"zero attempts", func(p *Params) { p.Attempts = 0 }},
		{"threshold above one", func(p *Params) { p.ThreshMiddle = 1.5 }},
		{"inverted window", func(p *Params) { p.Window.MaxBack = 0.1 }},
		{"retry factor below one", func(p *Params) { p.Window.RetryForwardFactor = 0.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			_, err := NewAligner(p, nil)
			assert.True(t, errors.Is(err, ErrInvalidParams), "got %v", err)
		})
	}
}

func TestAlignSkippedBoundaryIsLogged(t *testing.T) {
	// the 120s boundary has only three groups before the last anchor at 121s
	ref := piece(243, identity)
	der := piece(243, identity)

	logger, logs := observed()
	a, err := NewAligner(DefaultParams(), logger)
	require.NoError(t, err)

	res, err := a.Align(ref, der)
	require.NoError(t, err)
	assert.Empty(t, res.Boundaries)
	assert.Len(t, res.Anchors, 2)

	skipped := logs.FilterMessage("boundary skipped").All()
	require.Len(t, skipped, 1)
	assert.Equal(t, zapcore.WarnLevel, skipped[0].Level)
	assert.Equal(t, 120.0, skipped[0].ContextMap()["segment_start"])
}
