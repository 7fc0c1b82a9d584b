package align

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstAnchorEarliestDerivedWins(t *testing.T) {
	p := DefaultParams()
	a := mustAligner(p)

	var ref, der []Event
	ref = append(ref, chord(0, 1, 2, 3)...)
	ref = append(ref, chord(1, 4, 5, 6)...)
	der = append(der, chord(0.2, 4, 5, 6)...)
	der = append(der, chord(0.9, 1, 2, 3)...)

	first, err := a.firstAnchor(NewGrouping(ref, p.Epsilon, nil), NewGrouping(der, p.Epsilon, nil))
	require.NoError(t, err)
	assert.Equal(t, AnchorFirst, first.Kind)
	assert.Equal(t, 1.0, first.GTTime)
	assert.Equal(t, 0.2, first.DerivedTime)
	assert.Equal(t, LabelSet{4, 5, 6}, first.GTLabels)
}

func TestFirstAnchorTieGoesToEarlierReference(t *testing.T) {
	p := DefaultParams()
	a := mustAligner(p)

	var ref, der []Event
	ref = append(ref, chord(0, 60, 64, 67)...)
	ref = append(ref, chord(120, 60)...)
	der = append(der, chord(0.5, 60, 64, 67)...)

	first, err := a.firstAnchor(NewGrouping(ref, p.Epsilon, nil), NewGrouping(der, p.Epsilon, nil))
	require.NoError(t, err)
	assert.Equal(t, 0.0, first.GTTime)
	assert.Equal(t, 0.5, first.DerivedTime)
}

func TestFirstAnchorFailure(t *testing.T) {
	p := DefaultParams()
	p.Attempts = 3
	a := mustAligner(p)

	ref := piece(10, identity)
	var der []Event
	for _, e := range ref {
		e.Label += 200
		der = append(der, e)
	}

	_, err := a.Align(ref, der)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoBoundaryAnchor))

	var be *BoundaryAnchorError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, AnchorFirst, be.Side)
	assert.Len(t, be.Candidates, 3)
	for _, c := range be.Candidates {
		assert.Zero(t, c.Ratio)
	}
}

func TestLastAnchorFailure(t *testing.T) {
	a := mustAligner(DefaultParams())

	var ref, der []Event
	ref = append(ref, chord(0, 1, 2, 3)...)
	ref = append(ref, chord(10, 7, 8, 9)...)
	der = append(der, chord(0, 1, 2, 3)...)
	der = append(der, chord(10, 1, 2, 3)...)

	_, err := a.Align(ref, der)
	var be *BoundaryAnchorError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, AnchorLast, be.Side)
	assert.Contains(t, err.Error(), "side=last")
}

func TestLastAnchorSkipsExcludedFinalGroup(t *testing.T) {
	p := DefaultParams()
	p.ExcludeLabels = []int{9}
	a := mustAligner(p)

	var ref, der []Event
	ref = append(ref, chord(0, 1, 2, 3)...)
	ref = append(ref, chord(5, 4, 5, 6)...)
	ref = append(ref, chord(6, 9)...)
	der = append(der, chord(1, 1, 2, 3)...)
	der = append(der, chord(6, 4, 5, 6)...)

	res, err := a.Align(ref, der)
	require.NoError(t, err)
	last := res.Anchors[len(res.Anchors)-1]
	assert.Equal(t, 5.0, last.GTTime)
	assert.Equal(t, 6.0, last.DerivedTime)
}

// swapped places the final reference chord before the first one in the
// derived stream.
func swapped() (ref, der []Event) {
	ref = append(ref, chord(0, 1, 2, 3)...)
	ref = append(ref, chord(10, 4, 5, 6)...)
	der = append(der, chord(0.5, 4, 5, 6)...)
	der = append(der, chord(1, 1, 2, 3)...)
	return ref, der
}

func TestLastAnchorStopsBeforeFirstAnchor(t *testing.T) {
	p := DefaultParams()
	p.Attempts = 1
	ref, der := swapped()

	_, err := mustAligner(p).Align(ref, der)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoBoundaryAnchor))

	var be *BoundaryAnchorError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, AnchorLast, be.Side)
	require.Len(t, be.Candidates, 1)
	assert.Zero(t, be.Candidates[0].Ratio)
}

func TestLastAnchorSharesFirstAnchor(t *testing.T) {
	ref, der := swapped()

	res, err := mustAligner(DefaultParams()).Align(ref, der)
	require.NoError(t, err)

	require.Len(t, res.Anchors, 2)
	for _, anc := range res.Anchors {
		assert.Equal(t, 10.0, anc.GTTime)
		assert.Equal(t, 0.5, anc.DerivedTime)
	}
	require.Len(t, res.Segments, 1)
	assert.True(t, res.Segments[0].Degenerate)
	assert.Equal(t, 1.0, res.Segments[0].A)
	assert.Equal(t, 0.0, res.Segments[0].B)
}
