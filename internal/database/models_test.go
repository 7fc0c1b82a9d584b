package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrissnell/notealign/internal/align"
	"github.com/chrissnell/notealign/internal/overlap"
	"github.com/chrissnell/notealign/internal/types"
)

func sampleRun() *types.Run {
	p := align.DefaultParams()
	p.ExcludeLabels = []int{21}
	return &types.Run{
		ID:        "0b4f5a1e-7d4c-4c8e-9a7e-3f2b8f3c1d20",
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Name:      "case1",
		Status:    types.RunSucceeded,
		Params:    p,
		Anchors: []align.Anchor{
			{Kind: align.AnchorFirst, GTTime: 0, GTLabels: align.LabelSet{60, 64}, DerivedTime: 0.5, Confidence: 1},
			{Kind: align.AnchorLast, GTTime: 120, GTLabels: align.LabelSet{60}, DerivedTime: 121, Confidence: 1},
		},
		Segments:   []align.Segment{{GTStart: 0, GTEnd: 120, A: 120.5 / 120, B: 0.5}},
		Drift:      align.DriftSummary{Anchors: 2, First: 0.5, Last: 1, Total: 0.5, RSquared: 1},
		Overlap:    &overlap.Summary{Both: 3, Precision: 0.75, Recall: 0.5, F1: 0.6, Labels: 4},
		EventCount: 42,
	}
}

func TestRowsRoundTrip(t *testing.T) {
	in := sampleRun()
	row, anchors, segs, err := RowsFromRun(in)
	require.NoError(t, err)
	assert.Equal(t, "succeeded", row.Status)
	require.Len(t, anchors, 2)
	assert.Equal(t, 1, anchors[1].Seq)
	assert.Equal(t, "[60,64]", anchors[0].GTLabels)

	out, err := row.ToRun(anchors, segs)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestRowsWithoutOverlap(t *testing.T) {
	in := sampleRun()
	in.Overlap = nil
	row, anchors, segs, err := RowsFromRun(in)
	require.NoError(t, err)
	assert.Empty(t, row.Overlap)

	out, err := row.ToRun(anchors, segs)
	require.NoError(t, err)
	assert.Nil(t, out.Overlap)
}

func TestToRunRejectsCorruptJSON(t *testing.T) {
	_, err := RunRow{ID: "x", Params: "{"}.ToRun(nil, nil)
	assert.Error(t, err)
}
