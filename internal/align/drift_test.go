package align

import (
	"math"
	"testing"
)

func TestSummarizeDrift(t *testing.T) {
	tests := []struct {
		name    string
		anchors []Anchor
		want    DriftSummary
	}{
		{
			name: "constant offset",
			anchors: []Anchor{
				{GTTime: 0, DerivedTime: 0.5},
				{GTTime: 120, DerivedTime: 120.5},
				{GTTime: 240, DerivedTime: 240.5},
			},
			want: DriftSummary{Anchors: 3, First: 0.5, Last: 0.5, Intercept: 0.5, RSquared: 1},
		},
		{
			name: "linear",
			anchors: []Anchor{
				{GTTime: 0, DerivedTime: 1},
				{GTTime: 100, DerivedTime: 102},
				{GTTime: 200, DerivedTime: 203},
			},
			want: DriftSummary{Anchors: 3, First: 1, Last: 3, Total: 2, Slope: 0.01, Intercept: 1, RSquared: 1},
		},
		{
			name:    "single anchor",
			anchors: []Anchor{{GTTime: 3, DerivedTime: 4}},
			want:    DriftSummary{Anchors: 1, First: 1, Last: 1, Intercept: 1, RSquared: 1},
		},
	}

	const tol = 1e-9
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SummarizeDrift(tt.anchors)
			if got.Anchors != tt.want.Anchors ||
				math.Abs(got.First-tt.want.First) > tol ||
				math.Abs(got.Last-tt.want.Last) > tol ||
				math.Abs(got.Total-tt.want.Total) > tol ||
				math.Abs(got.Slope-tt.want.Slope) > tol ||
				math.Abs(got.Intercept-tt.want.Intercept) > tol ||
				math.Abs(got.RSquared-tt.want.RSquared) > tol ||
				got.MaxAbsResidual > tol {
				t.Errorf("SummarizeDrift() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSummarizeDriftResiduals(t *testing.T) {
	got := SummarizeDrift([]Anchor{
		{GTTime: 0, DerivedTime: 0},
		{GTTime: 1, DerivedTime: 2},
		{GTTime: 2, DerivedTime: 2},
	})
	// drift 0, 1, 0 fits a flat line at 1/3
	if math.Abs(got.Slope) > 1e-12 {
		t.Errorf("slope = %v, want 0", got.Slope)
	}
	if math.Abs(got.MaxAbsResidual-2.0/3.0) > 1e-9 {
		t.Errorf("max residual = %v, want 2/3", got.MaxAbsResidual)
	}
	if got.RSquared != 0 {
		t.Errorf("r squared = %v, want 0", got.RSquared)
	}
}

func TestExcerpts(t *testing.T) {
	anchors := []Anchor{{GTTime: 10, DerivedTime: 11}}
	aligned := []Event{{Onset: 9, Label: 1}, {Onset: 11, Label: 2}, {Onset: 14, Label: 3}}
	derived := []Event{{Onset: 10.5, Label: 2}, {Onset: 20, Label: 4}}

	ex := Excerpts(anchors, aligned, derived, 2)
	if len(ex) != 1 {
		t.Fatalf("got %d excerpts", len(ex))
	}
	if ex[0].Start != 9 || ex[0].End != 13 {
		t.Errorf("range = [%v, %v], want [9, 13]", ex[0].Start, ex[0].End)
	}
	if len(ex[0].Aligned) != 2 || len(ex[0].Derived) != 1 {
		t.Errorf("aligned=%v derived=%v", ex[0].Aligned, ex[0].Derived)
	}
}
