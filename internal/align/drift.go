package align

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DriftSummary describes how drift (derived minus reference time) evolves
// across the accepted anchors.
type DriftSummary struct {
	Anchors int     `json:"anchors"`
	First   float64 `json:"first"`
	Last    float64 `json:"last"`
	Total   float64 `json:"total"`

	// Slope and Intercept fit drift = Intercept + Slope*gt by least squares.
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	RSquared  float64 `json:"r_squared"`

	MeanAbsResidual float64 `json:"mean_abs_residual"`
	MaxAbsResidual  float64 `json:"max_abs_residual"`
}

// SummarizeDrift fits a linear drift model through the anchors.
func SummarizeDrift(anchors []Anchor) DriftSummary {
	s := DriftSummary{Anchors: len(anchors)}
	if len(anchors) == 0 {
		return s
	}
	s.First = anchors[0].Drift()
	s.Last = anchors[len(anchors)-1].Drift()
	s.Total = s.Last - s.First
	s.Intercept = s.First
	s.RSquared = 1

	xs := make([]float64, len(anchors))
	ys := make([]float64, len(anchors))
	for i, a := range anchors {
		xs[i], ys[i] = a.GTTime, a.Drift()
	}
	if len(anchors) < 2 || floats.Max(xs)-floats.Min(xs) == 0 {
		s.Intercept = stat.Mean(ys, nil)
		return s
	}

	s.Intercept, s.Slope = stat.LinearRegression(xs, ys, nil, false)

	res := make([]float64, len(anchors))
	for i := range xs {
		res[i] = math.Abs(ys[i] - (s.Intercept + s.Slope*xs[i]))
	}
	s.MeanAbsResidual = stat.Mean(res, nil)
	s.MaxAbsResidual = floats.Max(res)

	// constant drift has zero variance and an undefined R²
	if r2 := stat.RSquared(xs, ys, nil, s.Intercept, s.Slope); !math.IsNaN(r2) && !math.IsInf(r2, 0) {
		s.RSquared = r2
	} else if s.MaxAbsResidual > 1e-9 {
		s.RSquared = 0
	}
	return s
}
