package align

import (
	"math"
	"sort"
)

// Window is a derived-time search interval around an expected position.
type Window struct {
	Center  float64 `json:"center"`
	Back    float64 `json:"back"`
	Forward float64 `json:"forward"`
	Lo      float64 `json:"lo"`
	Hi      float64 `json:"hi"`
}

// SearchWindow computes the derived-time window for a segment starting at
// segStart. fwdFactor scales the forward half-width (1 for the nominal search).
// The lower bound never falls below prevDerived+SafetyForward.
func (p Params) SearchWindow(segStart, expectedDrift, prevDerived, fwdFactor float64) Window {
	wp := p.Window
	mag := math.Abs(expectedDrift)

	back := clamp(wp.MinBack, wp.ScaleBack*mag, wp.MaxBack)
	fwd := clamp(wp.MinForward, wp.ScaleForward*mag, wp.MaxForward) * fwdFactor
	center := segStart + expectedDrift

	return Window{
		Center:  center,
		Back:    back,
		Forward: fwd,
		Lo:      math.Max(center-back, prevDerived+p.SafetyForward),
		Hi:      center + fwd,
	}
}

func clamp(lo, x, hi float64) float64 {
	return math.Min(math.Max(x, lo), hi)
}

// ExpectedDrift interpolates drift linearly between the first and last anchors
// at the boundary's fractional position along the reference duration.
func ExpectedDrift(boundary, duration float64, first, last Anchor) float64 {
	if duration <= 0 {
		return first.Drift()
	}
	frac := boundary / duration
	return first.Drift() + frac*(last.Drift()-first.Drift())
}

type interiorHit struct {
	candidate int
	scanTime  float64
	anchor    Anchor
}

type searchStats struct {
	candidates int
	bestRatio  float64
}

// interiorAnchor locates the anchor for one interior boundary, retrying once
// with a widened forward window.
func (a *Aligner) interiorAnchor(ref, der *Grouping, boundary int, segStart, expected float64, prev, last Anchor) (Anchor, error) {
	p := a.params

	w := p.SearchWindow(segStart, expected, prev.DerivedTime, 1)
	a.logger.Debugw("search window",
		"boundary", boundary, "segment_start", segStart, "expected_drift", expected,
		"center", w.Center, "lo", w.Lo, "hi", w.Hi)

	hit, st := a.searchInterior(ref, der, boundary, segStart, w, prev, last)
	widened := w
	if hit == nil {
		widened = p.SearchWindow(segStart, expected, prev.DerivedTime, p.Window.RetryForwardFactor)
		a.logger.Infow("window widened",
			"boundary", boundary, "segment_start", segStart, "lo", widened.Lo, "hi", widened.Hi,
			"best_ratio", st.bestRatio)

		var st2 searchStats
		hit, st2 = a.searchInterior(ref, der, boundary, segStart, widened, prev, last)
		st.candidates += st2.candidates
		st.bestRatio = math.Max(st.bestRatio, st2.bestRatio)
	}

	if hit == nil {
		return Anchor{}, &InteriorAnchorError{
			Boundary:      boundary,
			SegmentStart:  segStart,
			ExpectedDrift: expected,
			Window:        w,
			Widened:       widened,
			BestRatio:     st.bestRatio,
			Candidates:    st.candidates,
		}
	}

	a.logger.Infow("interior anchor found",
		"boundary", boundary, "gt_time", hit.anchor.GTTime, "derived_time", hit.anchor.DerivedTime,
		"ratio", hit.anchor.Confidence, "candidate", hit.candidate)
	return hit.anchor, nil
}

// searchInterior runs the sliding match for every reference candidate against
// every derived group time inside w. The earliest derived scan time with an
// accepted match wins; on equal times the earlier reference candidate wins.
func (a *Aligner) searchInterior(ref, der *Grouping, boundary int, segStart float64, w Window, prev, last Anchor) (*interiorHit, searchStats) {
	p := a.params
	width := p.SeqLen + p.MaxSkipPrefix

	var (
		hit *interiorHit
		st  searchStats
	)

	lo := sort.Search(len(der.groups), func(i int) bool { return der.groups[i].Time >= w.Lo })

	for ci, ri := range ref.nonEmptyFrom(ref.indexAtOrAfter(segStart), p.Attempts) {
		st.candidates++
		rs := ref.sequenceAt(ri, width, p.SeqMaxSpan)
		if len(rs) < p.SeqLen {
			a.logger.Debugw("candidate rejected",
				"boundary", boundary, "gt_time", ref.groups[ri].Time, "reason", "short reference sequence", "groups", len(rs))
			continue
		}

		reason := "no match in window"
		for di := lo; di < len(der.groups) && der.groups[di].Time <= w.Hi; di++ {
			t := der.groups[di].Time
			if hit != nil && t >= hit.scanTime {
				reason = "later than current best"
				break
			}
			if len(der.groups[di].Labels) == 0 {
				continue
			}

			ds := der.sequenceAt(di, width, p.SeqMaxSpan)
			m, ok := SlidingMatch(rs, ds, p.SeqLen, p.MaxSkipPrefix, p.ThreshMiddle)
			st.bestRatio = math.Max(st.bestRatio, m.Quality)
			if !ok {
				continue
			}

			gt, dt := rs[m.SkipRef].Time, ds[m.SkipDerived].Time
			if gt <= prev.GTTime || gt >= last.GTTime || dt <= prev.DerivedTime || dt >= last.DerivedTime {
				a.logger.Debugw("candidate rejected",
					"boundary", boundary, "gt_time", gt, "derived_time", dt, "reason", "not monotonic")
				continue
			}

			hit = &interiorHit{
				candidate: ci,
				scanTime:  t,
				anchor: Anchor{
					Kind:        AnchorInterior,
					GTTime:      gt,
					GTLabels:    rs[m.SkipRef].Labels,
					DerivedTime: dt,
					Confidence:  m.Quality,
				},
			}
			reason = ""
			a.logger.Debugw("candidate accepted",
				"boundary", boundary, "gt_time", gt, "derived_time", dt, "ratio", m.Quality,
				"skip_gt", m.SkipRef, "skip_tr", m.SkipDerived)
			break
		}
		if reason != "" {
			a.logger.Debugw("candidate rejected",
				"boundary", boundary, "gt_time", ref.groups[ri].Time, "reason", reason)
		}
	}

	return hit, st
}
