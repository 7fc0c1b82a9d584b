package align

// Ratio is the fraction of the reference labels recovered in the candidate:
// |ref ∩ cand| / |ref|. Extra labels in the candidate are not penalised. An
// empty reference scores 0.
func Ratio(ref, cand LabelSet) float64 {
	if len(ref) == 0 {
		return 0
	}
	return float64(ref.Intersection(cand)) / float64(len(ref))
}

// SequenceRatio scores two equal-length group runs position by position. The
// quality is the worst per-position ratio; ok is true only when every position
// reaches thresh.
func SequenceRatio(ref, cand []Group, thresh float64) (quality float64, ok bool) {
	if len(ref) == 0 || len(ref) != len(cand) {
		return 0, false
	}
	quality = 1
	for i := range ref {
		if r := Ratio(ref[i].Labels, cand[i].Labels); r < quality {
			quality = r
		}
	}
	return quality, quality >= thresh
}

// SlideMatch is the outcome of a bi-directional sliding comparison.
type SlideMatch struct {
	SkipRef     int     `json:"skip_ref"`
	SkipDerived int     `json:"skip_derived"`
	Quality     float64 `json:"quality"`
}

// SlidingMatch compares seqLen-long windows of ref and derived at every pair of
// leading skips in [0, maxSkip]², ascending by reference skip then derived
// skip, and returns the first pair that passes SequenceRatio. When nothing
// passes, the returned Quality is the best worst-case ratio seen.
func SlidingMatch(ref, derived Sequence, seqLen, maxSkip int, thresh float64) (SlideMatch, bool) {
	best := SlideMatch{Quality: 0}
	for sr := 0; sr <= maxSkip; sr++ {
		if sr+seqLen > len(ref) {
			break
		}
		for sd := 0; sd <= maxSkip; sd++ {
			if sd+seqLen > len(derived) {
				break
			}
			q, ok := SequenceRatio(ref[sr:sr+seqLen], derived[sd:sd+seqLen], thresh)
			if ok {
				return SlideMatch{SkipRef: sr, SkipDerived: sd, Quality: q}, true
			}
			if q > best.Quality {
				best = SlideMatch{SkipRef: sr, SkipDerived: sd, Quality: q}
			}
		}
	}
	return best, false
}
