package align

import "math"

// FitSegments turns consecutive anchor pairs into affine segments. Segment i
// is fitted through anchors i and i+1 and covers reference time from anchor
// i's time to anchor i+1's time; the first segment is extended back to 0 and
// the last forward to end. A pair whose reference times differ by less than
// minDenom reuses the previous segment's transform, or the identity for the
// first segment, and is flagged Degenerate.
func FitSegments(anchors []Anchor, end, minDenom float64) []Segment {
	if len(anchors) < 2 {
		return []Segment{{GTStart: 0, GTEnd: end, A: 1, B: 0, Degenerate: true}}
	}

	n := len(anchors) - 1
	segs := make([]Segment, 0, n)
	prevA, prevB := 1.0, 0.0

	for i := 0; i < n; i++ {
		a0, a1 := anchors[i], anchors[i+1]
		seg := Segment{GTStart: a0.GTTime, GTEnd: a1.GTTime}
		if i == 0 {
			seg.GTStart = math.Min(0, a0.GTTime)
		}
		if i == n-1 {
			seg.GTEnd = math.Max(end, a1.GTTime)
		}

		den := a1.GTTime - a0.GTTime
		if math.Abs(den) < minDenom {
			seg.A, seg.B, seg.Degenerate = prevA, prevB, true
		} else {
			seg.A = (a1.DerivedTime - a0.DerivedTime) / den
			seg.B = a0.DerivedTime - seg.A*a0.GTTime
		}

		prevA, prevB = seg.A, seg.B
		segs = append(segs, seg)
	}
	return segs
}

// TimeMap applies a piecewise-linear reference-to-derived mapping.
type TimeMap struct {
	Segments []Segment `json:"segments"`
	Epsilon  float64   `json:"epsilon"`
}

// Transform returns the (a, b) of the first segment whose
// [GTStart, GTEnd+Epsilon) contains onset. Onsets outside every segment use the
// nearest end segment.
func (m TimeMap) Transform(onset float64) (a, b float64) {
	if len(m.Segments) == 0 {
		return 1, 0
	}
	for _, s := range m.Segments {
		if onset >= s.GTStart && onset < s.GTEnd+m.Epsilon {
			return s.A, s.B
		}
	}
	if onset < m.Segments[0].GTStart {
		return m.Segments[0].A, m.Segments[0].B
	}
	s := m.Segments[len(m.Segments)-1]
	return s.A, s.B
}

// Map converts a single reference time.
func (m TimeMap) Map(t float64) float64 {
	a, b := m.Transform(t)
	return a*t + b
}

// Apply returns a copy of events with onset and offset rewritten by the
// transform selected from each event's onset. Labels and order are unchanged.
func (m TimeMap) Apply(events []Event) []Event {
	out := make([]Event, len(events))
	for i, e := range events {
		a, b := m.Transform(e.Onset)
		out[i] = Event{Onset: a*e.Onset + b, Offset: a*e.Offset + b, Label: e.Label}
	}
	return out
}
