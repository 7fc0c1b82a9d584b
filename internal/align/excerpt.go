package align

// Excerpt pairs the aligned and derived events around one anchor so that a
// match can be inspected by eye.
type Excerpt struct {
	Anchor  Anchor  `json:"anchor"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Aligned []Event `json:"aligned"`
	Derived []Event `json:"derived"`
}

// Excerpts cuts [DerivedTime-window, DerivedTime+window] out of both the
// aligned reference and the derived stream for every anchor.
func Excerpts(anchors []Anchor, aligned, derived []Event, window float64) []Excerpt {
	out := make([]Excerpt, 0, len(anchors))
	for _, a := range anchors {
		lo, hi := a.DerivedTime-window, a.DerivedTime+window
		out = append(out, Excerpt{
			Anchor:  a,
			Start:   lo,
			End:     hi,
			Aligned: between(aligned, lo, hi),
			Derived: between(derived, lo, hi),
		})
	}
	return out
}

func between(events []Event, lo, hi float64) []Event {
	var out []Event
	for _, e := range events {
		if e.Onset >= lo && e.Onset <= hi {
			out = append(out, e)
		}
	}
	return out
}

// Excerpts cuts the aligned output and derived around every anchor of r.
func (r *Result) Excerpts(derived []Event, window float64) []Excerpt {
	return Excerpts(r.Anchors, r.Aligned, derived, window)
}
