package align

import "sort"

// Event is a single timestamped, labelled event (a note) from either stream.
type Event struct {
	Onset  float64 `json:"onset"`
	Offset float64 `json:"offset"`
	Label  int     `json:"label"`
}

// LabelSet is a sorted set of distinct labels.
type LabelSet []int

// NewLabelSet builds a LabelSet from labels in any order, dropping duplicates.
func NewLabelSet(labels ...int) LabelSet {
	if len(labels) == 0 {
		return nil
	}
	s := append(LabelSet(nil), labels...)
	sort.Ints(s)
	out := s[:1]
	for _, l := range s[1:] {
		if l != out[len(out)-1] {
			out = append(out, l)
		}
	}
	return out
}

// Contains reports whether label is in the set
func (s LabelSet) Contains(label int) bool {
	i := sort.SearchInts(s, label)
	return i < len(s) && s[i] == label
}

// Intersection returns the number of labels present in both sets.
func (s LabelSet) Intersection(o LabelSet) int {
	n, i, j := 0, 0, 0
	for i < len(s) && j < len(o) {
		switch {
		case s[i] == o[j]:
			n++
			i++
			j++
		case s[i] < o[j]:
			i++
		default:
			j++
		}
	}
	return n
}

// Group is the set of labels sounding together at a representative onset time.
type Group struct {
	Time   float64  `json:"time"`
	Labels LabelSet `json:"labels"`
}

// Sequence is an ordered run of groups with strictly increasing times.
type Sequence []Group

// AnchorKind identifies where in the alignment an anchor was found
type AnchorKind string

const (
	AnchorFirst    AnchorKind = "first"
	AnchorInterior AnchorKind = "interior"
	AnchorLast     AnchorKind = "last"
)

// Anchor is an accepted correspondence between a reference moment and a
// derived moment.
type Anchor struct {
	Kind        AnchorKind `json:"kind"`
	GTTime      float64    `json:"gt_time"`
	GTLabels    LabelSet   `json:"gt_labels"`
	DerivedTime float64    `json:"derived_time"`
	Confidence  float64    `json:"confidence"`
}

// Drift is derived minus reference time at the anchor.
func (a Anchor) Drift() float64 {
	return a.DerivedTime - a.GTTime
}

// Segment maps reference times in [GTStart, GTEnd) via derived = A*gt + B.
type Segment struct {
	GTStart    float64 `json:"gt_start"`
	GTEnd      float64 `json:"gt_end"`
	A          float64 `json:"a"`
	B          float64 `json:"b"`
	Degenerate bool    `json:"degenerate,omitempty"`
}

// At evaluates the segment's transform at reference time t.
func (s Segment) At(t float64) float64 {
	return s.A*t + s.B
}
