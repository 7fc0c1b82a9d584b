package align

import (
	"math"
	"sort"
)

// Grouping indexes one stream's onsets so that the label set at any time can
// be looked up, and exposes the stream's distinct group times.
type Grouping struct {
	eps     float64
	onsets  []float64 // sorted ascending
	labels  []int     // parallel to onsets
	exclude map[int]struct{}
	groups  []Group // one per distinct representative time
}

// NewGrouping builds a Grouping over events with tolerance eps. Labels listed
// in exclude never appear in any group.
func NewGrouping(events []Event, eps float64, exclude []int) *Grouping {
	idx := make([]int, len(events))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return events[idx[i]].Onset < events[idx[j]].Onset
	})

	g := &Grouping{
		eps:    eps,
		onsets: make([]float64, len(events)),
		labels: make([]int, len(events)),
	}
	for i, k := range idx {
		g.onsets[i] = events[k].Onset
		g.labels[i] = events[k].Label
	}
	if len(exclude) > 0 {
		g.exclude = make(map[int]struct{}, len(exclude))
		for _, l := range exclude {
			g.exclude[l] = struct{}{}
		}
	}

	for _, t := range DistinctTimes(g.onsets, eps) {
		g.groups = append(g.groups, Group{Time: t, Labels: g.LabelsAt(t)})
	}
	return g
}

// DistinctTimes deduplicates sorted onset times: a time becomes a new
// representative unless it lies within eps of the previous representative.
// The first-seen time of each cluster wins.
func DistinctTimes(sorted []float64, eps float64) []float64 {
	var out []float64
	for _, t := range sorted {
		if len(out) > 0 && within(t, out[len(out)-1], eps) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// within reports |a-b| < eps, treating eps == 0 as exact equality.
func within(a, b, eps float64) bool {
	d := math.Abs(a - b)
	return d < eps || d == 0
}

// LabelsAt returns the labels of all events whose onset is within eps of t.
func (g *Grouping) LabelsAt(t float64) LabelSet {
	i := sort.SearchFloat64s(g.onsets, t-g.eps)
	var labels []int
	for ; i < len(g.onsets) && g.onsets[i] <= t+g.eps; i++ {
		if !within(g.onsets[i], t, g.eps) {
			continue
		}
		if _, skip := g.exclude[g.labels[i]]; skip {
			continue
		}
		labels = append(labels, g.labels[i])
	}
	return NewLabelSet(labels...)
}

// Groups returns every distinct group in time order, including groups whose
// label set is empty after exclusions.
func (g *Grouping) Groups() []Group {
	return g.groups
}

// Times returns the distinct representative times in ascending order.
func (g *Grouping) Times() []float64 {
	out := make([]float64, len(g.groups))
	for i, gr := range g.groups {
		out[i] = gr.Time
	}
	return out
}

// Len is the number of distinct groups
func (g *Grouping) Len() int { return len(g.groups) }

// Empty reports whether the stream has no onsets at all.
func (g *Grouping) Empty() bool { return len(g.onsets) == 0 }

// MaxOnset is the latest onset in the stream.
func (g *Grouping) MaxOnset() float64 {
	if len(g.onsets) == 0 {
		return 0
	}
	return g.onsets[len(g.onsets)-1]
}

// indexAtOrAfter is the index of the first group whose time is >= t-eps.
func (g *Grouping) indexAtOrAfter(t float64) int {
	return sort.Search(len(g.groups), func(i int) bool {
		return g.groups[i].Time >= t-g.eps
	})
}
