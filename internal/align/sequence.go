package align

// Sequence builds a forward run of non-empty groups starting at the first
// distinct time >= start-eps. It stops after maxGroups groups or before the
// first group lying more than maxSpan after the first included group.
func (g *Grouping) Sequence(start float64, maxGroups int, maxSpan float64) Sequence {
	return g.sequenceAt(g.indexAtOrAfter(start), maxGroups, maxSpan)
}

func (g *Grouping) sequenceAt(idx, maxGroups int, maxSpan float64) Sequence {
	if maxGroups <= 0 {
		return nil
	}
	seq := make(Sequence, 0, maxGroups)
	for i := idx; i < len(g.groups); i++ {
		gr := g.groups[i]
		if len(gr.Labels) == 0 {
			continue
		}
		if len(seq) > 0 && gr.Time-seq[0].Time > maxSpan {
			break
		}
		seq = append(seq, gr)
		if len(seq) == maxGroups {
			break
		}
	}
	return seq
}

// nonEmptyFrom returns the indices of up to n non-empty groups at or after idx.
func (g *Grouping) nonEmptyFrom(idx, n int) []int {
	var out []int
	for i := idx; i < len(g.groups) && len(out) < n; i++ {
		if len(g.groups[i].Labels) > 0 {
			out = append(out, i)
		}
	}
	return out
}
