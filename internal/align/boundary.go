package align

// firstAnchor tries up to Attempts leading reference groups. Each one scans the
// derived groups in ascending time and takes the first reaching ThreshFirst;
// the candidate with the earliest derived time wins, ties going to the
// earlier reference group.
func (a *Aligner) firstAnchor(ref, der *Grouping) (Anchor, error) {
	p := a.params

	var (
		best  Anchor
		found bool
		diag  []CandidateRatio
	)
	for _, i := range ref.nonEmptyFrom(0, p.Attempts) {
		rg := ref.groups[i]
		cr := CandidateRatio{GTTime: rg.Time}
		for _, dg := range der.groups {
			r := Ratio(rg.Labels, dg.Labels)
			if r > cr.Ratio {
				cr.Ratio, cr.DerivedTime = r, dg.Time
			}
			if r < p.ThreshFirst {
				continue
			}
			cr.Ratio, cr.DerivedTime = r, dg.Time
			if !found || dg.Time < best.DerivedTime {
				best = Anchor{
					Kind:        AnchorFirst,
					GTTime:      rg.Time,
					GTLabels:    rg.Labels,
					DerivedTime: dg.Time,
					Confidence:  r,
				}
				found = true
			}
			break
		}
		diag = append(diag, cr)
		a.logger.Debugw("first anchor candidate", "gt_time", cr.GTTime, "ratio", cr.Ratio, "derived_time", cr.DerivedTime)
	}

	if !found {
		return Anchor{}, &BoundaryAnchorError{Side: AnchorFirst, Threshold: p.ThreshFirst, Candidates: diag}
	}
	a.logger.Infow("first anchor found",
		"gt_time", best.GTTime, "derived_time", best.DerivedTime, "ratio", best.Confidence, "labels", best.GTLabels)
	return best, nil
}

// lastAnchor matches the reference group at the latest onset by scanning the
// derived groups backwards. The scan gives up once it passes the first
// anchor's derived time.
func (a *Aligner) lastAnchor(ref, der *Grouping, first Anchor) (Anchor, error) {
	p := a.params

	t := ref.MaxOnset()
	labels := ref.LabelsAt(t)
	if len(labels) == 0 {
		// every event at the final onset was excluded; fall back to the last
		// group that still has labels
		for i := len(ref.groups) - 1; i >= 0; i-- {
			if len(ref.groups[i].Labels) > 0 {
				t, labels = ref.groups[i].Time, ref.groups[i].Labels
				break
			}
		}
	}

	cr := CandidateRatio{GTTime: t}
	for i := len(der.groups) - 1; i >= 0; i-- {
		dg := der.groups[i]
		if dg.Time < first.DerivedTime {
			break
		}
		r := Ratio(labels, dg.Labels)
		if r > cr.Ratio {
			cr.Ratio, cr.DerivedTime = r, dg.Time
		}
		if r < p.ThreshLast {
			continue
		}
		last := Anchor{
			Kind:        AnchorLast,
			GTTime:      t,
			GTLabels:    labels,
			DerivedTime: dg.Time,
			Confidence:  r,
		}
		a.logger.Infow("last anchor found",
			"gt_time", last.GTTime, "derived_time", last.DerivedTime, "ratio", last.Confidence, "labels", last.GTLabels)
		return last, nil
	}

	return Anchor{}, &BoundaryAnchorError{Side: AnchorLast, Threshold: p.ThreshLast, Candidates: []CandidateRatio{cr}}
}
