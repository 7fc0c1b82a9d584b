package batch

import (
	"github.com/chrissnell/notealign/internal/align"
	"github.com/chrissnell/notealign/internal/notes"
	"github.com/chrissnell/notealign/internal/overlap"
	"github.com/chrissnell/notealign/internal/types"
)

// AlignNotes aligns reference onto derived and returns the run record and the
// remapped reference notes. Anchors are searched on pitched notes only, but
// every reference note, drums included, is remapped. The run is returned even
// when alignment fails, so callers can persist the failure. A non-nil ov adds
// an overlap summary of the pitched aligned notes against derived.
func AlignNotes(a *align.Aligner, name string, reference, derived []notes.Note, ov *overlap.Options) (*types.Run, []notes.Note, error) {
	run := types.NewRun(name, a.Params())

	pitchedDerived := notes.FilterPitched(derived)
	res, err := a.Align(notes.Events(notes.FilterPitched(reference)), notes.Events(pitchedDerived))
	if err != nil {
		run.Fail(err)
		return run, nil, err
	}
	run.Succeed(res)

	aligned := notes.Remap(reference, res.Map)
	run.EventCount = len(aligned)
	if ov != nil {
		rep := overlap.Compare(notes.FilterPitched(aligned), pitchedDerived, *ov)
		run.Overlap = &rep.Summary
	}
	return run, aligned, nil
}
