// Package notes reads, writes and reshapes note lists: the event streams fed
// to and produced by the aligner.
package notes

import (
	"fmt"
	"sort"

	"github.com/chrissnell/notealign/internal/align"
)

// Note is one timed note. Only Onset and Offset are ever rewritten by
// alignment; every other field is carried through unchanged.
type Note struct {
	Onset    float64 `json:"onset"`
	Offset   float64 `json:"offset"`
	Pitch    int     `json:"pitch"`
	Velocity int     `json:"velocity,omitempty"`
	Track    string  `json:"track,omitempty"`
	Drum     bool    `json:"drum,omitempty"`
}

// Track names used by Merge.
const (
	TrackAligned  = "Aligned"
	TrackOriginal = "Original"
)

// Transformer selects the affine transform for a reference onset.
type Transformer interface {
	Transform(onset float64) (a, b float64)
}

// Validate checks the timing invariants of a single note.
func (n Note) Validate() error {
	if n.Onset < 0 {
		return fmt.Errorf("onset %v is negative", n.Onset)
	}
	if n.Offset < n.Onset {
		return fmt.Errorf("offset %v precedes onset %v", n.Offset, n.Onset)
	}
	return nil
}

// Events converts notes to the aligner's event form, preserving order.
func Events(notes []Note) []align.Event {
	out := make([]align.Event, len(notes))
	for i, n := range notes {
		out[i] = align.Event{Onset: n.Onset, Offset: n.Offset, Label: n.Pitch}
	}
	return out
}

// Remap returns a copy of notes with onset and offset passed through the
// transform chosen for each onset.
func Remap(notes []Note, t Transformer) []Note {
	out := make([]Note, len(notes))
	for i, n := range notes {
		a, b := t.Transform(n.Onset)
		n.Onset = a*n.Onset + b
		n.Offset = a*n.Offset + b
		out[i] = n
	}
	return out
}

// FilterPitched drops percussion notes.
func FilterPitched(notes []Note) []Note {
	out := make([]Note, 0, len(notes))
	for _, n := range notes {
		if !n.Drum {
			out = append(out, n)
		}
	}
	return out
}

// Window keeps notes sounding at some point in [start, end]. A nil bound is
// open.
func Window(notes []Note, start, end *float64) []Note {
	out := make([]Note, 0, len(notes))
	for _, n := range notes {
		if start != nil && n.Offset < *start {
			continue
		}
		if end != nil && n.Onset > *end {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Merge combines an aligned reference and the derived stream into one
// onset-ordered list whose Track marks the source.
func Merge(aligned, derived []Note) []Note {
	out := make([]Note, 0, len(aligned)+len(derived))
	for _, n := range aligned {
		n.Track = TrackAligned
		out = append(out, n)
	}
	for _, n := range derived {
		n.Track = TrackOriginal
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Onset < out[j].Onset })
	return out
}

// Duration is the latest offset in notes.
func Duration(notes []Note) float64 {
	var d float64
	for _, n := range notes {
		if n.Offset > d {
			d = n.Offset
		}
	}
	return d
}
