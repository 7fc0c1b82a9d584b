// Package overlap measures how well an aligned reference stream lines up with
// the derived stream, note by note and pitch by pitch.
package overlap

import (
	"encoding/csv"
	"io"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/floats"

	"github.com/chrissnell/notealign/internal/notes"
)

// Kind says which streams sound during a span.
type Kind string

const (
	Both          Kind = "both"
	ReferenceOnly Kind = "reference_only"
	DerivedOnly   Kind = "derived_only"
)

// Span is one elementary piece of a pitch's timeline.
type Span struct {
	Label int     `json:"label"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Kind  Kind    `json:"kind"`
}

// Options restricts and tunes a comparison.
type Options struct {
	// Tolerance is how much a note must overlap a span, in seconds, to count
	// as sounding in it.
	Tolerance float64  `json:"tolerance"`
	Start     *float64 `json:"start,omitempty"`
	End       *float64 `json:"end,omitempty"`
}

// Summary totals span durations by kind. Precision is the share of the
// reference's sounding time confirmed by the derived stream; Recall is the
// share of the derived stream's sounding time covered by the reference.
type Summary struct {
	Both          float64 `json:"both"`
	ReferenceOnly float64 `json:"reference_only"`
	DerivedOnly   float64 `json:"derived_only"`
	Precision     float64 `json:"precision"`
	Recall        float64 `json:"recall"`
	F1            float64 `json:"f1"`
	Labels        int     `json:"labels"`
}

// Report is the outcome of Compare.
type Report struct {
	Summary Summary `json:"summary"`
	Spans   []Span  `json:"spans"`
}

type interval struct{ start, end float64 }

// Compare splits each pitch's timeline at every note boundary from either
// stream and classifies the resulting spans.
func Compare(reference, derived []notes.Note, opts Options) Report {
	reference = notes.Window(reference, opts.Start, opts.End)
	derived = notes.Window(derived, opts.Start, opts.End)

	ref := byLabel(reference)
	der := byLabel(derived)

	labels := make([]int, 0, len(ref)+len(der))
	for l := range ref {
		labels = append(labels, l)
	}
	for l := range der {
		if _, ok := ref[l]; !ok {
			labels = append(labels, l)
		}
	}
	sort.Ints(labels)

	var spans []Span
	for _, l := range labels {
		spans = append(spans, split(l, ref[l], der[l], opts)...)
	}

	return Report{Summary: summarize(spans, len(labels)), Spans: spans}
}

func byLabel(ns []notes.Note) map[int][]interval {
	out := map[int][]interval{}
	for _, n := range ns {
		out[n.Pitch] = append(out[n.Pitch], interval{n.Onset, n.Offset})
	}
	return out
}

func split(label int, a, b []interval, opts Options) []Span {
	times := make([]float64, 0, 2*(len(a)+len(b)))
	for _, iv := range append(append([]interval(nil), a...), b...) {
		times = append(times, iv.start, iv.end)
	}
	sort.Float64s(times)

	var out []Span
	for i := 0; i+1 < len(times); i++ {
		s, e := times[i], times[i+1]
		if s == e {
			continue
		}
		inA := covered(s, e, a, opts.Tolerance)
		inB := covered(s, e, b, opts.Tolerance)

		var k Kind
		switch {
		case inA && inB:
			k = Both
		case inA:
			k = ReferenceOnly
		case inB:
			k = DerivedOnly
		default:
			continue
		}

		if opts.Start != nil {
			s = math.Max(s, *opts.Start)
		}
		if opts.End != nil {
			e = math.Min(e, *opts.End)
		}
		if e <= s {
			continue
		}
		out = append(out, Span{Label: label, Start: s, End: e, Kind: k})
	}
	return out
}

func covered(s, e float64, ivs []interval, tol float64) bool {
	for _, iv := range ivs {
		if math.Min(e, iv.end)-math.Max(s, iv.start) > tol {
			return true
		}
	}
	return false
}

func summarize(spans []Span, labels int) Summary {
	durs := map[Kind][]float64{}
	for _, sp := range spans {
		durs[sp.Kind] = append(durs[sp.Kind], sp.End-sp.Start)
	}

	s := Summary{
		Both:          floats.Sum(durs[Both]),
		ReferenceOnly: floats.Sum(durs[ReferenceOnly]),
		DerivedOnly:   floats.Sum(durs[DerivedOnly]),
		Labels:        labels,
	}
	s.Precision = ratio(s.Both, s.Both+s.ReferenceOnly)
	s.Recall = ratio(s.Both, s.Both+s.DerivedOnly)
	s.F1 = ratio(2*s.Precision*s.Recall, s.Precision+s.Recall)
	return s
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// WriteCSV exports spans for an external piano-roll renderer. A positive fps
// writes frame indices instead of seconds.
func WriteCSV(w io.Writer, spans []Span, fps float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"label", "start", "end", "kind"}); err != nil {
		return err
	}
	scale := 1.0
	if fps > 0 {
		scale = fps
	}
	for _, sp := range spans {
		err := cw.Write([]string{
			strconv.Itoa(sp.Label),
			strconv.FormatFloat(sp.Start*scale, 'f', -1, 64),
			strconv.FormatFloat(sp.End*scale, 'f', -1, 64),
			string(sp.Kind),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
