package align

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// chord returns one event per label at onset t.
func chord(t float64, labels ...int) []Event {
	out := make([]Event, 0, len(labels))
	for _, l := range labels {
		out = append(out, Event{Onset: t, Offset: t + 0.25, Label: l})
	}
	return out
}

// piece is a regular stream of three-note chords every 0.5s. Each voice lives
// in its own label range and the pattern repeats every 20 chords.
func piece(n int, warp func(float64) float64) []Event {
	var out []Event
	for i := 0; i < n; i++ {
		t := warp(0.5 * float64(i))
		out = append(out, chord(t, 30+(3*i)%20, 60+(7*i)%20, 90+(11*i)%20)...)
	}
	return out
}

func identity(t float64) float64 { return t }

func observed() (*zap.SugaredLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core).Sugar(), logs
}

func mustAligner(p Params) *Aligner {
	a, err := NewAligner(p, nil)
	if err != nil {
		panic(err)
	}
	return a
}
