package align

import (
	"reflect"
	"testing"
)

func TestNewLabelSet(t *testing.T) {
	tests := []struct {
		name string
		in   []int
		want LabelSet
	}{
		{"empty", nil, nil},
		{"sorted", []int{60, 64, 67}, LabelSet{60, 64, 67}},
		{"unsorted with duplicates", []int{67, 60, 64, 60}, LabelSet{60, 64, 67}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewLabelSet(tt.in...); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NewLabelSet(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDistinctTimes(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		eps    float64
		want   []float64
	}{
		{"empty", nil, 0.01, nil},
		{"cluster keeps first", []float64{1.0, 1.004, 1.009, 2.0}, 0.01, []float64{1.0, 2.0}},
		{"exact match with zero eps", []float64{1.0, 1.0, 1.001}, 0, []float64{1.0, 1.001}},
		{"gap at tolerance splits", []float64{0, 0.01}, 0.01, []float64{0, 0.01}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistinctTimes(tt.sorted, tt.eps)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DistinctTimes() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLabelsAt(t *testing.T) {
	events := []Event{
		{Onset: 0.0, Label: 64},
		{Onset: 0.005, Label: 60},
		{Onset: 0.5, Label: 72},
		{Onset: 0.5, Label: 9},
		{Onset: 1.0, Label: 67},
	}
	g := NewGrouping(events, 0.01, []int{9})

	tests := []struct {
		t    float64
		want LabelSet
	}{
		{0.0, LabelSet{60, 64}},
		{0.5, LabelSet{72}},
		{0.75, nil},
		{1.0, LabelSet{67}},
	}
	for _, tt := range tests {
		if got := g.LabelsAt(tt.t); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("LabelsAt(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}

	if g.Len() != 3 {
		t.Errorf("Len() = %d, want 3", g.Len())
	}
	if g.MaxOnset() != 1.0 {
		t.Errorf("MaxOnset() = %v, want 1.0", g.MaxOnset())
	}
}

func TestGroupingIdempotent(t *testing.T) {
	events := []Event{
		{Onset: 2.0, Label: 62},
		{Onset: 0.0, Label: 60},
		{Onset: 0.004, Label: 64},
		{Onset: 1.0, Label: 65},
		{Onset: 1.003, Label: 65},
	}
	first := NewGrouping(events, 0.01, nil).Groups()

	var rebuilt []Event
	for _, g := range first {
		rebuilt = append(rebuilt, chord(g.Time, g.Labels...)...)
	}
	second := NewGrouping(rebuilt, 0.01, nil).Groups()

	if !reflect.DeepEqual(first, second) {
		t.Errorf("regrouping changed groups:\n first: %v\nsecond: %v", first, second)
	}
}

func TestSequence(t *testing.T) {
	var events []Event
	for i, tm := range []float64{0, 1, 2, 3, 20, 21} {
		events = append(events, Event{Onset: tm, Label: 60 + i})
	}
	events = append(events, Event{Onset: 1.5, Label: 9})
	g := NewGrouping(events, 0.01, []int{9})

	seq := g.Sequence(0.5, 5, 10)
	want := []float64{1, 2, 3}
	if len(seq) != len(want) {
		t.Fatalf("Sequence() returned %d groups, want %d", len(seq), len(want))
	}
	for i, gr := range seq {
		if gr.Time != want[i] {
			t.Errorf("seq[%d].Time = %v, want %v", i, gr.Time, want[i])
		}
	}

	if got := g.Sequence(0, 2, 10); len(got) != 2 {
		t.Errorf("maxGroups not honoured: got %d groups", len(got))
	}
}
