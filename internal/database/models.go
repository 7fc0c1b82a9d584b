package database

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/chrissnell/notealign/internal/align"
	"github.com/chrissnell/notealign/internal/overlap"
	"github.com/chrissnell/notealign/internal/types"
)

// RunRow is one alignment run. Parameter, drift and overlap blobs are stored as
// JSON text.
type RunRow struct {
	ID            string    `gorm:"primaryKey;column:id"`
	CreatedAt     time.Time `gorm:"column:created_at;not null;index"`
	Name          string    `gorm:"column:name"`
	ReferencePath string    `gorm:"column:reference_path"`
	DerivedPath   string    `gorm:"column:derived_path"`
	Status        string    `gorm:"column:status;not null"`
	Error         string    `gorm:"column:error"`
	Params        string    `gorm:"column:params;type:text"`
	Drift         string    `gorm:"column:drift;type:text"`
	Overlap       string    `gorm:"column:overlap;type:text"`
	EventCount    int       `gorm:"column:event_count"`
}

// TableName specifies the table name for RunRow
func (RunRow) TableName() string {
	return "runs"
}

// AnchorRow is one anchor of a run, ordered by Seq.
type AnchorRow struct {
	RunID       string  `gorm:"primaryKey;column:run_id"`
	Seq         int     `gorm:"primaryKey;column:seq"`
	Kind        string  `gorm:"column:kind;not null"`
	GTTime      float64 `gorm:"column:gt_time"`
	GTLabels    string  `gorm:"column:gt_labels"`
	DerivedTime float64 `gorm:"column:derived_time"`
	Confidence  float64 `gorm:"column:confidence"`
}

// TableName specifies the table name for AnchorRow
func (AnchorRow) TableName() string {
	return "anchors"
}

// SegmentRow is one affine segment of a run, ordered by Seq.
type SegmentRow struct {
	RunID      string  `gorm:"primaryKey;column:run_id"`
	Seq        int     `gorm:"primaryKey;column:seq"`
	GTStart    float64 `gorm:"column:gt_start"`
	GTEnd      float64 `gorm:"column:gt_end"`
	A          float64 `gorm:"column:a"`
	B          float64 `gorm:"column:b"`
	Degenerate bool    `gorm:"column:degenerate"`
}

// TableName specifies the table name for SegmentRow
func (SegmentRow) TableName() string {
	return "segments"
}

// RowsFromRun flattens a run into its table rows.
func RowsFromRun(r *types.Run) (RunRow, []AnchorRow, []SegmentRow, error) {
	params, err := json.Marshal(r.Params)
	if err != nil {
		return RunRow{}, nil, nil, fmt.Errorf("encoding params: %w", err)
	}
	drift, err := json.Marshal(r.Drift)
	if err != nil {
		return RunRow{}, nil, nil, fmt.Errorf("encoding drift: %w", err)
	}
	var ov string
	if r.Overlap != nil {
		b, err := json.Marshal(r.Overlap)
		if err != nil {
			return RunRow{}, nil, nil, fmt.Errorf("encoding overlap: %w", err)
		}
		ov = string(b)
	}

	run := RunRow{
		ID:            r.ID,
		CreatedAt:     r.CreatedAt.UTC(),
		Name:          r.Name,
		ReferencePath: r.ReferencePath,
		DerivedPath:   r.DerivedPath,
		Status:        string(r.Status),
		Error:         r.Error,
		Params:        string(params),
		Drift:         string(drift),
		Overlap:       ov,
		EventCount:    r.EventCount,
	}

	anchors := make([]AnchorRow, len(r.Anchors))
	for i, a := range r.Anchors {
		labels, err := json.Marshal(a.GTLabels)
		if err != nil {
			return RunRow{}, nil, nil, fmt.Errorf("encoding anchor labels: %w", err)
		}
		anchors[i] = AnchorRow{
			RunID:       r.ID,
			Seq:         i,
			Kind:        string(a.Kind),
			GTTime:      a.GTTime,
			GTLabels:    string(labels),
			DerivedTime: a.DerivedTime,
			Confidence:  a.Confidence,
		}
	}

	segs := make([]SegmentRow, len(r.Segments))
	for i, s := range r.Segments {
		segs[i] = SegmentRow{
			RunID:      r.ID,
			Seq:        i,
			GTStart:    s.GTStart,
			GTEnd:      s.GTEnd,
			A:          s.A,
			B:          s.B,
			Degenerate: s.Degenerate,
		}
	}
	return run, anchors, segs, nil
}

// ToRun rebuilds a run. anchors and segs must already be in Seq order.
func (row RunRow) ToRun(anchors []AnchorRow, segs []SegmentRow) (*types.Run, error) {
	r := &types.Run{
		ID:            row.ID,
		CreatedAt:     row.CreatedAt.UTC(),
		Name:          row.Name,
		ReferencePath: row.ReferencePath,
		DerivedPath:   row.DerivedPath,
		Status:        types.RunStatus(row.Status),
		Error:         row.Error,
		EventCount:    row.EventCount,
	}
	if row.Params != "" {
		if err := json.Unmarshal([]byte(row.Params), &r.Params); err != nil {
			return nil, fmt.Errorf("decoding params of run %s: %w", row.ID, err)
		}
	}
	if row.Drift != "" {
		if err := json.Unmarshal([]byte(row.Drift), &r.Drift); err != nil {
			return nil, fmt.Errorf("decoding drift of run %s: %w", row.ID, err)
		}
	}
	if row.Overlap != "" {
		r.Overlap = &overlap.Summary{}
		if err := json.Unmarshal([]byte(row.Overlap), r.Overlap); err != nil {
			return nil, fmt.Errorf("decoding overlap of run %s: %w", row.ID, err)
		}
	}

	for _, a := range anchors {
		var labels align.LabelSet
		if a.GTLabels != "" {
			if err := json.Unmarshal([]byte(a.GTLabels), &labels); err != nil {
				return nil, fmt.Errorf("decoding anchor %d of run %s: %w", a.Seq, row.ID, err)
			}
		}
		r.Anchors = append(r.Anchors, align.Anchor{
			Kind:        align.AnchorKind(a.Kind),
			GTTime:      a.GTTime,
			GTLabels:    labels,
			DerivedTime: a.DerivedTime,
			Confidence:  a.Confidence,
		})
	}
	for _, s := range segs {
		r.Segments = append(r.Segments, align.Segment{
			GTStart:    s.GTStart,
			GTEnd:      s.GTEnd,
			A:          s.A,
			B:          s.B,
			Degenerate: s.Degenerate,
		})
	}
	return r, nil
}
