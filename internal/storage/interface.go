// Package storage defines the run store used to persist alignment runs.
package storage

import (
	"context"
	"errors"

	"github.com/chrissnell/notealign/internal/types"
)

// ErrRunNotFound is returned by GetRun for an unknown ID.
var ErrRunNotFound = errors.New("storage: run not found")

// DefaultListLimit is used when ListRuns is called with a non-positive limit.
const DefaultListLimit = 50

// RunStore persists alignment runs. ListRuns returns the newest runs first and
// leaves Anchors and Segments empty; GetRun loads everything.
type RunStore interface {
	SaveRun(ctx context.Context, run *types.Run) error
	GetRun(ctx context.Context, id string) (*types.Run, error)
	ListRuns(ctx context.Context, limit int) ([]types.Run, error)
	Close() error
}
