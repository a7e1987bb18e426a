package runs

import (
	"context"
	"time"
)

// Record is the outcome of one import run. Written best-effort by the
// trigger surfaces; a failure to record never fails the run itself.
type Record struct {
	Id         uint64
	StartedAt  time.Time
	FinishedAt time.Time
	Added      int
	Error      string
}

type Repository interface {
	Save(ctx context.Context, rec *Record) error
	Recent(ctx context.Context, limit uint) ([]*Record, error)
}
