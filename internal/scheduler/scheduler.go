package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bookstore/internal/storage/runs"
)

// ErrAlreadyRunning reports a trigger that arrived while a run was in
// progress; a run either proceeds or is skipped, never queued.
var ErrAlreadyRunning = errors.New("import already running")

// Scheduler invokes the import pipeline on a fixed interval and owns the
// single-flight guard: overlapping invocations are skipped. Run outcomes
// are recorded best-effort when a runs repository is wired.
type Scheduler struct {
	Every   time.Duration
	Trigger func(ctx context.Context) (int, error)
	Runs    runs.Repository
	Logger  *slog.Logger

	mu sync.Mutex
}

// Run blocks until ctx is cancelled, firing the trigger every interval.
// The first import happens one full interval after start.
func (s *Scheduler) Run(ctx context.Context) {
	t := time.NewTicker(s.Every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := s.TriggerNow(ctx); err != nil && !errors.Is(err, ErrAlreadyRunning) {
				s.Logger.Error("Scheduled import failed: " + err.Error())
			}
		}
	}
}

// TriggerNow runs the import immediately, unless one is already in
// progress. It serves both the scheduled tick and the manual admin
// trigger, so the two paths share one guard.
func (s *Scheduler) TriggerNow(ctx context.Context) (int, error) {
	if !s.mu.TryLock() {
		s.Logger.Warn("Skipping import trigger: previous run still in progress")
		return 0, ErrAlreadyRunning
	}
	defer s.mu.Unlock()

	rec := &runs.Record{StartedAt: time.Now()}

	added, err := s.Trigger(ctx)

	rec.FinishedAt = time.Now()
	rec.Added = added
	if err != nil {
		rec.Error = err.Error()
	} else {
		s.Logger.Info(fmt.Sprintf("Import run finished in %s, added %d books",
			rec.FinishedAt.Sub(rec.StartedAt).Round(time.Millisecond), added))
	}

	if s.Runs != nil {
		if saveErr := s.Runs.Save(ctx, rec); saveErr != nil {
			s.Logger.Warn("Failed to record import run: " + saveErr.Error())
		}
	}

	return added, err
}
