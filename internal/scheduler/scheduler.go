package scheduler

import (
	"context"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ordmarket/orderbook-engine/pkg/logger"
	"github.com/ordmarket/orderbook-engine/pkg/logger/slogx"
)

// Job is one unit of repeating work. Key is its stable identity: two
// jobs sharing a key within a tick are duplicates and only the first
// runs. Lower Priority runs earlier.
type Job struct {
	Key      string
	Priority int
	Run      func(ctx context.Context) error
}

// Source supplies the current job set at the start of every tick, so
// jobs registered between ticks are picked up without restarts.
type Source func(ctx context.Context) ([]Job, error)

// Scheduler repeatedly executes the jobs produced by its source, one
// tick per interval. Jobs within a tick run sequentially; a failing
// job is logged and does not stop the tick or the scheduler.
type Scheduler struct {
	interval time.Duration
	source   Source
}

func New(interval time.Duration, source Source) *Scheduler {
	return &Scheduler{
		interval: interval,
		source:   source,
	}
}

// Run blocks until the context is cancelled. The first tick runs
// immediately.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.tick(ctx)
		select {
		case <-ctx.Done():
			return errors.WithStack(ctx.Err())
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	jobs, err := s.source(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load scheduled jobs", slogx.Error(err))
		return
	}

	seen := make(map[string]struct{}, len(jobs))
	unique := jobs[:0]
	for _, job := range jobs {
		if _, dup := seen[job.Key]; dup {
			continue
		}
		seen[job.Key] = struct{}{}
		unique = append(unique, job)
	}
	sort.SliceStable(unique, func(i, j int) bool {
		if unique[i].Priority != unique[j].Priority {
			return unique[i].Priority < unique[j].Priority
		}
		return unique[i].Key < unique[j].Key
	})

	for _, job := range unique {
		if ctx.Err() != nil {
			return
		}
		if err := job.Run(ctx); err != nil {
			logger.ErrorContext(ctx, "scheduled job failed",
				slogx.String("job", job.Key),
				slogx.Error(err),
			)
		}
	}
}
