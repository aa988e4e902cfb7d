package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runOneTick runs the scheduler until the first tick completes. A
// sentinel job with the lowest possible priority cancels the run after
// every supplied job has executed.
func runOneTick(t *testing.T, source Source) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wrapped := func(ctx context.Context) ([]Job, error) {
		jobs, err := source(ctx)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, Job{
			Key:      "~stop",
			Priority: int(^uint(0) >> 1),
			Run: func(context.Context) error {
				cancel()
				return nil
			},
		})
		return jobs, nil
	}
	err := New(time.Hour, wrapped).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSchedulerRunsJobsInOrder(t *testing.T) {
	var ran []string
	record := func(key string) func(ctx context.Context) error {
		return func(ctx context.Context) error {
			ran = append(ran, key)
			return nil
		}
	}

	runOneTick(t, func(ctx context.Context) ([]Job, error) {
		return []Job{
			{Key: "testnet:b", Priority: 1, Run: record("testnet:b")},
			{Key: "mainnet:b", Priority: 0, Run: record("mainnet:b")},
			{Key: "mainnet:a", Priority: 0, Run: record("mainnet:a")},
		}, nil
	})

	assert.Equal(t, []string{"mainnet:a", "mainnet:b", "testnet:b"}, ran)
}

func TestSchedulerDeduplicatesByKey(t *testing.T) {
	var first, second int
	runOneTick(t, func(ctx context.Context) ([]Job, error) {
		return []Job{
			{Key: "mainnet:a", Run: func(ctx context.Context) error { first++; return nil }},
			{Key: "mainnet:a", Run: func(ctx context.Context) error { second++; return nil }},
		}, nil
	})

	assert.Equal(t, 1, first)
	assert.Equal(t, 0, second)
}

func TestSchedulerContinuesAfterJobFailure(t *testing.T) {
	var ran bool
	runOneTick(t, func(ctx context.Context) ([]Job, error) {
		return []Job{
			{Key: "a", Run: func(ctx context.Context) error { return errors.New("boom") }},
			{Key: "b", Run: func(ctx context.Context) error { ran = true; return nil }},
		}, nil
	})

	assert.True(t, ran)
}

func TestSchedulerSourceFailureIsNotFatal(t *testing.T) {
	calls := 0
	s := New(10*time.Millisecond, func(ctx context.Context) ([]Job, error) {
		calls++
		return nil, errors.New("source down")
	})
	ctx, cancel := context.WithTimeout(context.Background(), 35*time.Millisecond)
	defer cancel()

	err := s.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, calls, 2)
}
