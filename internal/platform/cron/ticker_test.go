package cron_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/ledger_sync/internal/platform/cron"
)

func TestRunnerFiresImmediatelyAndOnTicks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	r := cron.NewRunner(10*time.Millisecond, func(context.Context, time.Time) {
		if calls.Add(1) >= 3 {
			cancel()
		}
	}, nil)

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop")
	}
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestRunnerNeverOverlaps(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var running, maxRunning, calls atomic.Int32
	r := cron.NewRunner(time.Millisecond, func(context.Context, time.Time) {
		cur := running.Add(1)
		for {
			prev := maxRunning.Load()
			if cur <= prev || maxRunning.CompareAndSwap(prev, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		if calls.Add(1) >= 4 {
			cancel()
		}
	}, nil)

	require.NoError(t, r.Run(ctx))
	assert.Equal(t, int32(1), maxRunning.Load())
}

func TestRunnerSurvivesPanickingJob(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	r := cron.NewRunner(time.Millisecond, func(context.Context, time.Time) {
		if calls.Add(1) == 1 {
			panic("boom")
		}
		cancel()
	}, nil)

	require.NoError(t, r.Run(ctx))
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
}
