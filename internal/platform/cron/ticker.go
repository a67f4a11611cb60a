// Package cron runs a job on a fixed interval inside the process.
package cron

import (
	"context"
	"log/slog"
	"time"
)

// Job is one scheduled invocation. It runs synchronously, so two invocations
// of the same Runner never overlap.
type Job func(ctx context.Context, now time.Time)

// Runner ticks a Job until its context is cancelled.
type Runner struct {
	interval time.Duration
	job      Job
	logger   *slog.Logger
	now      func() time.Time
}

// NewRunner creates a Runner firing job every interval.
func NewRunner(interval time.Duration, job Job, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{interval: interval, job: job, logger: logger, now: time.Now}
}

// Run kicks off the job immediately and then on every tick. Ticks that fire
// while a job is still running are dropped by the ticker. Run returns nil on
// cancellation.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	r.logger.Info("starting periodic sync", slog.Duration("interval", r.interval))

	r.fire(ctx)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("periodic sync stopped")
			return nil
		case <-ticker.C:
			r.fire(ctx)
		}
	}
}

func (r *Runner) fire(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("periodic sync job panicked", slog.Any("panic", rec))
		}
	}()
	r.job(ctx, r.now())
}
