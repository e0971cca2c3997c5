// Package scheduler provides adapters for running export cycles on an interval.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/target/repeater/internal/domain/model"
	"github.com/target/repeater/internal/observability/statsd"
)

// LastSuccessGauge records the unix time of the last cycle that saved the job store.
const LastSuccessGauge = "export_runner.last_success_epoch"

// CycleRunner runs one pass over the job store.
type CycleRunner interface {
	RunCycle(ctx context.Context) (*model.RunSummary, error)
}

// Runner repeats export cycles on a fixed interval.
type Runner struct {
	cycles   CycleRunner
	interval time.Duration
	logger   *slog.Logger
	metrics  statsd.Sink
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	Cycles CycleRunner
	// Interval between cycles. Zero runs a single cycle.
	Interval time.Duration
	Logger   *slog.Logger
	Metrics  statsd.Sink
}

// NewRunner creates a new cycle runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if err := validateRunnerOptions(&opts); err != nil {
		return nil, err
	}

	return &Runner{
		cycles:   opts.Cycles,
		interval: opts.Interval,
		logger:   opts.Logger.With("component", "scheduler"),
		metrics:  opts.Metrics,
	}, nil
}

func validateRunnerOptions(opts *RunnerOptions) error {
	if opts.Cycles == nil {
		return errors.New("cycle runner is required")
	}
	if opts.Interval < 0 {
		return errors.New("interval must not be negative")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return nil
}

// Run executes a cycle immediately. With a zero interval it returns that cycle's fatal
// error; otherwise it keeps running a cycle per tick until ctx is cancelled, logging
// fatal cycle errors and carrying on.
func (r *Runner) Run(ctx context.Context) error {
	if r.interval == 0 {
		return r.runOnce(ctx)
	}

	r.logger.InfoContext(ctx, "starting export runner", "interval", r.interval)
	if err := r.runOnce(ctx); err != nil {
		r.logger.ErrorContext(ctx, "export cycle failed", "error", err)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "export runner stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			if err := r.runOnce(ctx); err != nil {
				r.logger.ErrorContext(ctx, "export cycle failed", "error", err)
			}
		}
	}
}

func (r *Runner) runOnce(ctx context.Context) error {
	if _, err := r.cycles.RunCycle(ctx); err != nil {
		return err
	}
	if r.metrics != nil {
		r.metrics.Gauge(LastSuccessGauge, float64(time.Now().Unix()), nil)
	}
	return nil
}
