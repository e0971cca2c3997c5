// Package service provides the export job runner and its orchestration logic.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/target/repeater/internal/core"
	"github.com/target/repeater/internal/domain/export"
	"github.com/target/repeater/internal/domain/model"
	"github.com/target/repeater/internal/domain/scheduler"
	"github.com/target/repeater/internal/domain/transform"
	apperrors "github.com/target/repeater/internal/errors"
	obserrors "github.com/target/repeater/internal/observability/errors"
	"github.com/target/repeater/internal/observability/metrics"
	"github.com/target/repeater/internal/observability/notify"
	"github.com/target/repeater/internal/observability/statsd"
)

// FailureNotifier receives failed job outcomes.
type FailureNotifier interface {
	NotifyJobFailure(ctx context.Context, payload notify.JobFailurePayload)
}

// JobRunnerOptions holds the dependencies for creating a JobRunner.
type JobRunnerOptions struct {
	Store       core.JobStore          // Required
	Source      core.DataSourceClient  // Required
	Destination core.Destination       // Required: usually a destination.Router
	Transformer *transform.Transformer // Optional: defaults to the ci_item primary table
	Clock       core.Clock             // Optional: defaults to wall clock
	Observers   RunnerObservers
	Logger      *slog.Logger
}

// RunnerObservers groups the optional outcome observers.
type RunnerObservers struct {
	Metrics  statsd.Sink
	Notifier FailureNotifier
}

// JobRunner executes one pass over the job store.
type JobRunner struct {
	store       core.JobStore
	source      core.DataSourceClient
	destination core.Destination
	transformer *transform.Transformer
	clock       core.Clock
	metrics     statsd.Sink
	notifier    FailureNotifier
	logger      *slog.Logger
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// NewJobRunner creates a JobRunner. It panics when a required dependency is missing.
func NewJobRunner(opts JobRunnerOptions) *JobRunner {
	if opts.Store == nil {
		panic("service: JobRunner requires a job store")
	}
	if opts.Source == nil {
		panic("service: JobRunner requires a data source client")
	}
	if opts.Destination == nil {
		panic("service: JobRunner requires a destination")
	}
	if opts.Transformer == nil {
		opts.Transformer = transform.New(transform.Options{})
	}
	if opts.Clock == nil {
		opts.Clock = wallClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &JobRunner{
		store:       opts.Store,
		source:      opts.Source,
		destination: opts.Destination,
		transformer: opts.Transformer,
		clock:       opts.Clock,
		metrics:     opts.Observers.Metrics,
		notifier:    opts.Observers.Notifier,
		logger:      opts.Logger.With("component", "job_runner"),
	}
}

// RunCycle loads every job, runs the due ones in store order, and saves the store once.
//
// Only a store load or save failure is returned; per-job failures are reported in the
// summary and never abort the cycle.
func (r *JobRunner) RunCycle(ctx context.Context) (*model.RunSummary, error) {
	summary := &model.RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: r.clock.Now(),
	}
	logger := r.logger.With("run_id", summary.RunID)

	jobs, err := r.store.Load(ctx)
	if err != nil {
		err = fmt.Errorf("load job store: %w", err)
		logger.ErrorContext(ctx, "cycle aborted", "error", err, "error_code", string(apperrors.GetCode(err)))
		metrics.EmitCycle(r.metrics, nil, err)
		return nil, err
	}
	logger.InfoContext(ctx, "cycle started", "jobs", len(jobs))

	summary.Outcomes = make([]model.JobOutcome, 0, len(jobs))
	for _, job := range jobs {
		var outcome model.JobOutcome
		if ctxErr := ctx.Err(); ctxErr != nil {
			outcome = model.JobOutcome{
				Job:    job,
				Status: model.OutcomeFailed,
				Stage:  model.StagePending,
				Err:    apperrors.Wrap(ctxErr, apperrors.ErrCodeCanceled, "cycle canceled"),
			}
		} else {
			outcome = r.RunJob(ctx, job)
		}
		summary.Outcomes = append(summary.Outcomes, outcome)
		r.observe(ctx, logger, summary.RunID, outcome)
	}

	// Persist even after cancellation so delivered jobs keep their new last run.
	if err := r.store.Save(context.WithoutCancel(ctx), jobs); err != nil {
		err = fmt.Errorf("save job store: %w", err)
		summary.FinishedAt = r.clock.Now()
		logger.ErrorContext(ctx, "cycle aborted", "error", err, "error_code", string(apperrors.GetCode(err)))
		metrics.EmitCycle(r.metrics, summary, err)
		return summary, err
	}

	summary.FinishedAt = r.clock.Now()
	counts := summary.Counts()
	logger.InfoContext(ctx, "cycle finished",
		"succeeded", counts[model.OutcomeSucceeded],
		"skipped_not_due", counts[model.OutcomeSkippedNotDue],
		"skipped_no_data", counts[model.OutcomeSkippedNoData],
		"failed", counts[model.OutcomeFailed],
	)
	metrics.EmitCycle(r.metrics, summary, nil)
	return summary, nil
}

// RunJob runs the pipeline for a single job. Only a delivered job has its LastRun updated.
func (r *JobRunner) RunJob(ctx context.Context, job *model.JobSpec) (out model.JobOutcome) {
	out = model.JobOutcome{Job: job, Stage: model.StagePending}
	start := time.Now()
	defer func() {
		out.Duration = time.Since(start)
		if rec := recover(); rec != nil {
			out.Status = model.OutcomeFailed
			out.Stage = failedStage(out.Stage)
			out.Err = apperrors.Newf(apperrors.ErrCodeInternal, "job panicked: %v", rec)
		}
	}()

	if job == nil {
		return fail(out, model.StageUnsupported, apperrors.New(apperrors.ErrCodeInternal, "nil job"))
	}
	if err := job.Supported(); err != nil {
		return fail(out, model.StageUnsupported, err)
	}
	if err := job.Validate(); err != nil {
		return fail(out, model.StageUnsupported, err)
	}

	now := r.clock.Now()
	if !scheduler.IsDue(job, now) {
		out.Status = model.OutcomeSkippedNotDue
		out.Stage = model.StageNotDue
		return out
	}

	out.Stage = model.StageFetching
	ds, err := core.Fetch(ctx, r.source, job)
	if err != nil {
		out = fail(out, model.StageFetchFailed, err)
		if apperrors.IsLookupNotFound(err) || apperrors.IsTransport(err) {
			out.Status = model.OutcomeSkippedNoData
		}
		return out
	}
	out.Stage = model.StageFetched

	payload := core.Payload{Raw: ds}
	if job.Destination != model.DestinationLogIngestion {
		out.Stage = model.StageTransforming
		tab, err := r.transformer.Transform(job, ds)
		if err != nil {
			return fail(out, model.StageTransformFailed, err)
		}
		data, err := export.Serialize(job, tab, ds)
		if err != nil {
			return fail(out, model.StageTransformFailed, err)
		}
		payload.Data = data
		out.Stage = model.StageTransformed
	}

	out.Stage = model.StageDelivering
	if err := r.destination.Deliver(ctx, job, payload); err != nil {
		return fail(out, model.StageDeliverFailed, err)
	}

	job.MarkRun(now)
	out.Status = model.OutcomeSucceeded
	out.Stage = model.StageDelivered
	out.UpdatedLastRun = job.LastRun
	return out
}

func fail(out model.JobOutcome, stage model.Stage, err error) model.JobOutcome {
	out.Status = model.OutcomeFailed
	out.Stage = stage
	out.Err = err
	return out
}

// failedStage maps an in-progress stage to the failure stage a panic leaves it in.
func failedStage(stage model.Stage) model.Stage {
	switch stage {
	case model.StageFetching:
		return model.StageFetchFailed
	case model.StageFetched, model.StageTransforming:
		return model.StageTransformFailed
	case model.StageTransformed, model.StageDelivering:
		return model.StageDeliverFailed
	default:
		return stage
	}
}

func (r *JobRunner) observe(ctx context.Context, logger *slog.Logger, runID string, o model.JobOutcome) {
	metrics.EmitJobOutcome(r.metrics, o)

	attrs := []any{
		"status", string(o.Status),
		"stage", string(o.Stage),
	}
	if o.Job != nil {
		attrs = append(attrs,
			"job", o.Job.Name,
			"component", o.Job.ComponentName,
			"destination", string(o.Job.Destination),
		)
	}

	switch o.Status {
	case model.OutcomeSucceeded:
		logger.InfoContext(ctx, "job delivered", append(attrs, "duration", o.Duration)...)
	case model.OutcomeSkippedNotDue:
		logger.DebugContext(ctx, "job not due", attrs...)
	default:
		logger.WarnContext(ctx, "job did not complete",
			append(attrs, "error", o.Err, "error_code", string(apperrors.GetCode(o.Err)))...)
		r.notify(ctx, runID, o)
	}
}

func (r *JobRunner) notify(ctx context.Context, runID string, o model.JobOutcome) {
	if r.notifier == nil || o.Job == nil {
		return
	}

	severity := notify.SeverityCritical
	if o.Status == model.OutcomeSkippedNoData {
		severity = notify.SeverityWarning
	}
	payload := notify.JobFailurePayload{
		JobName:     o.Job.Name,
		Source:      fmt.Sprintf("%s %s", o.Job.Source, o.Job.ComponentName),
		Destination: string(o.Job.Destination),
		Stage:       string(o.Stage),
		RunID:       runID,
		Severity:    severity,
		OccurredAt:  r.clock.Now(),
	}
	if o.Err != nil {
		payload.Error = o.Err.Error()
		payload.ErrorClass = obserrors.Classify(o.Err)
	}
	if loc := o.Job.OutputPath; loc != "" {
		payload.Metadata = map[string]string{"output_path": loc}
	}
	r.notifier.NotifyJobFailure(ctx, payload)
}
