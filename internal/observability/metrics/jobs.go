// Package metrics emits the export runner's standard metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/target/repeater/internal/domain/model"
	obserrors "github.com/target/repeater/internal/observability/errors"
	"github.com/target/repeater/internal/observability/statsd"
)

// Metric names.
const (
	JobOutcomeMetric   = "export_job.outcome"
	JobDurationMetric  = "export_job.duration"
	CycleRunMetric     = "export_cycle.run"
	CycleJobsMetric    = "export_cycle.jobs"
	CycleDurationGauge = "export_cycle.duration_ms"
)

// EmitJobOutcome emits the outcome counter and, for jobs that ran, the duration timing.
func EmitJobOutcome(sink statsd.Sink, o model.JobOutcome) {
	if sink == nil || o.Job == nil {
		return
	}

	tags := map[string]string{
		"job":         o.Job.Name,
		"source":      string(o.Job.Source),
		"destination": string(o.Job.Destination),
		"status":      string(o.Status),
		"stage":       string(o.Stage),
	}
	if o.Err != nil {
		if class := obserrors.Classify(o.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count(JobOutcomeMetric, 1, tags)

	if o.Duration > 0 && o.Status != model.OutcomeSkippedNotDue {
		sink.Timing(JobDurationMetric, o.Duration, CloneTags(tags))
	}
}

// EmitCycle emits per-cycle counters. fatal marks a cycle aborted by a store failure.
func EmitCycle(sink statsd.Sink, summary *model.RunSummary, fatal error) {
	if sink == nil {
		return
	}

	result := "ok"
	tags := map[string]string{}
	if fatal != nil {
		result = "fatal"
		tags["error_class"] = obserrors.Classify(fatal)
	}
	tags["result"] = result
	sink.Count(CycleRunMetric, 1, tags)

	if summary == nil {
		return
	}
	for status, n := range summary.Counts() {
		sink.Count(CycleJobsMetric, int64(n), map[string]string{"status": string(status)})
	}
	if !summary.FinishedAt.IsZero() {
		elapsed := summary.FinishedAt.Sub(summary.StartedAt)
		sink.Gauge(CycleDurationGauge, float64(elapsed/time.Millisecond), map[string]string{
			"jobs": strconv.Itoa(len(summary.Outcomes)),
		})
	}
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
