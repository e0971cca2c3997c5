package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/repeater/internal/domain/model"
	apperrors "github.com/target/repeater/internal/errors"
	"github.com/target/repeater/internal/observability/statsd"
)

func testJob() *model.JobSpec {
	return &model.JobSpec{Name: "hosts", Source: model.SourceView, Destination: model.DestinationFile}
}

func TestEmitJobOutcome_Success(t *testing.T) {
	var rec statsd.Recorder
	EmitJobOutcome(&rec, model.JobOutcome{
		Job:      testJob(),
		Status:   model.OutcomeSucceeded,
		Stage:    model.StageDelivered,
		Duration: 250 * time.Millisecond,
	})

	counts := rec.Named(JobOutcomeMetric)
	require.Len(t, counts, 1)
	assert.Equal(t, map[string]string{
		"job": "hosts", "source": "view", "destination": "file",
		"status": "succeeded", "stage": "delivered",
	}, counts[0].Tags)

	timings := rec.Named(JobDurationMetric)
	require.Len(t, timings, 1)
	assert.Equal(t, float64(250), timings[0].Value)
}

func TestEmitJobOutcome_FailureTagsErrorClass(t *testing.T) {
	var rec statsd.Recorder
	EmitJobOutcome(&rec, model.JobOutcome{
		Job:    testJob(),
		Status: model.OutcomeSkippedNoData,
		Stage:  model.StageFetchFailed,
		Err:    apperrors.NotFoundf("view %q not found", "x"),
	})

	counts := rec.Named(JobOutcomeMetric)
	require.Len(t, counts, 1)
	assert.Equal(t, "lookup_not_found", counts[0].Tags["error_class"])
	assert.Empty(t, rec.Named(JobDurationMetric))
}

func TestEmitJobOutcome_NotDueHasNoTiming(t *testing.T) {
	var rec statsd.Recorder
	EmitJobOutcome(&rec, model.JobOutcome{Job: testJob(), Status: model.OutcomeSkippedNotDue, Duration: time.Millisecond})
	assert.Len(t, rec.Named(JobOutcomeMetric), 1)
	assert.Empty(t, rec.Named(JobDurationMetric))

	EmitJobOutcome(nil, model.JobOutcome{Job: testJob()})
	EmitJobOutcome(&rec, model.JobOutcome{})
	assert.Len(t, rec.Metrics(), 1)
}

func TestEmitCycle(t *testing.T) {
	var rec statsd.Recorder
	start := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	summary := &model.RunSummary{
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		Outcomes: []model.JobOutcome{
			{Status: model.OutcomeSucceeded},
			{Status: model.OutcomeSucceeded},
			{Status: model.OutcomeFailed},
		},
	}
	EmitCycle(&rec, summary, nil)

	runs := rec.Named(CycleRunMetric)
	require.Len(t, runs, 1)
	assert.Equal(t, "ok", runs[0].Tags["result"])

	byStatus := map[string]float64{}
	for _, m := range rec.Named(CycleJobsMetric) {
		byStatus[m.Tags["status"]] = m.Value
	}
	assert.Equal(t, map[string]float64{"succeeded": 2, "failed": 1}, byStatus)
	assert.Equal(t, float64(1500), rec.Named(CycleDurationGauge)[0].Value)
}

func TestEmitCycle_Fatal(t *testing.T) {
	var rec statsd.Recorder
	EmitCycle(&rec, nil, apperrors.Wrap(errors.New("disk"), apperrors.ErrCodeStorage, "save"))

	runs := rec.Named(CycleRunMetric)
	require.Len(t, runs, 1)
	assert.Equal(t, "fatal", runs[0].Tags["result"])
	assert.Equal(t, "storage", runs[0].Tags["error_class"])
}

func TestCloneTags(t *testing.T) {
	assert.Nil(t, CloneTags(nil))
	src := map[string]string{"a": "1"}
	cp := CloneTags(src)
	cp["a"] = "2"
	assert.Equal(t, "1", src["a"])
}
