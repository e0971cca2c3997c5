package model

import "time"

// OutcomeStatus is the per-cycle result of one job.
type OutcomeStatus string

// Stage is the last state a job reached in a cycle.
type Stage string

const (
	// OutcomeSucceeded means the payload was delivered.
	OutcomeSucceeded OutcomeStatus = "succeeded"
	// OutcomeSkippedNotDue means the job's interval has not elapsed.
	OutcomeSkippedNotDue OutcomeStatus = "skipped_not_due"
	// OutcomeSkippedNoData means the source could not be resolved or fetched.
	OutcomeSkippedNoData OutcomeStatus = "skipped_no_data"
	// OutcomeFailed means the job was misconfigured or failed after fetching.
	OutcomeFailed OutcomeStatus = "failed"
)

// Pipeline stages, in order. Failure stages are terminal for the cycle.
const (
	StagePending         Stage = "pending"
	StageNotDue          Stage = "not_due"
	StageFetching        Stage = "fetching"
	StageFetchFailed     Stage = "fetch_failed"
	StageFetched         Stage = "fetched"
	StageTransforming    Stage = "transforming"
	StageTransformFailed Stage = "transform_failed"
	StageTransformed     Stage = "transformed"
	StageDelivering      Stage = "delivering"
	StageDeliverFailed   Stage = "deliver_failed"
	StageDelivered       Stage = "delivered"
	// StageUnsupported marks jobs rejected before fetching because of their configuration.
	StageUnsupported Stage = "unsupported"
)

// JobOutcome is the result of processing one job in a cycle.
type JobOutcome struct {
	Job            *JobSpec
	Status         OutcomeStatus
	Stage          Stage
	UpdatedLastRun *time.Time
	Duration       time.Duration
	Err            error
}

// Delivered reports whether the job advanced its schedule.
func (o JobOutcome) Delivered() bool {
	return o.Status == OutcomeSucceeded
}

// RunSummary describes one full run cycle.
type RunSummary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []JobOutcome
}

// Counts tallies outcomes by status.
func (s *RunSummary) Counts() map[OutcomeStatus]int {
	counts := make(map[OutcomeStatus]int, 4)
	for _, o := range s.Outcomes {
		counts[o.Status]++
	}
	return counts
}
