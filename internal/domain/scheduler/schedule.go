// Package scheduler decides when export jobs are due.
package scheduler

import (
	"time"

	"github.com/target/repeater/internal/domain/model"
)

// IsDue reports whether a job should run at now.
// A job that never ran is due; otherwise it is due once its interval has fully elapsed.
func IsDue(job *model.JobSpec, now time.Time) bool {
	if job == nil {
		return false
	}
	if job.LastRun == nil {
		return true
	}
	return !job.LastRun.Add(Interval(job)).After(now)
}

// NextDue returns the time a job becomes due. ok is false when the job never ran.
func NextDue(job *model.JobSpec) (next time.Time, ok bool) {
	if job == nil || job.LastRun == nil {
		return time.Time{}, false
	}
	return job.LastRun.Add(Interval(job)), true
}

// Interval returns the job's configured frequency as a duration.
func Interval(job *model.JobSpec) time.Duration {
	return time.Duration(job.FrequencyHours) * time.Hour
}
