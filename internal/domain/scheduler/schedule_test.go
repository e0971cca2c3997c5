package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/target/repeater/internal/domain/model"
)

func jobWithLastRun(freq int, last *time.Time) *model.JobSpec {
	return &model.JobSpec{Name: "job", FrequencyHours: freq, LastRun: last}
}

func TestIsDue(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		ts := now.Add(-d)
		return &ts
	}

	tests := []struct {
		name string
		job  *model.JobSpec
		want bool
	}{
		{"never ran", jobWithLastRun(24, nil), true},
		{"interval exactly elapsed", jobWithLastRun(24, at(24*time.Hour)), true},
		{"one second short", jobWithLastRun(24, at(24*time.Hour-time.Second)), false},
		{"long overdue", jobWithLastRun(1, at(72*time.Hour)), true},
		{"just ran", jobWithLastRun(1, at(0)), false},
		{"last run in the future", jobWithLastRun(1, at(-time.Hour)), false},
		{"nil job", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDue(tt.job, now))
		})
	}
}

func TestIsDue_Deterministic(t *testing.T) {
	last := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	job := jobWithLastRun(24, &last)
	now := last.Add(24 * time.Hour)

	for range 10 {
		assert.True(t, IsDue(job, now))
	}
}

func TestNextDue(t *testing.T) {
	_, ok := NextDue(jobWithLastRun(4, nil))
	assert.False(t, ok)

	last := time.Date(2026, 10, 19, 1, 0, 0, 0, time.UTC)
	next, ok := NextDue(jobWithLastRun(4, &last))
	assert.True(t, ok)
	assert.Equal(t, last.Add(4*time.Hour), next)
}
