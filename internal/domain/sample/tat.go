package sample

import (
	"time"

	"github.com/lims/lims/pkg/errs"
)

// Breach statuses returned by BreachStatus.
const (
	TATOnTime   = "on_time"
	TATBreached = "breached"
)

// ComputeDeadline returns the turnaround deadline for a sample collected at
// collectedAt with the given panel-wide TAT budget in hours.
func ComputeDeadline(collectedAt time.Time, tatHours int) (time.Time, error) {
	if tatHours <= 0 {
		return time.Time{}, errs.Validation("sample", "tat_hours", "must be positive")
	}
	return collectedAt.Add(time.Duration(tatHours) * time.Hour), nil
}

// BreachStatus is the single source of truth for TAT breach semantics: a
// sample is breached iff the deadline has passed and it has not reached
// approved. Rejected samples stay on the clock; the breach is still real for
// reporting purposes.
func BreachStatus(deadline time.Time, status string, now time.Time) string {
	if now.After(deadline) && status != StatusApproved {
		return TATBreached
	}
	return TATOnTime
}

// MaxTATHours returns the largest TAT budget in a test panel. The deadline of
// a multi-test sample is driven by its slowest test.
func MaxTATHours(tests []TestItem) int {
	max := 0
	for _, t := range tests {
		if t.TATHours > max {
			max = t.TATHours
		}
	}
	return max
}
