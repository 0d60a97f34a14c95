// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for advancing the due date of a
// recurring obligation. Each frequency has its own strategy.

package services

import (
	"fmt"

	"financeflow/internal/core"
)

// DueDateAdvancer computes the due date that follows due for one frequency.
type DueDateAdvancer interface {
	// Next returns the following due date. anchorDay is the day of month the
	// obligation was scheduled on and is only meaningful for month-based frequencies.
	Next(due core.Date, anchorDay int) core.Date
}

// WeeklyAdvancer moves a due date forward by seven days.
type WeeklyAdvancer struct{}

func (WeeklyAdvancer) Next(due core.Date, _ int) core.Date {
	return due.AddDays(7)
}

// MonthlyAdvancer moves a due date to the anchor day of the following month,
// clamped to that month's last day.
type MonthlyAdvancer struct{}

func (MonthlyAdvancer) Next(due core.Date, anchorDay int) core.Date {
	if anchorDay < 1 {
		anchorDay = due.Day()
	}
	return due.AddMonthClamped(anchorDay)
}

var dueDateAdvancers = map[core.Frequency]DueDateAdvancer{
	core.FrequencyWeekly:  WeeklyAdvancer{},
	core.FrequencyMonthly: MonthlyAdvancer{},
}

// GetDueDateAdvancer returns the strategy for a frequency.
func GetDueDateAdvancer(frequency core.Frequency) (DueDateAdvancer, error) {
	advancer, ok := dueDateAdvancers[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown frequency %q: %w", frequency, core.ErrInvalidArgument)
	}
	return advancer, nil
}
