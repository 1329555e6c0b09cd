package models

import "time"

const (
	StatusCompleted = "completed"
	StatusPending   = "pending"
)

const (
	SortDueDate  = "dueDate"
	SortPriority = "priority"
	SortCreated  = "created"
)

// TaskFilters represents optional filters for listing tasks. Zero
// values / nil pointers mean the filter is not applied. Date matches a
// single calendar day; StartDate/EndDate form an inclusive range and
// must be supplied together. Combining Date with a range is rejected
// rather than letting one silently win.
type TaskFilters struct {
	Status    string
	Priority  Priority
	Date      *time.Time
	StartDate *time.Time
	EndDate   *time.Time
	Sort      string
}

func (f TaskFilters) Validate() error {
	if f.Status != "" && f.Status != StatusCompleted && f.Status != StatusPending {
		return NewValidationError("status", "must be 'completed' or 'pending'")
	}
	if f.Date != nil && (f.StartDate != nil || f.EndDate != nil) {
		return NewValidationError("date", "cannot be combined with startDate/endDate")
	}
	if (f.StartDate == nil) != (f.EndDate == nil) {
		return NewValidationError("startDate", "startDate and endDate must be supplied together")
	}
	if f.StartDate != nil && f.EndDate.Before(*f.StartDate) {
		return NewValidationError("endDate", "must not be before startDate")
	}
	return nil
}

// SortKey returns the effective sort, defaulting unknown values to dueDate.
func (f TaskFilters) SortKey() string {
	switch f.Sort {
	case SortPriority, SortCreated:
		return f.Sort
	}
	return SortDueDate
}
