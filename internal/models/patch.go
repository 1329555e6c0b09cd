package models

import "time"

// TaskPatch is an explicit partial update: a nil field was not supplied
// and leaves the stored value untouched. This keeps "which fields were
// sent" unambiguous instead of inferring it from zero values.
type TaskPatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Priority    *Priority  `json:"priority,omitempty"`
	Completed   *bool      `json:"completed,omitempty"`
	Tags        *[]string  `json:"tags,omitempty"`
}

func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.DueDate == nil &&
		p.Priority == nil && p.Completed == nil && p.Tags == nil
}

func (p TaskPatch) Validate() error {
	if p.Title != nil {
		if *p.Title == "" {
			return NewValidationError("title", "must not be empty")
		}
		if len(*p.Title) > MaxTitleLen {
			return NewValidationError("title", "too long")
		}
	}
	if p.Description != nil && len(*p.Description) > MaxDescriptionLen {
		return NewValidationError("description", "too long")
	}
	if p.Priority != nil && !ValidPriority(*p.Priority) {
		return NewValidationError("priority", "must be low, medium or high")
	}
	return nil
}

// Apply copies the supplied fields onto t. Completion flips are handled
// by the completion toggle path, not here; Apply still honors an
// explicit Completed field so bulk patches can set it, keeping the
// completed_at invariant via the caller.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Tags != nil {
		t.Tags = NormalizeTags(*p.Tags)
	}
}

// Merge overlays o onto p: fields supplied by o win, fields o leaves
// nil keep p's value. Used to collapse several patches against the same
// task into one.
func (p TaskPatch) Merge(o TaskPatch) TaskPatch {
	if o.Title != nil {
		p.Title = o.Title
	}
	if o.Description != nil {
		p.Description = o.Description
	}
	if o.DueDate != nil {
		p.DueDate = o.DueDate
	}
	if o.Priority != nil {
		p.Priority = o.Priority
	}
	if o.Completed != nil {
		p.Completed = o.Completed
	}
	if o.Tags != nil {
		p.Tags = o.Tags
	}
	return p
}

// NewTask is the validated input for creating a task.
type NewTask struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
	Priority    Priority  `json:"priority"`
	Tags        []string  `json:"tags"`
}

func (n NewTask) Validate() error {
	if n.Title == "" {
		return NewValidationError("title", "must not be empty")
	}
	if len(n.Title) > MaxTitleLen {
		return NewValidationError("title", "too long")
	}
	if len(n.Description) > MaxDescriptionLen {
		return NewValidationError("description", "too long")
	}
	if n.DueDate.IsZero() {
		return NewValidationError("due_date", "is required")
	}
	if n.Priority != "" && !ValidPriority(n.Priority) {
		return NewValidationError("priority", "must be low, medium or high")
	}
	return nil
}
