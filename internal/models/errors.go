package models

import (
	"errors"
	"fmt"
)

// Failure kinds shared by the services, the HTTP handlers and the REST
// client, so both sides of the wire speak the same taxonomy.
var (
	// ErrNotFound means the referenced task does not exist at all.
	ErrNotFound = errors.New("task not found")
	// ErrForbidden means the task exists but belongs to another user.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict covers transient/ambiguous outcomes (timeouts,
	// connection drops, 5xx). Callers must treat it as a failure and
	// never assume partial success.
	ErrConflict = errors.New("conflict or transient failure")
)

// ValidationError rejects input before any persistence or cache
// mutation is attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
