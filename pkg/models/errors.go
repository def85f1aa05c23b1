package models

import (
	"errors"
	"fmt"
)

// ValidationError reports a workflow document that violates a model
// invariant. Field names the offending field path when known.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid workflow document: " + e.Reason
	}

	return fmt.Sprintf("invalid workflow document: %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for field with a formatted
// reason.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError

	return errors.As(err, &verr)
}
