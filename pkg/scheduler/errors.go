package scheduler

import (
	"errors"
	"fmt"
)

// SchedulingError reports that a workflow could not be entered into the
// job table, usually because its cron expression no longer compiles. The
// store's copy of the workflow is unaffected.
type SchedulingError struct {
	WorkflowID string
	Err        error
}

func (e *SchedulingError) Error() string {
	return fmt.Sprintf("failed to schedule workflow %s: %v", e.WorkflowID, e.Err)
}

func (e *SchedulingError) Unwrap() error {
	return e.Err
}

// NewSchedulingError wraps a job registration failure for a workflow.
func NewSchedulingError(workflowID string, err error) *SchedulingError {
	return &SchedulingError{WorkflowID: workflowID, Err: err}
}

// IsSchedulingError reports whether err is or wraps a SchedulingError.
func IsSchedulingError(err error) bool {
	var serr *SchedulingError

	return errors.As(err, &serr)
}
