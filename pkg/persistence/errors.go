package persistence

import (
	"errors"
	"fmt"
)

// Sentinel errors every store and driver composes with.
var (
	// ErrWorkflowNotFound indicates an operation referenced an unknown id.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrWorkflowAlreadyExists indicates an add with an id already present.
	ErrWorkflowAlreadyExists = errors.New("workflow already exists")
)

// WorkflowError wraps a store operation failure with the operation name and
// the workflow id it was acting on.
type WorkflowError struct {
	Op         string
	WorkflowID string
	Err        error
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("%s failed for workflow %s: %v", e.Op, e.WorkflowID, e.Err)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

func (e *WorkflowError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewWorkflowError creates a workflow error with operation context.
func NewWorkflowError(op, workflowID string, err error) *WorkflowError {
	return &WorkflowError{
		Op:         op,
		WorkflowID: workflowID,
		Err:        err,
	}
}

// PersistenceError reports a failed durable read or write. A mutation that
// returns one has not touched the in-memory collection.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewPersistenceError wraps a driver failure for the given operation.
func NewPersistenceError(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}

// IsWorkflowNotFound checks if an error indicates an unknown workflow id.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsWorkflowAlreadyExists checks if an error indicates a duplicate id.
func IsWorkflowAlreadyExists(err error) bool {
	return errors.Is(err, ErrWorkflowAlreadyExists)
}

// IsPersistenceError checks if an error came from the durable layer.
func IsPersistenceError(err error) bool {
	var perr *PersistenceError

	return errors.As(err, &perr)
}
