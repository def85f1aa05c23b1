// Package models defines the workflow, trigger, and action domain types
// shared by the store, the scheduler, and the connector executors.
package models

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
)

// Connector identifies which executor performs a workflow's action.
type Connector string

const (
	ConnectorBrowser Connector = "browser"
	ConnectorMail    Connector = "mail"
)

// knownConnectors is the closed set accepted by validation. Extending the
// enum means adding a constant here and registering an executor for it.
var knownConnectors = map[Connector]bool{
	ConnectorBrowser: true,
	ConnectorMail:    true,
}

// Valid reports whether c names a known connector.
func (c Connector) Valid() bool {
	return knownConnectors[c]
}

// Workflow combines a trigger, a target connector, and an action into one
// persisted unit of automation. The store owns the canonical copy; every
// other component holds only derived, disposable state keyed by ID.
type Workflow struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"             validate:"required"`
	Trigger         *Trigger  `json:"trigger"          validate:"required"`
	TargetConnector Connector `json:"target_connector" validate:"required"`
	Action          *Action   `json:"action"           validate:"required"`
	IsEnabled       bool      `json:"is_enabled"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseWorkflow builds a typed Workflow from a plain document map and
// validates it. Malformed input of any shape is reported as a
// *ValidationError, never a panic.
func ParseWorkflow(doc map[string]any) (*Workflow, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, NewValidationError("", "document is not serializable: %v", err)
	}

	// is_enabled defaults to true when the document omits it.
	workflow := &Workflow{IsEnabled: true}

	err = json.Unmarshal(raw, workflow)
	if err != nil {
		return nil, NewValidationError("", "malformed document: %v", err)
	}

	err = workflow.Validate()
	if err != nil {
		return nil, err
	}

	return workflow, nil
}

// Validate checks every model invariant on the complete document. It runs
// on add and again after every update merge, because trigger and action
// rules depend on fields outside the changed set.
func (w *Workflow) Validate() error {
	err := validate.Struct(w)
	if err != nil {
		return validationErrorFromTags(err)
	}

	if !w.TargetConnector.Valid() {
		return NewValidationError("target_connector", "unknown connector %q", string(w.TargetConnector))
	}

	err = w.Trigger.Validate()
	if err != nil {
		return err
	}

	return w.Action.Validate()
}

// Document renders the workflow back into the plain map form used by
// update merging and the HTTP layer.
func (w *Workflow) Document() (map[string]any, error) {
	raw, err := json.Marshal(w)
	if err != nil {
		return nil, err
	}

	var doc map[string]any

	err = json.Unmarshal(raw, &doc)
	if err != nil {
		return nil, err
	}

	return doc, nil
}

func validationErrorFromTags(err error) *ValidationError {
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
		first := fieldErrors[0]

		return NewValidationError(first.Field(), "failed %q validation", first.Tag())
	}

	return NewValidationError("", "%v", err)
}
