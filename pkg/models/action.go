package models

import "strings"

// Action is what a workflow does when its trigger fires. Type stays an
// open string so connector-specific actions can be stored before this
// build knows them; Params is the open parameter map handed to the
// executor, which enforces the per-action contract at execution time.
type Action struct {
	Type   string         `json:"action_type" validate:"required"`
	Params map[string]any `json:"params"`
}

// Validate rejects actions without a type. Params is never closed here.
func (a *Action) Validate() error {
	if strings.TrimSpace(a.Type) == "" {
		return NewValidationError("action.action_type", "must not be empty")
	}

	return nil
}

// Param returns a single parameter value.
func (a *Action) Param(key string) (any, bool) {
	if a == nil || a.Params == nil {
		return nil, false
	}

	value, ok := a.Params[key]

	return value, ok
}
