// Package web provides the HTTP API for workflows, settings, and manual
// event injection.
package web

// CreateWorkflowRequest is the body for POST /workflows. Trigger and
// action stay open documents; the model layer owns their invariants.
type CreateWorkflowRequest struct {
	ID              string         `json:"id,omitempty"`
	Name            string         `json:"name"             validate:"required"`
	Trigger         map[string]any `json:"trigger"          validate:"required"`
	TargetConnector string         `json:"target_connector" validate:"required"`
	Action          map[string]any `json:"action"           validate:"required"`
	IsEnabled       *bool          `json:"is_enabled,omitempty"`
}

// Document renders the request as the plain document map the store
// consumes.
func (r CreateWorkflowRequest) Document() map[string]any {
	doc := map[string]any{
		"name":             r.Name,
		"trigger":          r.Trigger,
		"target_connector": r.TargetConnector,
		"action":           r.Action,
	}

	if r.ID != "" {
		doc["id"] = r.ID
	}

	if r.IsEnabled != nil {
		doc["is_enabled"] = *r.IsEnabled
	}

	return doc
}

// InjectEventRequest is the body for POST /events.
type InjectEventRequest struct {
	Source string         `json:"source" validate:"required"`
	Type   string         `json:"type"   validate:"required"`
	Data   map[string]any `json:"data,omitempty"`
}
