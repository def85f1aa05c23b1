package protocol

import "context"

// Capability is a named provider of callable tools, referenced by
// semantic condition triggers through required_tools_mcps.
type Capability interface {
	// ID is the name workflows use to request this provider.
	ID() string

	// Description says what the provider is for, in prompt-ready prose.
	Description() string

	// Tools lists the callable tools with their argument schemas.
	Tools() []ToolInfo

	// Call runs one tool and returns its textual result.
	Call(ctx context.Context, tool string, args map[string]any) (string, error)
}

// ToolInfo describes one callable tool of a capability provider.
type ToolInfo struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}
