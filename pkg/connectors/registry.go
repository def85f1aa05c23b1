// Package connectors dispatches fired actions to the executor registered
// for a workflow's target connector.
package connectors

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mordomohq/mordomo/pkg/models"
)

// Executor performs the side effects one connector knows. Unknown action
// types must be rejected here, at execution time, since the model layer
// deliberately stores them.
type Executor interface {
	Execute(ctx context.Context, actionType string, params map[string]any) (string, error)
}

// Registry maps connectors to executors and implements
// protocol.ActionExecutor for the scheduler and dispatcher.
type Registry struct {
	mu        sync.RWMutex
	executors map[models.Connector]Executor
	logger    *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		executors: make(map[models.Connector]Executor),
		logger:    logger.With("module", "connectors"),
	}
}

// Register installs the executor for a connector, replacing any previous
// one.
func (r *Registry) Register(connector models.Connector, executor Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.executors[connector] = executor
}

// Execute resolves the connector, checks params against the schema
// registered for the (connector, action type) pair when one exists, and
// runs the action. Pairs without a schema go straight to the executor,
// which owns their contract.
func (r *Registry) Execute(ctx context.Context, connector models.Connector, actionType string, params map[string]any) (string, error) {
	r.mu.RLock()
	executor, ok := r.executors[connector]
	r.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("no executor registered for connector %q", connector)
	}

	err := ValidateParams(connector, actionType, params)
	if err != nil {
		return "", err
	}

	r.logger.DebugContext(ctx, "Executing action",
		"connector", connector, "action_type", actionType)

	return executor.Execute(ctx, actionType, params)
}
