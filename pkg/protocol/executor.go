// Package protocol defines the contracts between the store, the
// scheduler, and the executor components so none of them import each
// other directly.
package protocol

import (
	"context"

	"github.com/mordomohq/mordomo/pkg/models"
)

// ActionExecutor performs the side effect a fired workflow asks for. It is
// the seam between the scheduling core and the connector implementations;
// execution timeouts are its responsibility, via ctx.
type ActionExecutor interface {
	Execute(ctx context.Context, connector models.Connector, actionType string, params map[string]any) (string, error)
}
