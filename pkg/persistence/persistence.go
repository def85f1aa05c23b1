// Package persistence provides the durable storage abstraction for the
// workflow collection.
package persistence

import (
	"context"

	"github.com/mordomohq/mordomo/pkg/models"
)

// Persistence stores the complete workflow collection. SaveAll must commit
// the whole collection durably before returning, so that a concurrent or
// later reader never observes a partially applied mutation; LoadAll returns
// an empty collection when nothing has been stored yet.
type Persistence interface {
	LoadAll(ctx context.Context) ([]*models.Workflow, error)
	SaveAll(ctx context.Context, workflows []*models.Workflow) error
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
