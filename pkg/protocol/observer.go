package protocol

import (
	"context"

	"github.com/mordomohq/mordomo/pkg/models"
)

// MutationObserver is notified after a store mutation has been durably
// persisted. Observers keep derived state, such as scheduled jobs and
// condition watches, in line with the collection; they run after the
// commit, so a failing observer never rolls a mutation back.
type MutationObserver interface {
	// WorkflowChanged runs after add and update.
	WorkflowChanged(ctx context.Context, workflow *models.Workflow)

	// WorkflowRemoved runs after delete.
	WorkflowRemoved(ctx context.Context, workflowID string)
}

// WorkflowResolver fetches the current canonical workflow document at fire
// time so a job never runs with stale data. Returning (nil, nil) means the
// workflow no longer exists.
type WorkflowResolver interface {
	ResolveWorkflow(ctx context.Context, id string) (*models.Workflow, error)
}
