// Package workflow implements the store that owns the canonical workflow
// collection.
package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mordomohq/mordomo/pkg/models"
	"github.com/mordomohq/mordomo/pkg/persistence"
	"github.com/mordomohq/mordomo/pkg/protocol"
)

// Store keeps an ordered in-memory view over a persistence driver and is
// the single writer to it. Every mutation validates the complete document,
// persists the whole collection, and only then notifies observers, so the
// durable copy is always ahead of any derived state. Returned workflows
// are shared snapshots; callers must treat them as read-only.
type Store struct {
	mu        sync.RWMutex
	persist   persistence.Persistence
	logger    *slog.Logger
	workflows map[string]*models.Workflow
	order     []string
	observers []protocol.MutationObserver
}

// NewStore creates an empty store over the given driver. Call Load before
// serving reads or mutations.
func NewStore(persist persistence.Persistence, logger *slog.Logger) *Store {
	return &Store{
		persist:   persist,
		logger:    logger.With("module", "store"),
		workflows: make(map[string]*models.Workflow),
		order:     []string{},
	}
}

// Subscribe registers an observer for post-commit notifications. Register
// observers before Load and Resync so no mutation goes unobserved.
func (s *Store) Subscribe(observer protocol.MutationObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.observers = append(s.observers, observer)
}

// Load reads the persisted collection into memory, replacing any previous
// view. A record that no longer validates is skipped with a warning; the
// rest of the collection still loads.
func (s *Store) Load(ctx context.Context) error {
	stored, err := s.persist.LoadAll(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.workflows = make(map[string]*models.Workflow, len(stored))
	s.order = make([]string, 0, len(stored))

	for _, workflow := range stored {
		if workflow.ID == "" {
			s.logger.WarnContext(ctx, "Skipping stored workflow without an id", "name", workflow.Name)

			continue
		}

		if _, dup := s.workflows[workflow.ID]; dup {
			s.logger.WarnContext(ctx, "Skipping stored workflow with a duplicate id", "workflow_id", workflow.ID)

			continue
		}

		err = workflow.Validate()
		if err != nil {
			s.logger.WarnContext(ctx, "Skipping stored workflow that does not validate",
				"workflow_id", workflow.ID, "error", err)

			continue
		}

		s.workflows[workflow.ID] = workflow
		s.order = append(s.order, workflow.ID)
	}

	s.logger.InfoContext(ctx, "Workflow collection loaded", "count", len(s.order))

	return nil
}

// Add validates doc, assigns a fresh id when the document has none,
// persists, and notifies observers.
func (s *Store) Add(ctx context.Context, doc map[string]any) (*models.Workflow, error) {
	workflow, err := models.ParseWorkflow(doc)
	if err != nil {
		return nil, err
	}

	if workflow.ID == "" {
		workflow.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	workflow.CreatedAt = now
	workflow.UpdatedAt = now

	s.mu.Lock()

	if _, exists := s.workflows[workflow.ID]; exists {
		s.mu.Unlock()

		return nil, persistence.NewWorkflowError("add", workflow.ID, persistence.ErrWorkflowAlreadyExists)
	}

	workflows, order := s.snapshotLocked()
	workflows[workflow.ID] = workflow
	order = append(order, workflow.ID)

	err = s.commitLocked(ctx, "add", workflow.ID, workflows, order)
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}

	s.notifyChanged(ctx, workflow)

	return workflow, nil
}

// Get returns the workflow for id.
func (s *Store) Get(id string) (*models.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	workflow, ok := s.workflows[id]
	if !ok {
		return nil, persistence.NewWorkflowError("get", id, persistence.ErrWorkflowNotFound)
	}

	return workflow, nil
}

// List returns every workflow in insertion order. The order is stable
// across calls; updates do not move a workflow.
func (s *Store) List() []*models.Workflow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	workflows := make([]*models.Workflow, 0, len(s.order))
	for _, id := range s.order {
		workflows = append(workflows, s.workflows[id])
	}

	return workflows
}

// Update merges the supplied top-level fields over the existing document,
// forces the id to stay the original, revalidates the merged result,
// persists, and notifies observers. A top-level field in updates replaces
// the stored field wholesale.
func (s *Store) Update(ctx context.Context, id string, updates map[string]any) (*models.Workflow, error) {
	s.mu.Lock()

	existing, ok := s.workflows[id]
	if !ok {
		s.mu.Unlock()

		return nil, persistence.NewWorkflowError("update", id, persistence.ErrWorkflowNotFound)
	}

	doc, err := existing.Document()
	if err != nil {
		s.mu.Unlock()

		return nil, persistence.NewWorkflowError("update", id, err)
	}

	for key, value := range updates {
		doc[key] = value
	}

	// The id is immutable, whatever the caller sent.
	doc["id"] = id

	merged, err := models.ParseWorkflow(doc)
	if err != nil {
		s.mu.Unlock()

		return nil, err
	}

	merged.CreatedAt = existing.CreatedAt
	merged.UpdatedAt = time.Now().UTC()

	workflows, order := s.snapshotLocked()
	workflows[id] = merged

	err = s.commitLocked(ctx, "update", id, workflows, order)
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}

	s.notifyChanged(ctx, merged)

	return merged, nil
}

// Delete removes the workflow and reports whether a removal occurred.
// Deleting an unknown id is not an error.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()

	if _, ok := s.workflows[id]; !ok {
		s.mu.Unlock()

		return false, nil
	}

	workflows, order := s.snapshotLocked()
	delete(workflows, id)

	for i, oid := range order {
		if oid == id {
			order = append(order[:i], order[i+1:]...)

			break
		}
	}

	err := s.commitLocked(ctx, "delete", id, workflows, order)
	s.mu.Unlock()

	if err != nil {
		return false, err
	}

	s.notifyRemoved(ctx, id)

	return true, nil
}

// Resync replays the whole collection to every observer. Called once at
// startup after Load, before external input is accepted, so derived state
// is rebuilt from the durable copy.
func (s *Store) Resync(ctx context.Context) {
	for _, workflow := range s.List() {
		s.notifyChanged(ctx, workflow)
	}
}

// ResolveWorkflow implements protocol.WorkflowResolver for fire-time
// lookups. A missing id returns (nil, nil): the workflow is gone.
func (s *Store) ResolveWorkflow(_ context.Context, id string) (*models.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.workflows[id], nil
}

// HealthCheck reports the health of the underlying driver.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.persist.HealthCheck(ctx)
}

// snapshotLocked copies the index so a failed persist leaves the current
// view untouched. Callers must hold mu.
func (s *Store) snapshotLocked() (map[string]*models.Workflow, []string) {
	workflows := make(map[string]*models.Workflow, len(s.workflows)+1)
	for id, workflow := range s.workflows {
		workflows[id] = workflow
	}

	order := make([]string, len(s.order), len(s.order)+1)
	copy(order, s.order)

	return workflows, order
}

// commitLocked persists the candidate collection and swaps it in on
// success. Callers must hold mu.
func (s *Store) commitLocked(ctx context.Context, op, id string, workflows map[string]*models.Workflow, order []string) error {
	collection := make([]*models.Workflow, 0, len(order))
	for _, oid := range order {
		collection = append(collection, workflows[oid])
	}

	err := s.persist.SaveAll(ctx, collection)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist workflow collection",
			"op", op, "workflow_id", id, "error", err)

		return persistence.NewWorkflowError(op, id, err)
	}

	s.workflows = workflows
	s.order = order

	return nil
}

func (s *Store) notifyChanged(ctx context.Context, workflow *models.Workflow) {
	for _, observer := range s.observersSnapshot() {
		observer.WorkflowChanged(ctx, workflow)
	}
}

func (s *Store) notifyRemoved(ctx context.Context, id string) {
	for _, observer := range s.observersSnapshot() {
		observer.WorkflowRemoved(ctx, id)
	}
}

// observersSnapshot copies the observer list so notifications run without
// holding the store lock.
func (s *Store) observersSnapshot() []protocol.MutationObserver {
	s.mu.RLock()
	defer s.mu.RUnlock()

	observers := make([]protocol.MutationObserver, len(s.observers))
	copy(observers, s.observers)

	return observers
}
