// Package conditions periodically evaluates semantic condition triggers
// and fires their workflow's action when the condition holds.
package conditions

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mordomohq/mordomo/pkg/capabilities"
	"github.com/mordomohq/mordomo/pkg/models"
	"github.com/mordomohq/mordomo/pkg/protocol"
	"github.com/mordomohq/mordomo/pkg/scheduler"
)

const defaultPollInterval = 15 * time.Second

// Evaluator decides whether a natural-language condition currently
// holds, optionally using the given capability providers for evidence.
type Evaluator interface {
	Evaluate(ctx context.Context, condition string, providers []protocol.Capability) (bool, error)
}

// watch is one pending condition check, keyed by workflow id like the
// scheduler's job table.
type watch struct {
	workflowID string
	schedule   cron.Schedule
	nextDueAt  time.Time
	snapshot   *models.Workflow
}

// Watcher keeps one recurring check per enabled semantic-condition
// workflow, driven by the workflow's check_interval_cron. It mirrors the
// scheduler's reconcile contract: derived, disposable state rebuilt from
// store notifications.
type Watcher struct {
	mu        sync.RWMutex
	watches   map[string]*watch
	evaluator Evaluator
	registry  *capabilities.Registry
	executor  protocol.ActionExecutor
	resolver  protocol.WorkflowResolver
	logger    *slog.Logger
	interval  time.Duration
	started   bool
	done      chan struct{}
	ticker    *time.Ticker
	inflight  sync.WaitGroup
}

// NewWatcher creates a stopped watcher.
func NewWatcher(evaluator Evaluator, registry *capabilities.Registry, executor protocol.ActionExecutor, resolver protocol.WorkflowResolver, logger *slog.Logger, pollInterval time.Duration) *Watcher {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	return &Watcher{
		watches:   make(map[string]*watch),
		evaluator: evaluator,
		registry:  registry,
		executor:  executor,
		resolver:  resolver,
		logger:    logger.With("module", "conditions"),
		interval:  pollInterval,
	}
}

// Start launches the check poller. Starting a started watcher is a no-op.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return
	}

	w.ticker = time.NewTicker(w.interval)
	w.done = make(chan struct{})
	w.started = true

	go w.poll(ctx, w.ticker, w.done)

	w.logger.InfoContext(ctx, "Condition watcher started", "poll_interval", w.interval)
}

// Stop halts the poller and waits for in-flight evaluations. Stopping a
// stopped watcher is a no-op.
func (w *Watcher) Stop(ctx context.Context) {
	w.mu.Lock()

	if !w.started {
		w.mu.Unlock()

		return
	}

	w.ticker.Stop()
	close(w.done)
	w.started = false
	w.mu.Unlock()

	w.inflight.Wait()
	w.logger.InfoContext(ctx, "Condition watcher stopped")
}

// Reconcile makes the watch table match the workflow's current state: an
// enabled semantic-condition workflow is watched on its check interval,
// anything else is absent. Idempotent.
func (w *Watcher) Reconcile(ctx context.Context, workflow *models.Workflow) error {
	if workflow == nil || workflow.ID == "" {
		return nil
	}

	if !workflow.IsEnabled || workflow.Trigger == nil || workflow.Trigger.Type != models.TriggerTypeSemanticCondition {
		w.Remove(ctx, workflow.ID)

		return nil
	}

	interval := workflow.Trigger.CheckIntervalCron()

	schedule, err := models.CronSchedule(interval)
	if err != nil {
		w.Remove(ctx, workflow.ID)

		return scheduler.NewSchedulingError(workflow.ID, err)
	}

	entry := &watch{
		workflowID: workflow.ID,
		schedule:   schedule,
		nextDueAt:  schedule.Next(time.Now().UTC()),
		snapshot:   workflow,
	}

	w.mu.Lock()
	w.watches[workflow.ID] = entry
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "Condition watched",
		"workflow_id", workflow.ID, "check_interval", interval, "next_check_at", entry.nextDueAt)

	return nil
}

// Remove drops the watch for id. Removing an absent id is a no-op.
func (w *Watcher) Remove(ctx context.Context, workflowID string) {
	w.mu.Lock()
	_, existed := w.watches[workflowID]
	delete(w.watches, workflowID)
	w.mu.Unlock()

	if existed {
		w.logger.InfoContext(ctx, "Condition unwatched", "workflow_id", workflowID)
	}
}

// WatchedIDs returns the ids with a pending check, sorted.
func (w *Watcher) WatchedIDs() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	ids := make([]string, 0, len(w.watches))
	for id := range w.watches {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}

// WorkflowChanged implements protocol.MutationObserver.
func (w *Watcher) WorkflowChanged(ctx context.Context, workflow *models.Workflow) {
	err := w.Reconcile(ctx, workflow)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to reconcile condition watch",
			"workflow_id", workflow.ID, "error", err)
	}
}

// WorkflowRemoved implements protocol.MutationObserver.
func (w *Watcher) WorkflowRemoved(ctx context.Context, workflowID string) {
	w.Remove(ctx, workflowID)
}

func (w *Watcher) poll(ctx context.Context, ticker *time.Ticker, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.tick(ctx, time.Now().UTC())
		}
	}
}

func (w *Watcher) tick(ctx context.Context, now time.Time) {
	w.mu.Lock()

	var due []*watch

	for _, entry := range w.watches {
		if entry.nextDueAt.After(now) {
			continue
		}

		entry.nextDueAt = entry.schedule.Next(now)
		due = append(due, entry)
	}

	w.mu.Unlock()

	for _, entry := range due {
		w.inflight.Add(1)

		go func(entry *watch) {
			defer w.inflight.Done()
			w.check(ctx, entry)
		}(entry)
	}
}

// check evaluates one due condition and runs the workflow's action when
// it holds. Evaluator and executor failures are logged and the watch
// stays for its next check.
func (w *Watcher) check(ctx context.Context, entry *watch) {
	workflow := entry.snapshot

	if w.resolver != nil {
		current, err := w.resolver.ResolveWorkflow(ctx, entry.workflowID)
		if err != nil {
			w.logger.ErrorContext(ctx, "Failed to resolve workflow for condition check",
				"workflow_id", entry.workflowID, "error", err)

			return
		}

		workflow = current
	}

	if workflow == nil || !workflow.IsEnabled || workflow.Trigger == nil || workflow.Trigger.Type != models.TriggerTypeSemanticCondition {
		return
	}

	providers, missing := w.registry.Resolve(workflow.Trigger.RequiredCapabilities())
	if len(missing) > 0 {
		w.logger.WarnContext(ctx, "Workflow requests unavailable capabilities",
			"workflow_id", workflow.ID, "missing", missing)
	}

	holds, err := w.evaluator.Evaluate(ctx, workflow.Trigger.ConditionDescription(), providers)
	if err != nil {
		w.logger.ErrorContext(ctx, "Condition evaluation failed",
			"workflow_id", workflow.ID, "error", err)

		return
	}

	if !holds {
		w.logger.DebugContext(ctx, "Condition does not hold", "workflow_id", workflow.ID)

		return
	}

	w.logger.InfoContext(ctx, "Condition holds, firing action", "workflow_id", workflow.ID)

	result, err := w.executor.Execute(ctx, workflow.TargetConnector, workflow.Action.Type, workflow.Action.Params)
	if err != nil {
		w.logger.ErrorContext(ctx, "Condition-triggered action failed",
			"workflow_id", workflow.ID, "error", err)

		return
	}

	w.logger.InfoContext(ctx, "Condition-triggered action finished",
		"workflow_id", workflow.ID, "result", result)
}
