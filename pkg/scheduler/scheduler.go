// Package scheduler keeps a live job table with one recurring job per
// enabled cron workflow and fires their actions when due.
package scheduler

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mordomohq/mordomo/pkg/models"
	"github.com/mordomohq/mordomo/pkg/protocol"
	"github.com/mordomohq/mordomo/pkg/tracer"
)

const (
	DefaultPollInterval = 15 * time.Second
	DefaultMisfireGrace = 5 * time.Minute
)

// Options tune the poller. Zero values fall back to the defaults above.
type Options struct {
	// PollInterval is how often the job table is checked for due jobs.
	PollInterval time.Duration

	// MisfireGrace bounds how late a fire may be and still run. A job due
	// longer ago than this is skipped and rescheduled for its next
	// occurrence, so a long process pause does not unleash a storm of
	// overdue jobs.
	MisfireGrace time.Duration

	// WaitForInflight makes Stop block until running executions return
	// instead of abandoning them.
	WaitForInflight bool
}

// job is one Scheduled entry of the per-workflow state machine. A
// workflow id is either absent from the table or carries exactly one job.
type job struct {
	workflowID string
	cronExpr   string
	schedule   cron.Schedule
	nextDueAt  time.Time
	snapshot   *models.Workflow
}

// Scheduler owns the job table. It is a derived view over the store: the
// table is rebuilt from store notifications and the startup resync, never
// persisted, and on any doubt the store's copy wins.
type Scheduler struct {
	mu       sync.RWMutex
	jobs     map[string]*job
	executor protocol.ActionExecutor
	resolver protocol.WorkflowResolver
	logger   *slog.Logger
	tracer   trace.Tracer
	opts     Options
	started  bool
	done     chan struct{}
	ticker   *time.Ticker
	inflight sync.WaitGroup
}

// NewScheduler creates a stopped scheduler. The resolver is used to fetch
// the workflow's current document at fire time; pass nil to fire from the
// reconcile-time snapshot instead.
func NewScheduler(executor protocol.ActionExecutor, resolver protocol.WorkflowResolver, logger *slog.Logger, opts Options) *Scheduler {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	if opts.MisfireGrace <= 0 {
		opts.MisfireGrace = DefaultMisfireGrace
	}

	return &Scheduler{
		jobs:     make(map[string]*job),
		executor: executor,
		resolver: resolver,
		logger:   logger.With("module", "scheduler"),
		tracer:   otel.Tracer("mordomo/scheduler"),
		opts:     opts,
	}
}

// Start launches the poller goroutine. Starting a started scheduler is a
// no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}

	s.ticker = time.NewTicker(s.opts.PollInterval)
	s.done = make(chan struct{})
	s.started = true

	go s.poll(ctx, s.ticker, s.done)

	s.logger.InfoContext(ctx, "Scheduler started",
		"poll_interval", s.opts.PollInterval, "misfire_grace", s.opts.MisfireGrace)
}

// Stop halts the poller so no new fires begin. With WaitForInflight set it
// blocks until running executions return; otherwise they are abandoned to
// finish on their own. Stopping a stopped scheduler is a no-op.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()

	if !s.started {
		s.mu.Unlock()

		return
	}

	s.ticker.Stop()
	close(s.done)
	s.started = false
	s.mu.Unlock()

	if s.opts.WaitForInflight {
		s.inflight.Wait()
	}

	s.logger.InfoContext(ctx, "Scheduler stopped", "waited_for_inflight", s.opts.WaitForInflight)
}

// Reconcile makes the job table match the workflow's current state: a
// disabled or non-cron workflow becomes Absent, an enabled cron workflow
// becomes Scheduled with a fresh snapshot. Replaying the same workflow is
// idempotent.
func (s *Scheduler) Reconcile(ctx context.Context, workflow *models.Workflow) error {
	if workflow == nil || workflow.ID == "" {
		return nil
	}

	if !workflow.IsEnabled || workflow.Trigger == nil || workflow.Trigger.Type != models.TriggerTypeCron {
		s.Remove(ctx, workflow.ID)

		return nil
	}

	expr := workflow.Trigger.CronExpression()

	schedule, err := models.CronSchedule(expr)
	if err != nil {
		// The store keeps the workflow either way; a later reconcile
		// retries.
		s.Remove(ctx, workflow.ID)

		return NewSchedulingError(workflow.ID, err)
	}

	entry := &job{
		workflowID: workflow.ID,
		cronExpr:   expr,
		schedule:   schedule,
		nextDueAt:  schedule.Next(time.Now().UTC()),
		snapshot:   workflow,
	}

	s.mu.Lock()
	s.jobs[workflow.ID] = entry
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Workflow scheduled",
		"workflow_id", workflow.ID, "cron_expression", expr, "next_due_at", entry.nextDueAt)

	return nil
}

// Remove drops the job for id. Removing an absent id is a no-op.
func (s *Scheduler) Remove(ctx context.Context, workflowID string) {
	s.mu.Lock()
	_, existed := s.jobs[workflowID]
	delete(s.jobs, workflowID)
	s.mu.Unlock()

	if existed {
		s.logger.InfoContext(ctx, "Workflow unscheduled", "workflow_id", workflowID)
	}
}

// ScheduledIDs returns the ids with a Scheduled job, sorted for stable
// comparison.
func (s *Scheduler) ScheduledIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.jobs))
	for id := range s.jobs {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}

// WorkflowChanged implements protocol.MutationObserver.
func (s *Scheduler) WorkflowChanged(ctx context.Context, workflow *models.Workflow) {
	err := s.Reconcile(ctx, workflow)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to reconcile workflow into the schedule",
			"workflow_id", workflow.ID, "error", err)
	}
}

// WorkflowRemoved implements protocol.MutationObserver.
func (s *Scheduler) WorkflowRemoved(ctx context.Context, workflowID string) {
	s.Remove(ctx, workflowID)
}

func (s *Scheduler) poll(ctx context.Context, ticker *time.Ticker, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx, time.Now().UTC())
		}
	}
}

// tick fires every job due at now and advances its next due time. Jobs
// past the misfire grace are skipped rather than fired.
func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	s.mu.Lock()

	var due []*job

	for _, entry := range s.jobs {
		if entry.nextDueAt.After(now) {
			continue
		}

		lateness := now.Sub(entry.nextDueAt)
		dueAt := entry.nextDueAt
		entry.nextDueAt = entry.schedule.Next(now)

		if lateness > s.opts.MisfireGrace {
			s.logger.WarnContext(ctx, "Skipping job past the misfire grace period",
				"workflow_id", entry.workflowID, "due_at", dueAt, "lateness", lateness)

			continue
		}

		due = append(due, entry)
	}

	s.mu.Unlock()

	for _, entry := range due {
		s.inflight.Add(1)

		go func(entry *job) {
			defer s.inflight.Done()
			s.fire(ctx, entry)
		}(entry)
	}
}

// fire resolves the workflow's current document and runs its action. Any
// executor failure is logged here and never deregisters the job.
func (s *Scheduler) fire(ctx context.Context, entry *job) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "Recovered panic from job execution",
				"workflow_id", entry.workflowID, "panic", r)
		}
	}()

	workflow := entry.snapshot

	if s.resolver != nil {
		current, err := s.resolver.ResolveWorkflow(ctx, entry.workflowID)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to resolve workflow at fire time",
				"workflow_id", entry.workflowID, "error", err)

			return
		}

		workflow = current
	}

	// The workflow may have been deleted, disabled, or retargeted between
	// the due check and now. The store's copy wins.
	if workflow == nil || !workflow.IsEnabled || workflow.Trigger == nil || workflow.Trigger.Type != models.TriggerTypeCron {
		s.logger.InfoContext(ctx, "Skipping fire for workflow no longer scheduled as cron",
			"workflow_id", entry.workflowID)

		return
	}

	ctx, span := s.tracer.Start(ctx, "scheduler.fire", trace.WithAttributes(
		attribute.String("workflow.id", workflow.ID),
		attribute.String("workflow.connector", string(workflow.TargetConnector)),
		attribute.String("workflow.action_type", workflow.Action.Type),
	))
	defer span.End()

	s.logger.InfoContext(ctx, "Firing workflow action",
		"workflow_id", workflow.ID, "connector", workflow.TargetConnector, "action_type", workflow.Action.Type)

	result, err := s.executor.Execute(ctx, workflow.TargetConnector, workflow.Action.Type, workflow.Action.Params)
	if err != nil {
		tracer.SetError(span, err)
		s.logger.ErrorContext(ctx, "Workflow action failed",
			"workflow_id", workflow.ID, "error", err)

		return
	}

	s.logger.InfoContext(ctx, "Workflow action finished",
		"workflow_id", workflow.ID, "result", result)
}
