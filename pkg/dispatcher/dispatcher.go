// Package dispatcher routes external events to the workflows whose event
// triggers match them.
package dispatcher

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mordomohq/mordomo/pkg/events"
	"github.com/mordomohq/mordomo/pkg/models"
	"github.com/mordomohq/mordomo/pkg/protocol"
	"github.com/mordomohq/mordomo/pkg/template"
	"github.com/mordomohq/mordomo/pkg/tracer"
)

// WorkflowLister exposes the store's current collection. The dispatcher
// re-reads it on every event, so a just-disabled workflow never matches.
type WorkflowLister interface {
	List() []*models.Workflow
}

// Dispatcher subscribes to the event bus and executes the action of every
// enabled workflow whose event trigger matches the incoming
// (source, type) pair. Action params are rendered with the event payload
// before execution.
type Dispatcher struct {
	lister   WorkflowLister
	executor protocol.ActionExecutor
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewDispatcher builds a dispatcher over the given collection view.
func NewDispatcher(lister WorkflowLister, executor protocol.ActionExecutor, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		lister:   lister,
		executor: executor,
		logger:   logger.With("module", "dispatcher"),
		tracer:   otel.Tracer("mordomo/dispatcher"),
	}
}

// HandleEvent is the bus handler. Per-workflow failures are logged and do
// not fail the delivery, so one broken workflow cannot wedge the topic.
func (d *Dispatcher) HandleEvent(ctx context.Context, event events.ExternalEvent) error {
	ctx, span := d.tracer.Start(ctx, "dispatcher.handle_event", trace.WithAttributes(
		attribute.String("event.id", event.ID),
		attribute.String("event.source", event.Source),
		attribute.String("event.type", event.Type),
	))
	defer span.End()

	matched := 0

	for _, workflow := range d.lister.List() {
		if !matches(workflow, event) {
			continue
		}

		matched++

		d.execute(ctx, workflow, event)
	}

	d.logger.InfoContext(ctx, "Event dispatched",
		"event_id", event.ID, "source", event.Source, "type", event.Type, "matched", matched)

	return nil
}

func matches(workflow *models.Workflow, event events.ExternalEvent) bool {
	if workflow == nil || !workflow.IsEnabled || workflow.Trigger == nil {
		return false
	}

	if workflow.Trigger.Type != models.TriggerTypeEvent {
		return false
	}

	return workflow.Trigger.EventSource() == event.Source &&
		workflow.Trigger.EventType() == event.Type
}

func (d *Dispatcher) execute(ctx context.Context, workflow *models.Workflow, event events.ExternalEvent) {
	params, err := template.RenderParams(workflow.Action.Params, template.EventContext(event))
	if err != nil {
		d.logger.ErrorContext(ctx, "Failed to render action params for event",
			"workflow_id", workflow.ID, "event_id", event.ID, "error", err)

		return
	}

	ctx, span := d.tracer.Start(ctx, "dispatcher.execute", trace.WithAttributes(
		attribute.String("workflow.id", workflow.ID),
		attribute.String("workflow.action_type", workflow.Action.Type),
	))
	defer span.End()

	result, err := d.executor.Execute(ctx, workflow.TargetConnector, workflow.Action.Type, params)
	if err != nil {
		tracer.SetError(span, err)
		d.logger.ErrorContext(ctx, "Event-triggered action failed",
			"workflow_id", workflow.ID, "event_id", event.ID, "error", err)

		return
	}

	d.logger.InfoContext(ctx, "Event-triggered action finished",
		"workflow_id", workflow.ID, "event_id", event.ID, "result", result)
}
