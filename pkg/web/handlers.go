package web

import (
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/mordomohq/mordomo/pkg/eventbus"
	"github.com/mordomohq/mordomo/pkg/events"
	"github.com/mordomohq/mordomo/pkg/settings"
	"github.com/mordomohq/mordomo/pkg/workflow"
)

// APIHandlers binds the HTTP routes to the store, the settings store, and
// the event bus. All workflow mutations go through the store so observers
// fire and the scheduler stays reconciled.
type APIHandlers struct {
	store     *workflow.Store
	settings  *settings.Store
	bus       eventbus.EventBus
	validator *validator.Validate
	logger    *slog.Logger
}

// NewAPIHandlers creates the handler set.
func NewAPIHandlers(store *workflow.Store, settingsStore *settings.Store, bus eventbus.EventBus, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		store:     store,
		settings:  settingsStore,
		bus:       bus,
		validator: validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger.With("module", "web"),
	}
}

func (h *APIHandlers) ListWorkflows(c fiber.Ctx) error {
	return c.JSON(h.store.List())
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest

	err := c.Bind().JSON(&req)
	if err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	err = h.validator.Struct(req)
	if err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.store.Add(c.Context(), req.Document())
	if err != nil {
		return handleStoreError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	found, err := h.store.Get(c.Params("id"))
	if err != nil {
		return handleStoreError(c, err)
	}

	return c.JSON(found)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	// Patch bodies are open documents with merge semantics; the store
	// revalidates the merged result.
	var updates map[string]any

	err := c.Bind().JSON(&updates)
	if err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if len(updates) == 0 {
		return badRequest(c, "Update body must contain at least one field")
	}

	updated, err := h.store.Update(c.Context(), c.Params("id"), updates)
	if err != nil {
		return handleStoreError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	removed, err := h.store.Delete(c.Context(), c.Params("id"))
	if err != nil {
		return handleStoreError(c, err)
	}

	if !removed {
		return notFound(c, "workflow not found")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) EnableWorkflow(c fiber.Ctx) error {
	return h.setEnabled(c, true)
}

func (h *APIHandlers) DisableWorkflow(c fiber.Ctx) error {
	return h.setEnabled(c, false)
}

func (h *APIHandlers) setEnabled(c fiber.Ctx, enabled bool) error {
	updated, err := h.store.Update(c.Context(), c.Params("id"), map[string]any{"is_enabled": enabled})
	if err != nil {
		return handleStoreError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) GetSettings(c fiber.Ctx) error {
	return c.JSON(h.settings.All())
}

func (h *APIHandlers) PutSettings(c fiber.Ctx) error {
	var values map[string]any

	err := c.Bind().JSON(&values)
	if err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	for key, value := range values {
		err = h.settings.Set(key, value)
		if err != nil {
			return internalError(c, err)
		}
	}

	return c.JSON(h.settings.All())
}

// InjectEvent publishes a hand-crafted external event, mainly for
// testing event-triggered workflows without their real source.
func (h *APIHandlers) InjectEvent(c fiber.Ctx) error {
	var req InjectEventRequest

	err := c.Bind().JSON(&req)
	if err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	err = h.validator.Struct(req)
	if err != nil {
		return badRequest(c, err.Error())
	}

	event := events.NewExternalEvent(req.Source, req.Type, req.Data)

	err = h.bus.Publish(c.Context(), event)
	if err != nil {
		return internalError(c, err)
	}

	h.logger.InfoContext(c.Context(), "Event injected",
		"event_id", event.ID, "source", event.Source, "type", event.Type)

	return c.Status(fiber.StatusAccepted).JSON(event)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	err := h.store.HealthCheck(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"status": "ok"})
}
