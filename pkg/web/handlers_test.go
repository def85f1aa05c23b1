package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mordomohq/mordomo/pkg/channels/gochannel"
	"github.com/mordomohq/mordomo/pkg/eventbus"
	"github.com/mordomohq/mordomo/pkg/mocks"
	"github.com/mordomohq/mordomo/pkg/models"
	"github.com/mordomohq/mordomo/pkg/persistence/file"
	"github.com/mordomohq/mordomo/pkg/scheduler"
	"github.com/mordomohq/mordomo/pkg/settings"
	"github.com/mordomohq/mordomo/pkg/web"
	"github.com/mordomohq/mordomo/pkg/workflow"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type testEnv struct {
	app       *fiber.App
	store     *workflow.Store
	scheduler *scheduler.Scheduler
}

func setupTestApp(t *testing.T) *testEnv {
	t.Helper()

	logger := testLogger()
	dir := t.TempDir()

	store := workflow.NewStore(file.NewPersistence(filepath.Join(dir, "workflows.json"), logger), logger)
	sched := scheduler.NewScheduler(&mocks.MockActionExecutor{}, store, logger, scheduler.Options{})
	store.Subscribe(sched)
	require.NoError(t, store.Load(t.Context()))

	settingsStore := settings.NewStore(filepath.Join(dir, "settings.json"), logger)
	require.NoError(t, settingsStore.Load(t.Context()))

	pub, sub := gochannel.CreateTestChannel(watermill.NopLogger{})
	bus := eventbus.NewWatermillEventBus(pub, sub, logger)

	handlers := web.NewAPIHandlers(store, settingsStore, bus, logger)

	return &testEnv{
		app:       web.NewApp(handlers),
		store:     store,
		scheduler: sched,
	}
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	return req
}

func decodeWorkflow(t *testing.T, resp *http.Response) *models.Workflow {
	t.Helper()

	var wf models.Workflow

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&wf))

	return &wf
}

func cronCreateRequest() web.CreateWorkflowRequest {
	return web.CreateWorkflowRequest{
		Name: "Daily",
		Trigger: map[string]any{
			"trigger_type": "cron",
			"config":       map[string]any{"cron_expression": "0 8 * * *"},
		},
		TargetConnector: "browser",
		Action: map[string]any{
			"action_type": "navigate",
			"params":      map[string]any{"url": "https://example.com"},
		},
	}
}

func TestCreateWorkflow_AssignsIDAndSchedules(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	resp, err := env.app.Test(jsonRequest(t, http.MethodPost, "/workflows", cronCreateRequest()))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	created := decodeWorkflow(t, resp)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.IsEnabled)

	// The mutation reconciled the scheduler before the response.
	assert.Equal(t, []string{created.ID}, env.scheduler.ScheduledIDs())
}

func TestCreateWorkflow_RejectsInvalidDocuments(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	bad := cronCreateRequest()
	bad.Trigger = map[string]any{
		"trigger_type": "cron",
		"config":       map[string]any{"cron_expression": "0 8 * *"},
	}

	resp, err := env.app.Test(jsonRequest(t, http.MethodPost, "/workflows", bad))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	missing := cronCreateRequest()
	missing.Name = ""

	resp, err = env.app.Test(jsonRequest(t, http.MethodPost, "/workflows", missing))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCreateWorkflow_DuplicateIDConflicts(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	req := cronCreateRequest()
	req.ID = "fixed-id"

	resp, err := env.app.Test(jsonRequest(t, http.MethodPost, "/workflows", req))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, err = env.app.Test(jsonRequest(t, http.MethodPost, "/workflows", req))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	assert.Len(t, env.store.List(), 1)
}

func TestDisableWorkflow_RemovesScheduledEntryButKeepsRecord(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	resp, err := env.app.Test(jsonRequest(t, http.MethodPost, "/workflows", cronCreateRequest()))
	require.NoError(t, err)
	created := decodeWorkflow(t, resp)

	resp, err = env.app.Test(jsonRequest(t, http.MethodPost, "/workflows/"+created.ID+"/disable", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	disabled := decodeWorkflow(t, resp)
	assert.False(t, disabled.IsEnabled)

	assert.Empty(t, env.scheduler.ScheduledIDs())

	stored, err := env.store.Get(created.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsEnabled)
}

func TestUpdateWorkflow_PartialMergeKeepsOtherFields(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	resp, err := env.app.Test(jsonRequest(t, http.MethodPost, "/workflows", cronCreateRequest()))
	require.NoError(t, err)
	created := decodeWorkflow(t, resp)

	resp, err = env.app.Test(jsonRequest(t, http.MethodPatch, "/workflows/"+created.ID,
		map[string]any{"name": "Renamed"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	updated := decodeWorkflow(t, resp)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, created.Trigger, updated.Trigger)
	assert.True(t, updated.IsEnabled)

	// Still scheduled on the unchanged cron expression.
	assert.Equal(t, []string{created.ID}, env.scheduler.ScheduledIDs())
}

func TestUpdateWorkflow_UnknownIDIsNotFound(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	resp, err := env.app.Test(jsonRequest(t, http.MethodPatch, "/workflows/missing",
		map[string]any{"name": "x"}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestDeleteWorkflow_SecondDeleteIsNotFound(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	resp, err := env.app.Test(jsonRequest(t, http.MethodPost, "/workflows", cronCreateRequest()))
	require.NoError(t, err)
	created := decodeWorkflow(t, resp)

	resp, err = env.app.Test(jsonRequest(t, http.MethodDelete, "/workflows/"+created.ID, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Empty(t, env.scheduler.ScheduledIDs())

	resp, err = env.app.Test(jsonRequest(t, http.MethodDelete, "/workflows/"+created.ID, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestSettings_GetAndPut(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	resp, err := env.app.Test(jsonRequest(t, http.MethodGet, "/settings", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var values map[string]any

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&values))
	assert.Equal(t, "system", values["theme"])

	resp, err = env.app.Test(jsonRequest(t, http.MethodPut, "/settings",
		map[string]any{"theme": "dark"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&values))
	assert.Equal(t, "dark", values["theme"])
}

func TestInjectEvent(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	resp, err := env.app.Test(jsonRequest(t, http.MethodPost, "/events", web.InjectEventRequest{
		Source: "mail",
		Type:   "received",
		Data:   map[string]any{"from": "alice@example.com"},
	}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	resp, err = env.app.Test(jsonRequest(t, http.MethodPost, "/events", map[string]any{"source": "mail"}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
