package file

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mordomohq/mordomo/pkg/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testWorkflow(id, name string) *models.Workflow {
	return &models.Workflow{
		ID:   id,
		Name: name,
		Trigger: &models.Trigger{
			Type:   models.TriggerTypeCron,
			Config: map[string]any{"cron_expression": "0 8 * * *"},
		},
		TargetConnector: models.ConnectorBrowser,
		Action: &models.Action{
			Type:   "navigate",
			Params: map[string]any{"url": "https://example.com"},
		},
		IsEnabled: true,
	}
}

func TestLoadAll_MissingFile(t *testing.T) {
	t.Parallel()

	p := NewPersistence(filepath.Join(t.TempDir(), "workflows.json"), testLogger())

	workflows, err := p.LoadAll(t.Context())
	require.NoError(t, err)
	assert.Empty(t, workflows)
}

func TestSaveAllLoadAll_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "workflows.json")
	p := NewPersistence(path, testLogger())

	first := testWorkflow("wf-1", "Morning news")
	second := testWorkflow("wf-2", "Inbox sweep")
	second.TargetConnector = models.ConnectorMail
	second.Action = &models.Action{Type: "list_emails", Params: map[string]any{"count": float64(10)}}

	require.NoError(t, p.SaveAll(t.Context(), []*models.Workflow{first, second}))

	// No temp file may survive a completed save.
	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	loaded, err := p.LoadAll(t.Context())
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, "wf-1", loaded[0].ID)
	assert.Equal(t, "Morning news", loaded[0].Name)
	assert.Equal(t, "0 8 * * *", loaded[0].Trigger.CronExpression())
	assert.Equal(t, models.ConnectorBrowser, loaded[0].TargetConnector)
	assert.Equal(t, "navigate", loaded[0].Action.Type)
	assert.True(t, loaded[0].IsEnabled)

	assert.Equal(t, "wf-2", loaded[1].ID)
	assert.Equal(t, models.ConnectorMail, loaded[1].TargetConnector)
	assert.Equal(t, map[string]any{"count": float64(10)}, loaded[1].Action.Params)
}

func TestLoadAll_SkipsCorruptRecord(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "workflows.json")

	body := `[
  {"id": "wf-good", "name": "Good", "trigger": {"trigger_type": "cron", "config": {"cron_expression": "0 8 * * *"}}, "target_connector": "browser", "action": {"action_type": "navigate", "params": {}}, "is_enabled": true},
  {"id": "wf-bad", "trigger": "this should be an object"}
]`
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))

	p := NewPersistence(path, testLogger())

	loaded, err := p.LoadAll(t.Context())
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "wf-good", loaded[0].ID)
}

func TestLoadAll_CorruptFileStartsEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "workflows.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	p := NewPersistence(path, testLogger())

	loaded, err := p.LoadAll(t.Context())
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestSaveAll_EmptyCollection(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "workflows.json")
	p := NewPersistence(path, testLogger())

	require.NoError(t, p.SaveAll(t.Context(), nil))

	loaded, err := p.LoadAll(t.Context())
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
