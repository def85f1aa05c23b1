package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validWorkflowDoc() map[string]any {
	return map[string]any{
		"name": "Daily check",
		"trigger": map[string]any{
			"trigger_type": "cron",
			"config":       map[string]any{"cron_expression": "0 8 * * *"},
		},
		"target_connector": "browser",
		"action": map[string]any{
			"action_type": "navigate",
			"params":      map[string]any{"url": "https://example.com"},
		},
		"is_enabled": true,
	}
}

func TestParseWorkflow_Valid(t *testing.T) {
	t.Parallel()

	workflow, err := ParseWorkflow(validWorkflowDoc())
	require.NoError(t, err)

	assert.Equal(t, "Daily check", workflow.Name)
	assert.Equal(t, TriggerTypeCron, workflow.Trigger.Type)
	assert.Equal(t, "0 8 * * *", workflow.Trigger.CronExpression())
	assert.Equal(t, ConnectorBrowser, workflow.TargetConnector)
	assert.Equal(t, "navigate", workflow.Action.Type)
	assert.True(t, workflow.IsEnabled)
}

func TestParseWorkflow_EnabledDefaultsTrue(t *testing.T) {
	t.Parallel()

	doc := validWorkflowDoc()
	delete(doc, "is_enabled")

	workflow, err := ParseWorkflow(doc)
	require.NoError(t, err)
	assert.True(t, workflow.IsEnabled)

	doc["is_enabled"] = false

	workflow, err = ParseWorkflow(doc)
	require.NoError(t, err)
	assert.False(t, workflow.IsEnabled)
}

func TestParseWorkflow_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(doc map[string]any)
	}{
		{
			name:   "missing name",
			mutate: func(doc map[string]any) { delete(doc, "name") },
		},
		{
			name:   "missing trigger",
			mutate: func(doc map[string]any) { delete(doc, "trigger") },
		},
		{
			name:   "trigger not a map",
			mutate: func(doc map[string]any) { doc["trigger"] = "cron" },
		},
		{
			name:   "unknown connector",
			mutate: func(doc map[string]any) { doc["target_connector"] = "carrier-pigeon" },
		},
		{
			name:   "missing action",
			mutate: func(doc map[string]any) { delete(doc, "action") },
		},
		{
			name: "empty action type",
			mutate: func(doc map[string]any) {
				doc["action"] = map[string]any{"action_type": "", "params": map[string]any{}}
			},
		},
		{
			name: "cron trigger with bad expression",
			mutate: func(doc map[string]any) {
				doc["trigger"] = map[string]any{
					"trigger_type": "cron",
					"config":       map[string]any{"cron_expression": "every morning"},
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc := validWorkflowDoc()
			tt.mutate(doc)

			workflow, err := ParseWorkflow(doc)
			require.Error(t, err)
			assert.Nil(t, workflow)
			assert.True(t, IsValidationError(err), "expected a validation error, got %v", err)
		})
	}
}

func TestParseWorkflow_UnknownActionTypeAccepted(t *testing.T) {
	t.Parallel()

	doc := validWorkflowDoc()
	doc["action"] = map[string]any{
		"action_type": "summarize_feed",
		"params":      map[string]any{"feed": "https://example.com/rss", "limit": 3},
	}

	workflow, err := ParseWorkflow(doc)
	require.NoError(t, err)
	assert.Equal(t, "summarize_feed", workflow.Action.Type)

	limit, ok := workflow.Action.Param("limit")
	require.True(t, ok)
	assert.EqualValues(t, 3, limit)
}

func TestWorkflowDocumentRoundTrip(t *testing.T) {
	t.Parallel()

	workflow, err := ParseWorkflow(validWorkflowDoc())
	require.NoError(t, err)

	workflow.ID = "wf-1"

	doc, err := workflow.Document()
	require.NoError(t, err)
	assert.Equal(t, "wf-1", doc["id"])
	assert.Equal(t, "Daily check", doc["name"])

	again, err := ParseWorkflow(doc)
	require.NoError(t, err)
	assert.Equal(t, workflow.Name, again.Name)
	assert.Equal(t, workflow.Trigger.CronExpression(), again.Trigger.CronExpression())
	assert.Equal(t, workflow.TargetConnector, again.TargetConnector)
}
