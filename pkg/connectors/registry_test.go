package connectors

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mordomohq/mordomo/pkg/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type echoExecutor struct {
	lastAction string
	lastParams map[string]any
}

func (e *echoExecutor) Execute(_ context.Context, actionType string, params map[string]any) (string, error) {
	e.lastAction = actionType
	e.lastParams = params

	return "done", nil
}

func TestExecute_UnknownConnector(t *testing.T) {
	t.Parallel()

	r := NewRegistry(testLogger())

	_, err := r.Execute(t.Context(), models.Connector("fax"), "send", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no executor registered")
}

func TestExecute_SchemaRejectsBadParams(t *testing.T) {
	t.Parallel()

	r := NewRegistry(testLogger())
	r.Register(models.ConnectorBrowser, &echoExecutor{})

	_, err := r.Execute(t.Context(), models.ConnectorBrowser, "navigate", map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid params")
}

func TestExecute_SchemaAcceptsGoodParams(t *testing.T) {
	t.Parallel()

	executor := &echoExecutor{}

	r := NewRegistry(testLogger())
	r.Register(models.ConnectorBrowser, executor)

	result, err := r.Execute(t.Context(), models.ConnectorBrowser, "navigate",
		map[string]any{"url": "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, "done", result)
	assert.Equal(t, "navigate", executor.lastAction)
}

func TestExecute_UnknownActionTypeSkipsSchemaAndReachesExecutor(t *testing.T) {
	t.Parallel()

	executor := &echoExecutor{}

	r := NewRegistry(testLogger())
	r.Register(models.ConnectorBrowser, executor)

	// No schema for this pair: the executor decides at execution time.
	result, err := r.Execute(t.Context(), models.ConnectorBrowser, "experimental_action",
		map[string]any{"anything": true})
	require.NoError(t, err)
	assert.Equal(t, "done", result)
	assert.Equal(t, "experimental_action", executor.lastAction)
}

func TestValidateParams_MailListEmailsBounds(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateParams(models.ConnectorMail, "list_emails", map[string]any{"count": float64(5)}))
	require.NoError(t, ValidateParams(models.ConnectorMail, "list_emails", nil))

	assert.Error(t, ValidateParams(models.ConnectorMail, "list_emails", map[string]any{"count": float64(0)}))
	assert.Error(t, ValidateParams(models.ConnectorMail, "list_emails", map[string]any{"count": float64(101)}))
	assert.Error(t, ValidateParams(models.ConnectorMail, "list_emails", map[string]any{"count": "five"}))
}

func TestValidateParams_SendEmailRequiredFields(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateParams(models.ConnectorMail, "send_email", map[string]any{
		"to":      "bob@example.com",
		"subject": "hi",
		"body":    "",
	}))

	assert.Error(t, ValidateParams(models.ConnectorMail, "send_email", map[string]any{
		"to": "bob@example.com",
	}))
}
