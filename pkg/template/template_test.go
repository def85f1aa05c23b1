package template

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mordomohq/mordomo/pkg/events"
)

func TestRenderParams_SubstitutesEventData(t *testing.T) {
	t.Parallel()

	event := events.ExternalEvent{
		ID:     "e1",
		Source: "mail",
		Type:   "received",
		Data:   map[string]any{"from": "alice@example.com", "subject": "hello"},
		At:     time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}

	params := map[string]any{
		"url":    "https://example.com/search?q={{.data.subject}}",
		"plain":  "untouched",
		"number": 42,
		"nested": map[string]any{
			"sender": "{{.data.from}}",
		},
		"list": []any{"{{.event.source}}", "static"},
	}

	rendered, err := RenderParams(params, EventContext(event))
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/search?q=hello", rendered["url"])
	assert.Equal(t, "untouched", rendered["plain"])
	assert.Equal(t, 42, rendered["number"])
	assert.Equal(t, map[string]any{"sender": "alice@example.com"}, rendered["nested"])
	assert.Equal(t, []any{"mail", "static"}, rendered["list"])
}

func TestRenderParams_NilParams(t *testing.T) {
	t.Parallel()

	rendered, err := RenderParams(nil, map[string]any{})
	require.NoError(t, err)
	assert.Nil(t, rendered)
}

func TestRender_CoercesTypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		template string
		data     any
		want     any
	}{
		{
			name:     "number",
			template: "{{.count}}",
			data:     map[string]any{"count": 7},
			want:     float64(7),
		},
		{
			name:     "boolean",
			template: "{{.flag}}",
			data:     map[string]any{"flag": true},
			want:     true,
		},
		{
			name:     "json object",
			template: `{"a": {{.count}}}`,
			data:     map[string]any{"count": 1},
			want:     map[string]any{"a": float64(1)},
		},
		{
			name:     "plain string",
			template: "hello {{.name}}",
			data:     map[string]any{"name": "world"},
			want:     "hello world",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Render(tt.template, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRender_BadTemplate(t *testing.T) {
	t.Parallel()

	_, err := Render("{{.broken", nil)
	require.Error(t, err)
}
