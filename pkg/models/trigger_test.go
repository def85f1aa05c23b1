package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerValidate_Cron(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  map[string]any
		wantErr bool
	}{
		{
			name:   "standard five field expression",
			config: map[string]any{"cron_expression": "0 8 * * *"},
		},
		{
			name:   "six field expression with seconds",
			config: map[string]any{"cron_expression": "*/30 * * * * *"},
		},
		{
			name:    "four fields rejected",
			config:  map[string]any{"cron_expression": "0 8 * *"},
			wantErr: true,
		},
		{
			name:    "seven fields rejected",
			config:  map[string]any{"cron_expression": "0 0 8 * * * 2026"},
			wantErr: true,
		},
		{
			name:    "five fields that do not parse",
			config:  map[string]any{"cron_expression": "a b c d e"},
			wantErr: true,
		},
		{
			name:    "descriptor rejected",
			config:  map[string]any{"cron_expression": "@daily"},
			wantErr: true,
		},
		{
			name:    "missing expression",
			config:  map[string]any{},
			wantErr: true,
		},
		{
			name:    "expression with wrong type",
			config:  map[string]any{"cron_expression": 42},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			trigger := &Trigger{Type: TriggerTypeCron, Config: tt.config}
			err := trigger.Validate()

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsValidationError(err))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestTriggerValidate_Event(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  map[string]any
		wantErr bool
	}{
		{
			name:   "source and type present",
			config: map[string]any{"event_source": "github", "event_type": "push"},
		},
		{
			name:    "missing event_source",
			config:  map[string]any{"event_type": "push"},
			wantErr: true,
		},
		{
			name:    "missing event_type",
			config:  map[string]any{"event_source": "github"},
			wantErr: true,
		},
		{
			name:    "blank event_source",
			config:  map[string]any{"event_source": "   ", "event_type": "push"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			trigger := &Trigger{Type: TriggerTypeEvent, Config: tt.config}
			err := trigger.Validate()

			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestTriggerValidate_SemanticCondition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  map[string]any
		wantErr bool
	}{
		{
			name: "complete config",
			config: map[string]any{
				"condition_description": "a new release note mentions breaking changes",
				"check_interval_cron":   "*/15 * * * *",
			},
		},
		{
			name: "with required capabilities",
			config: map[string]any{
				"condition_description": "the pricing page changed",
				"check_interval_cron":   "0 * * * *",
				"required_tools_mcps":   []any{"web_scraper"},
			},
		},
		{
			name: "blank description",
			config: map[string]any{
				"condition_description": "  ",
				"check_interval_cron":   "0 * * * *",
			},
			wantErr: true,
		},
		{
			name: "missing interval",
			config: map[string]any{
				"condition_description": "something happened",
			},
			wantErr: true,
		},
		{
			name: "interval with four fields",
			config: map[string]any{
				"condition_description": "something happened",
				"check_interval_cron":   "0 * * *",
			},
			wantErr: true,
		},
		{
			name: "capabilities not a list",
			config: map[string]any{
				"condition_description": "something happened",
				"check_interval_cron":   "0 * * * *",
				"required_tools_mcps":   "web_scraper",
			},
			wantErr: true,
		},
		{
			name: "capabilities with non string entry",
			config: map[string]any{
				"condition_description": "something happened",
				"check_interval_cron":   "0 * * * *",
				"required_tools_mcps":   []any{"web_scraper", 7},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			trigger := &Trigger{Type: TriggerTypeSemanticCondition, Config: tt.config}
			err := trigger.Validate()

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsValidationError(err))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestTriggerValidate_UnknownType(t *testing.T) {
	t.Parallel()

	trigger := &Trigger{Type: "webhook", Config: map[string]any{}}

	err := trigger.Validate()
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestTriggerRequiredCapabilities(t *testing.T) {
	t.Parallel()

	trigger := &Trigger{
		Type: TriggerTypeSemanticCondition,
		Config: map[string]any{
			"required_tools_mcps": []any{"web_scraper", "file_system"},
		},
	}

	assert.Equal(t, []string{"web_scraper", "file_system"}, trigger.RequiredCapabilities())

	empty := &Trigger{Type: TriggerTypeSemanticCondition, Config: map[string]any{}}
	assert.Nil(t, empty.RequiredCapabilities())
}
