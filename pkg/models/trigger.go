package models

import (
	"strings"

	"github.com/robfig/cron/v3"
)

// TriggerType discriminates the trigger union.
type TriggerType string

const (
	// TriggerTypeCron fires on a cron schedule owned by the scheduler.
	TriggerTypeCron TriggerType = "cron"

	// TriggerTypeEvent fires when a matching external event arrives.
	// Event triggers are never scheduled; the dispatcher owns them.
	TriggerTypeEvent TriggerType = "event"

	// TriggerTypeSemanticCondition fires when a natural-language condition
	// evaluates true. The condition is checked on its own cron interval.
	TriggerTypeSemanticCondition TriggerType = "semantic_condition"
)

// Trigger describes when a workflow runs. Config carries the per-type
// settings; which keys are required depends on Type.
type Trigger struct {
	Type   TriggerType    `json:"trigger_type" validate:"required"`
	Config map[string]any `json:"config"`
}

// Validate checks that Config holds the keys Type requires.
func (t *Trigger) Validate() error {
	switch t.Type {
	case TriggerTypeCron:
		expr := t.CronExpression()
		if expr == "" {
			return NewValidationError("trigger.config.cron_expression", "required for cron triggers")
		}

		err := ValidateCronExpression(expr)
		if err != nil {
			return NewValidationError("trigger.config.cron_expression", "%v", err)
		}

		return nil
	case TriggerTypeEvent:
		if t.EventSource() == "" {
			return NewValidationError("trigger.config.event_source", "required for event triggers")
		}

		if t.EventType() == "" {
			return NewValidationError("trigger.config.event_type", "required for event triggers")
		}

		return nil
	case TriggerTypeSemanticCondition:
		return t.validateSemanticCondition()
	default:
		return NewValidationError("trigger.trigger_type", "unknown trigger type %q", string(t.Type))
	}
}

func (t *Trigger) validateSemanticCondition() error {
	if t.ConditionDescription() == "" {
		return NewValidationError("trigger.config.condition_description", "required for semantic condition triggers")
	}

	interval := t.CheckIntervalCron()
	if interval == "" {
		return NewValidationError("trigger.config.check_interval_cron", "required for semantic condition triggers")
	}

	err := ValidateCronExpression(interval)
	if err != nil {
		return NewValidationError("trigger.config.check_interval_cron", "%v", err)
	}

	raw, ok := t.Config["required_tools_mcps"]
	if !ok || raw == nil {
		return nil
	}

	switch items := raw.(type) {
	case []string:
		return nil
	case []any:
		for _, item := range items {
			if _, ok := item.(string); !ok {
				return NewValidationError("trigger.config.required_tools_mcps", "entries must be strings")
			}
		}

		return nil
	default:
		return NewValidationError("trigger.config.required_tools_mcps", "must be a list of strings")
	}
}

// CronExpression returns config.cron_expression for cron triggers.
func (t *Trigger) CronExpression() string {
	return t.configString("cron_expression")
}

// EventSource returns config.event_source for event triggers.
func (t *Trigger) EventSource() string {
	return t.configString("event_source")
}

// EventType returns config.event_type for event triggers.
func (t *Trigger) EventType() string {
	return t.configString("event_type")
}

// ConditionDescription returns config.condition_description for semantic
// condition triggers.
func (t *Trigger) ConditionDescription() string {
	return t.configString("condition_description")
}

// CheckIntervalCron returns config.check_interval_cron for semantic
// condition triggers.
func (t *Trigger) CheckIntervalCron() string {
	return t.configString("check_interval_cron")
}

// RequiredCapabilities lists the capability providers a semantic condition
// trigger wants available during evaluation.
func (t *Trigger) RequiredCapabilities() []string {
	if t == nil || t.Config == nil {
		return nil
	}

	switch raw := t.Config["required_tools_mcps"].(type) {
	case []string:
		return raw
	case []any:
		names := make([]string, 0, len(raw))

		for _, item := range raw {
			if name, ok := item.(string); ok {
				names = append(names, name)
			}
		}

		return names
	default:
		return nil
	}
}

func (t *Trigger) configString(key string) string {
	if t == nil || t.Config == nil {
		return ""
	}

	value, _ := t.Config[key].(string)

	return strings.TrimSpace(value)
}

// cronParser accepts standard 5-field expressions plus an optional leading
// seconds field. Descriptors like @daily are deliberately not supported.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// ValidateCronExpression checks that expr splits into exactly 5 or 6
// whitespace-separated fields and compiles to a schedule.
func ValidateCronExpression(expr string) error {
	fields := strings.Fields(expr)
	if len(fields) != 5 && len(fields) != 6 {
		return NewValidationError("", "cron expression must have 5 or 6 fields, got %d", len(fields))
	}

	_, err := CronSchedule(expr)

	return err
}

// CronSchedule compiles a 5- or 6-field cron expression into a schedule
// that can answer Next(t).
func CronSchedule(expr string) (cron.Schedule, error) {
	return cronParser.Parse(expr)
}
