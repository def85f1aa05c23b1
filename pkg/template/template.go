// Package template renders action parameters against the firing context,
// so event-triggered workflows can reference the event payload.
package template

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/mordomohq/mordomo/pkg/events"
)

// RenderParams renders every string value in params that contains a
// template marker, recursing into nested maps and lists. Non-template
// values pass through untouched, so plain parameters cost nothing.
func RenderParams(params map[string]any, data map[string]any) (map[string]any, error) {
	if params == nil {
		return nil, nil
	}

	rendered := make(map[string]any, len(params))

	for key, value := range params {
		out, err := renderValue(value, data)
		if err != nil {
			return nil, fmt.Errorf("render param %q: %w", key, err)
		}

		rendered[key] = out
	}

	return rendered, nil
}

// EventContext builds the template data an external event exposes:
// {{.event.source}}, {{.event.type}}, {{.event.id}} and the payload under
// {{.data}}.
func EventContext(event events.ExternalEvent) map[string]any {
	return map[string]any{
		"event": map[string]any{
			"id":     event.ID,
			"source": event.Source,
			"type":   event.Type,
			"at":     event.At.Format(time.RFC3339),
		},
		"data": event.Data,
	}
}

func renderValue(value any, data map[string]any) (any, error) {
	switch v := value.(type) {
	case string:
		if !strings.Contains(v, "{{") {
			return v, nil
		}

		return Render(v, data)
	case map[string]any:
		return RenderParams(v, data)
	case []any:
		out := make([]any, len(v))

		for i, item := range v {
			rendered, err := renderValue(item, data)
			if err != nil {
				return nil, err
			}

			out[i] = rendered
		}

		return out, nil
	default:
		return value, nil
	}
}

// Render executes templateStr against data and coerces the result: JSON
// objects and arrays decode into maps and lists, numerics and booleans
// into their types, anything else stays a string.
func Render(templateStr string, data any) (any, error) {
	tmpl, err := template.
		New("params").
		Funcs(template.FuncMap{
			"now": func() string {
				return time.Now().UTC().Format(time.RFC3339)
			},
			"rand": func(max int) int {
				if max <= 0 {
					return 0
				}

				num := make([]byte, 1)

				_, err := rand.Read(num)
				if err != nil {
					return 0
				}

				return int(num[0]) % max
			},
		}).Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template '%s': %w", templateStr, err)
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return nil, fmt.Errorf("failed to execute template '%s': %w", templateStr, err)
	}

	result := strings.TrimSpace(buf.String())

	if (strings.HasPrefix(result, "{") && strings.HasSuffix(result, "}")) ||
		(strings.HasPrefix(result, "[") && strings.HasSuffix(result, "]")) {
		var jsonResult any

		err := json.Unmarshal([]byte(result), &jsonResult)
		if err == nil {
			return jsonResult, nil
		}
	}

	if num, err := strconv.ParseFloat(result, 64); err == nil {
		return num, nil
	}

	if b, err := strconv.ParseBool(result); err == nil {
		return b, nil
	}

	return result, nil
}
