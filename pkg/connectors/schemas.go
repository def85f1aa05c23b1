package connectors

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/mordomohq/mordomo/pkg/models"
)

// paramSchemas holds the JSON-schema contract for every known
// (connector, action type) pair. Pairs absent here are open: the model
// stores them and the executor decides at execution time.
var paramSchemas = map[string]map[string]any{
	"browser/navigate": {
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{"type": "string", "minLength": 1},
		},
		"required": []any{"url"},
	},
	"browser/get_text_from_element": {
		"type": "object",
		"properties": map[string]any{
			"url":      map[string]any{"type": "string", "minLength": 1},
			"selector": map[string]any{"type": "string", "minLength": 1},
		},
		"required": []any{"url", "selector"},
	},
	"browser/get_links_on_page": {
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{"type": "string", "minLength": 1},
		},
		"required": []any{"url"},
	},
	"mail/list_emails": {
		"type": "object",
		"properties": map[string]any{
			"count": map[string]any{"type": "integer", "minimum": 1, "maximum": 100},
			"query": map[string]any{"type": "string"},
		},
	},
	"mail/send_email": {
		"type": "object",
		"properties": map[string]any{
			"to":      map[string]any{"type": "string", "minLength": 1},
			"subject": map[string]any{"type": "string", "minLength": 1},
			"body":    map[string]any{"type": "string"},
		},
		"required": []any{"to", "subject", "body"},
	},
}

// ValidateParams checks params against the registered schema for the
// pair. Pairs without a schema always pass.
func ValidateParams(connector models.Connector, actionType string, params map[string]any) error {
	schema, ok := paramSchemas[string(connector)+"/"+actionType]
	if !ok {
		return nil
	}

	if params == nil {
		params = map[string]any{}
	}

	schemaLoader := gojsonschema.NewGoLoader(schema)
	dataLoader := gojsonschema.NewGoLoader(params)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("validate params for %s/%s: %w", connector, actionType, err)
	}

	if !result.Valid() {
		reasons := make([]string, 0, len(result.Errors()))
		for _, schemaError := range result.Errors() {
			reasons = append(reasons, schemaError.String())
		}

		return fmt.Errorf("invalid params for %s/%s: %s", connector, actionType, strings.Join(reasons, "; "))
	}

	return nil
}
