package toolbox

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// validateArguments checks raw JSON arguments against a tool's input schema
// before the call reaches the tool provider. A missing or empty schema
// accepts anything. Empty arguments validate as an empty object, which is
// what the model sends for tools without parameters.
func validateArguments(schema json.RawMessage, arguments string) error {
	if len(schema) == 0 {
		return nil
	}

	var s jsonschema.Schema
	if err := json.Unmarshal(schema, &s); err != nil {
		return fmt.Errorf("parse input schema: %w", err)
	}

	resolved, err := s.Resolve(nil)
	if err != nil {
		return fmt.Errorf("resolve input schema: %w", err)
	}

	var instance any = map[string]any{}
	if arguments != "" {
		if err := json.Unmarshal([]byte(arguments), &instance); err != nil {
			return fmt.Errorf("arguments are not valid JSON: %w", err)
		}
	}

	return resolved.Validate(instance)
}
