package config

import (
	"bytes"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Daxiongmao87/termaite-go/internal/shared/jsonx"
)

// schemaDoc is the minimal JSON Schema every merged configuration
// document must satisfy before any component reads it: endpoint must
// be present, and operation_mode (when present) must be one of the
// three defined modes.
const schemaDoc = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "endpoint": {"type": "string", "minLength": 1},
    "operation_mode": {"enum": ["restricted", "semi-permissive", "unrestricted"]}
  },
  "required": ["endpoint"]
}`

var compiledSchema *jsonschema.Schema

func init() {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("config.schema.json", bytes.NewReader([]byte(schemaDoc))); err != nil {
		panic(fmt.Sprintf("compile config schema: %v", err))
	}
	schema, err := compiler.Compile("config.schema.json")
	if err != nil {
		panic(fmt.Sprintf("compile config schema: %v", err))
	}
	compiledSchema = schema
}

// validateDocument checks doc (a generic decoded document) against the
// configuration schema, returning a descriptive error on violation.
func validateDocument(doc map[string]any) error {
	// jsonschema validates against Go values produced by
	// encoding/json-shaped decoding (map[string]any, []any, string,
	// float64, bool, nil); round-trip through jsonx to normalize.
	raw, err := jsonx.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document for validation: %w", err)
	}
	var normalized any
	if err := jsonx.Unmarshal(raw, &normalized); err != nil {
		return fmt.Errorf("normalize document for validation: %w", err)
	}
	if err := compiledSchema.Validate(normalized); err != nil {
		return fmt.Errorf("configuration failed validation: %w", err)
	}
	return nil
}
