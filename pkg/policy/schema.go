package policy

import (
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// bundleSchemaJSON is the Draft 2020-12 JSON Schema every policy bundle
// must satisfy structurally, validated against the bundle's generic
// (pre-struct) decoding before it is ever turned into Go types.
const bundleSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["api_version", "contracts"],
  "properties": {
    "api_version": {"type": "string", "const": "callguard/v1"},
    "contracts": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "type"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "type": {"type": "string", "enum": ["pre", "post", "session"]},
          "when": {"type": "object"},
          "then": {
            "type": "object",
            "required": ["action", "reason"],
            "properties": {
              "action": {"type": "string", "enum": ["deny"]},
              "reason": {"type": "string", "minLength": 1}
            }
          },
          "limits": {
            "type": "object",
            "properties": {
              "max_attempts": {"type": "integer", "minimum": 0},
              "max_executions": {"type": "integer", "minimum": 0},
              "max_tool_executions": {
                "type": "object",
                "additionalProperties": {"type": "integer", "minimum": 0}
              },
              "reason": {"type": "string"}
            }
          }
        }
      }
    }
  }
}`

var (
	compileOnce     sync.Once
	compiledSchema  *jsonschema.Schema
	compileErr      error
)

const schemaResourceURL = "https://callguard.local/schema/bundle.schema.json"

func compiledBundleSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(schemaResourceURL, strings.NewReader(bundleSchemaJSON)); err != nil {
			compileErr = fmt.Errorf("policy: loading bundle schema: %w", err)
			return
		}
		schema, err := c.Compile(schemaResourceURL)
		if err != nil {
			compileErr = fmt.Errorf("policy: compiling bundle schema: %w", err)
			return
		}
		compiledSchema = schema
	})
	return compiledSchema, compileErr
}

// ValidateSchema checks a generically-decoded bundle document (as
// produced by yaml.Unmarshal into `any`) against the bundle JSON Schema.
func ValidateSchema(doc any) error {
	schema, err := compiledBundleSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
