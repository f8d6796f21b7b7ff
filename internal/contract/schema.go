package contract

import (
	"fmt"
	"sort"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/kaptinlin/jsonschema"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const requestSchemaJSON = `{
  "type": "object",
  "required": ["task"],
  "properties": {
    "task": {
      "type": "object",
      "required": ["title"],
      "properties": {
        "title": {"type": "string", "minLength": 1},
        "description": {"type": "string"},
        "category": {"type": ["string", "null"]}
      }
    },
    "daily_context": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["source_type", "content"],
        "properties": {
          "source_type": {"type": "string"},
          "content": {"type": "string"}
        }
      }
    },
    "user_prefs": {"type": "object"},
    "current_task_load": {"type": ["integer", "null"], "minimum": 0}
  }
}`

var (
	requestSchema     *jsonschema.Schema
	requestSchemaErr  error
	requestSchemaOnce sync.Once
)

func compiledRequestSchema() (*jsonschema.Schema, error) {
	requestSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		requestSchema, requestSchemaErr = compiler.Compile([]byte(requestSchemaJSON))
		if requestSchemaErr != nil {
			requestSchemaErr = fmt.Errorf("compile request schema: %w", requestSchemaErr)
		}
	})
	return requestSchema, requestSchemaErr
}

// DecodeRequest validates a raw payload against the request schema and decodes it.
// Every failure is a *ValidationError.
func DecodeRequest(payload []byte) (Request, error) {
	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return Request{}, &ValidationError{Err: fmt.Errorf("parse payload: %w", err)}
	}
	if _, ok := doc.(map[string]any); !ok {
		return Request{}, &ValidationError{Fields: []FieldError{{Message: "payload must be a JSON object"}}}
	}

	schema, err := compiledRequestSchema()
	if err != nil {
		return Request{}, err
	}
	result := schema.Validate(doc)
	if !result.IsValid() {
		keys := make([]string, 0, len(result.Errors))
		for k := range result.Errors {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields := make([]FieldError, 0, len(keys))
		for _, k := range keys {
			fields = append(fields, FieldError{Field: k, Message: result.Errors[k].Message})
		}
		return Request{}, &ValidationError{Fields: fields}
	}

	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return Request{}, &ValidationError{Err: fmt.Errorf("decode payload: %w", err)}
	}
	req.applyDefaults()
	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}
