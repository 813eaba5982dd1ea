package mcp

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ArgumentSchema validates tool arguments against the server-declared input schema
type ArgumentSchema struct {
	schema *jsonschema.Schema
}

// CompileArgumentSchema compiles the input schema of a tool. An empty schema
// accepts anything.
func CompileArgumentSchema(name string, schema map[string]interface{}) (*ArgumentSchema, error) {
	if len(schema) == 0 {
		return &ArgumentSchema{}, nil
	}

	b, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema of %s: %w", name, err)
	}

	url := "mem://tools/" + name + ".json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("load schema of %s: %w", name, err)
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema of %s: %w", name, err)
	}
	return &ArgumentSchema{schema: compiled}, nil
}

// Validate checks arguments decoded from JSON
func (s *ArgumentSchema) Validate(arguments map[string]interface{}) error {
	if s == nil || s.schema == nil {
		return nil
	}

	// round trip so numbers and nested values take their JSON shapes
	b, err := json.Marshal(arguments)
	if err != nil {
		return fmt.Errorf("marshal arguments: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("unmarshal arguments: %w", err)
	}
	if doc == nil {
		doc = map[string]interface{}{}
	}
	return s.schema.Validate(doc)
}
