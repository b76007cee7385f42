package tool

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Validator compiles and caches a tool's JSON Schema and validates
// argument maps against it, mirroring the plugin-config validation
// pattern of haasonsaas/nexus's pkg/pluginsdk (compile-once, cache by the
// marshaled schema text, validate a generic decoded value).
type Validator struct {
	mu      sync.Mutex
	schemas map[string]*jsonschema.Schema
}

// NewValidator builds an empty Validator.
func NewValidator() *Validator {
	return &Validator{schemas: make(map[string]*jsonschema.Schema)}
}

// Validate checks args against t's schema, compiling and caching the
// schema on first use.
func (v *Validator) Validate(t Tool, args map[string]any) error {
	schema, err := v.compile(t)
	if err != nil {
		return fmt.Errorf("tool: compile schema for %q: %w", t.Name(), err)
	}

	// jsonschema validates decoded values (map[string]any/[]any/etc), not
	// Go structs, so round-trip through JSON as the teacher's validator
	// does.
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("tool: marshal arguments for %q: %w", t.Name(), err)
	}
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("tool: decode arguments for %q: %w", t.Name(), err)
	}

	if err := schema.Validate(decoded); err != nil {
		return fmt.Errorf("tool: %q arguments invalid: %w", t.Name(), err)
	}
	return nil
}

func (v *Validator) compile(t Tool) (*jsonschema.Schema, error) {
	schemaMap := t.Schema()
	raw, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, err
	}
	key := t.Name() + ":" + string(raw)

	v.mu.Lock()
	defer v.mu.Unlock()
	if s, ok := v.schemas[key]; ok {
		return s, nil
	}

	compiler := jsonschema.NewCompiler()
	resourceName := t.Name() + ".schema.json"
	if err := compiler.AddResource(resourceName, strings.NewReader(string(raw))); err != nil {
		return nil, err
	}
	schema, err := compiler.Compile(resourceName)
	if err != nil {
		return nil, err
	}
	v.schemas[key] = schema
	return schema, nil
}
