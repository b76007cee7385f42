// Package functiontool wraps a typed Go function into a tool.Tool,
// generating its JSON Schema from struct tags on the argument type
// instead of requiring a hand-written schema. Adapted from the teacher's
// ADK-Go-aligned FunctionTool: same schema-from-tags approach, rebound to
// this runtime's simpler tool.Tool interface (no CallableTool/IsLongRunning/
// RequiresApproval machinery, since that belongs to a different agent
// framework than the one this runtime implements).
package functiontool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/agentcore/agentrt/pkg/tool"
)

// Config names and describes the generated tool, as shown to the model.
type Config struct {
	Name        string
	Description string
}

// Func is the shape a wrapped function must have: typed arguments decoded
// from the model's tool call, returning a JSON-marshalable result.
type Func[Args any] func(ctx context.Context, args Args) (any, error)

// New builds a tool.Tool whose schema is reflected from Args and whose
// Invoke unmarshals the incoming argument map into Args before calling fn.
func New[Args any](cfg Config, fn Func[Args]) (tool.Tool, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("functiontool: name is required")
	}
	if cfg.Description == "" {
		return nil, fmt.Errorf("functiontool: description is required")
	}
	schema, err := generateSchema[Args]()
	if err != nil {
		return nil, fmt.Errorf("functiontool: generate schema for %s: %w", cfg.Name, err)
	}
	return &functionTool[Args]{config: cfg, fn: fn, schema: schema}, nil
}

// NewWithValidation is New plus an additional validation pass over the
// decoded Args before fn runs, for constraints struct tags cannot express.
func NewWithValidation[Args any](cfg Config, fn Func[Args], validate func(Args) error) (tool.Tool, error) {
	base, err := New(cfg, fn)
	if err != nil {
		return nil, err
	}
	return &functionToolWithValidation[Args]{
		functionTool: base.(*functionTool[Args]),
		validate:     validate,
	}, nil
}

type functionTool[Args any] struct {
	config Config
	fn     Func[Args]
	schema map[string]any
}

func (t *functionTool[Args]) Name() string          { return t.config.Name }
func (t *functionTool[Args]) Description() string   { return t.config.Description }
func (t *functionTool[Args]) Schema() map[string]any { return t.schema }

func (t *functionTool[Args]) Invoke(ctx context.Context, args map[string]any) (any, error) {
	var typed Args
	if err := mapToStruct(args, &typed); err != nil {
		return nil, fmt.Errorf("functiontool: invalid arguments for %s: %w", t.config.Name, err)
	}
	return t.fn(ctx, typed)
}

type functionToolWithValidation[Args any] struct {
	*functionTool[Args]
	validate func(Args) error
}

func (t *functionToolWithValidation[Args]) Invoke(ctx context.Context, args map[string]any) (any, error) {
	var typed Args
	if err := mapToStruct(args, &typed); err != nil {
		return nil, fmt.Errorf("functiontool: invalid arguments for %s: %w", t.config.Name, err)
	}
	if err := t.validate(typed); err != nil {
		return nil, fmt.Errorf("functiontool: validation failed for %s: %w", t.config.Name, err)
	}
	return t.fn(ctx, typed)
}

func mapToStruct(m map[string]any, target any) error {
	if m == nil {
		return nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal args: %w", err)
	}
	return json.Unmarshal(data, target)
}

var (
	_ tool.Tool = (*functionTool[struct{}])(nil)
	_ tool.Tool = (*functionToolWithValidation[struct{}])(nil)
)
