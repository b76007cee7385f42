package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoTool struct{}

func (echoTool) Name() string        { return "Echo" }
func (echoTool) Description() string { return "echoes its input" }
func (echoTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{"type": "string"},
		},
		"required": []string{"text"},
	}
}
func (echoTool) Invoke(ctx context.Context, args map[string]any) (any, error) {
	return args["text"], nil
}

func TestRegistryCaseInsensitiveLookup(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterSystem(echoTool{}))

	got, ok := r.Lookup("any-agent", "echo")
	require.True(t, ok)
	assert.Equal(t, "Echo", got.Name())

	_, ok = r.Lookup("any-agent", "missing")
	assert.False(t, ok)
}

func TestRegisterAgentRejectsNameCollidingWithSystemTool(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterSystem(echoTool{}))

	err := r.RegisterAgent("agentA", echoTool{})
	require.Error(t, err)
	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)

	got, ok := r.Lookup("agentA", "echo")
	require.True(t, ok)
	assert.Equal(t, "Echo", got.Name(), "the system tool must remain visible, not be shadowed")
}

func TestValidatorRejectsMissingRequired(t *testing.T) {
	v := NewValidator()
	err := v.Validate(echoTool{}, map[string]any{})
	assert.Error(t, err)
}

func TestValidatorAcceptsValidArgs(t *testing.T) {
	v := NewValidator()
	err := v.Validate(echoTool{}, map[string]any{"text": "hi"})
	assert.NoError(t, err)
}

func TestInjectAddsMarkersWithoutMutatingInput(t *testing.T) {
	in := map[string]any{"text": "hi"}
	out := Inject(in, AmbientArgs{ToolCallID: "call_1"})

	assert.Equal(t, "call_1", out[InjectedToolCallID])
	assert.Equal(t, "hi", out["text"])
	_, hasMarker := in[InjectedToolCallID]
	assert.False(t, hasMarker)
}

type namedTool struct{ name string }

func (t namedTool) Name() string                                      { return t.name }
func (namedTool) Description() string                                 { return "" }
func (namedTool) Schema() map[string]any                              { return map[string]any{} }
func (namedTool) Invoke(ctx context.Context, args map[string]any) (any, error) { return nil, nil }

func TestFilterByToolChoiceNoneSuppressesAllTools(t *testing.T) {
	tools := []Tool{namedTool{"a"}, namedTool{"b"}}
	filtered, choice := FilterByToolChoice(tools, None())
	assert.Empty(t, filtered)
	assert.Equal(t, ChoiceNone, choice.Mode)
}

func TestFilterByToolChoiceSpecificNarrowsToOneTool(t *testing.T) {
	tools := []Tool{namedTool{"a"}, namedTool{"b"}}
	filtered, choice := FilterByToolChoice(tools, Specific("b"))
	require.Len(t, filtered, 1)
	assert.Equal(t, "b", filtered[0].Name())
	assert.Equal(t, "b", choice.ToolName)
}

func TestFilterByToolChoiceAutoAndRequiredPassThroughUnfiltered(t *testing.T) {
	tools := []Tool{namedTool{"a"}, namedTool{"b"}}

	filtered, _ := FilterByToolChoice(tools, Auto())
	assert.Len(t, filtered, 2)

	filtered, _ = FilterByToolChoice(tools, Required())
	assert.Len(t, filtered, 2)
}
