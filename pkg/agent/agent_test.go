package agent

import (
	"context"
	"testing"

	"github.com/agentcore/agentrt/pkg/llm"
	"github.com/agentcore/agentrt/pkg/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHandler struct{}

func (stubHandler) Name() string { return "stub" }
func (stubHandler) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	return llm.Response{Content: "ok"}, nil
}
func (stubHandler) Stream(ctx context.Context, req llm.Request) (<-chan llm.StreamEvent, error) {
	ch := make(chan llm.StreamEvent)
	close(ch)
	return ch, nil
}

func TestValidateConfigMapAcceptsRecognizedKeys(t *testing.T) {
	cfg, err := ValidateConfigMap(map[string]any{
		"temperature": 0.7,
		"max_tokens":  256,
		"top_p":       0.9,
		"top_k":       40,
		"think":       "medium",
		"stream":      true,
	})
	require.NoError(t, err)
	require.NotNil(t, cfg.Temperature)
	assert.Equal(t, 0.7, *cfg.Temperature)
	require.NotNil(t, cfg.MaxTokens)
	assert.Equal(t, 256, *cfg.MaxTokens)
	assert.Equal(t, "medium", cfg.Think)
	assert.True(t, cfg.Stream)
}

func TestValidateConfigMapRejectsUnknownKey(t *testing.T) {
	_, err := ValidateConfigMap(map[string]any{"frequency_penalty": 0.5})
	require.Error(t, err)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestValidateConfigMapRejectsOutOfRangeTemperature(t *testing.T) {
	_, err := ValidateConfigMap(map[string]any{"temperature": 3.0})
	require.Error(t, err)
}

func TestValidateConfigMapRejectsInvalidThink(t *testing.T) {
	_, err := ValidateConfigMap(map[string]any{"think": "extreme"})
	require.Error(t, err)
}

func TestNewRejectsUnsupportedProvider(t *testing.T) {
	_, err := New("a", Provider("anthropic"), "model", stubHandler{}, tool.NewRegistry(), Config{}, 10)
	require.Error(t, err)
}

func TestNewBuildsAgentWithDefaults(t *testing.T) {
	a, err := New("assistant", ProviderOpenAI, "gpt-4o-mini", stubHandler{}, tool.NewRegistry(), Config{}, 0)
	require.NoError(t, err)
	assert.Equal(t, "assistant", a.Name)
	assert.Equal(t, defaultMaxIterations, a.MaxIterations)
	assert.Equal(t, 0, a.History.Len())
}

func TestWithInstructionsAndMaxIterationsChain(t *testing.T) {
	a, err := New("assistant", ProviderOllama, "llama3.2", stubHandler{}, tool.NewRegistry(), Config{}, 5)
	require.NoError(t, err)
	a.WithInstructions("be terse").WithMaxIterations(3)
	assert.Equal(t, "be terse", a.Instructions)
	assert.Equal(t, 3, a.MaxIterations)
}
