package functiontool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type weatherArgs struct {
	City  string `json:"city" jsonschema:"required,description=City name"`
	Units string `json:"units,omitempty" jsonschema:"description=Temperature units,default=celsius,enum=celsius|fahrenheit"`
}

func TestNewGeneratesSchemaAndInvokes(t *testing.T) {
	wt, err := New(Config{Name: "get_weather", Description: "Get current weather"},
		func(ctx context.Context, args weatherArgs) (any, error) {
			return map[string]any{"city": args.City, "units": args.Units}, nil
		},
	)
	require.NoError(t, err)
	assert.Equal(t, "get_weather", wt.Name())

	schema := wt.Schema()
	assert.Equal(t, "object", schema["type"])
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "city")

	result, err := wt.Invoke(context.Background(), map[string]any{"city": "Berlin"})
	require.NoError(t, err)
	assert.Equal(t, "Berlin", result.(map[string]any)["city"])
}

func TestNewRejectsEmptyConfig(t *testing.T) {
	_, err := New(Config{}, func(ctx context.Context, args weatherArgs) (any, error) { return nil, nil })
	assert.Error(t, err)
}

func TestNewWithValidationRunsCustomCheck(t *testing.T) {
	calls := 0
	vt, err := NewWithValidation(
		Config{Name: "create_file", Description: "Create a file"},
		func(ctx context.Context, args weatherArgs) (any, error) {
			calls++
			return "ok", nil
		},
		func(args weatherArgs) error {
			if args.City == "" {
				return assertErr("city required")
			}
			return nil
		},
	)
	require.NoError(t, err)

	_, err = vt.Invoke(context.Background(), map[string]any{"city": ""})
	assert.Error(t, err)
	assert.Equal(t, 0, calls)

	_, err = vt.Invoke(context.Background(), map[string]any{"city": "Paris"})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

type simpleErr string

func (e simpleErr) Error() string { return string(e) }

func assertErr(msg string) error { return simpleErr(msg) }
