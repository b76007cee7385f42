package trace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateChildInheritsTraceID(t *testing.T) {
	root := CreateRoot(RunChat, "chat", "sess-1", "assistant", "gpt-4o", nil)
	child := root.CreateChild(RunIteration, "iteration.1", nil)

	assert.Equal(t, root.TraceID, child.TraceID)
	assert.Equal(t, root.RunID, child.ParentRunID)
	assert.NotEqual(t, root.RunID, child.RunID)
	assert.Equal(t, root.SessionID, child.SessionID)
}

func TestCreateChildMergesMetadata(t *testing.T) {
	root := CreateRoot(RunChat, "chat", "sess-1", "assistant", "gpt-4o", map[string]any{"a": 1})
	child := root.CreateChild(RunTool, "tool.call", map[string]any{"b": 2})

	assert.Equal(t, 1, child.Metadata["a"])
	assert.Equal(t, 2, child.Metadata["b"])
}

func TestAmbientRoundTrip(t *testing.T) {
	root := CreateRoot(RunChat, "chat", "sess-1", "assistant", "gpt-4o", nil)
	ctx := WithAmbient(context.Background(), root)

	got, ok := Current(ctx)
	require.True(t, ok)
	assert.Equal(t, root.RunID, got.RunID)

	_, ok = Current(context.Background())
	assert.False(t, ok)
}
