package tracelog

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/agentcore/agentrt/pkg/trace"
	"github.com/agentcore/agentrt/pkg/tracestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceStartEndPersistsToStore(t *testing.T) {
	store := tracestore.NewMemoryStore(0)
	l := New(store, slog.New(slog.NewTextHandler(&strings.Builder{}, nil)))

	c := trace.CreateRoot(trace.RunChat, "chat", "sess", "assistant", "gpt-4o", nil)
	l.TraceStart(c)
	l.TraceEnd(c, nil)

	entries := store.Query(c.TraceID)
	require.Len(t, entries, 2)
	assert.Equal(t, tracestore.EventTraceStart, entries[0].Event)
	assert.Equal(t, tracestore.EventTraceEnd, entries[1].Event)
	require.NotNil(t, entries[1].DurationMs)
}

func TestToolResultRecordsFailure(t *testing.T) {
	store := tracestore.NewMemoryStore(0)
	l := New(store, nil)

	c := trace.CreateRoot(trace.RunTool, "tool.call", "sess", "assistant", "gpt-4o", nil)
	l.ToolResult(c, "search", 5*time.Millisecond, false, "boom")

	entries := store.Query(c.TraceID)
	require.Len(t, entries, 1)
	assert.Equal(t, false, entries[0].Fields["success"])
}

func TestToolExecutionStartRecordsCountAndNames(t *testing.T) {
	store := tracestore.NewMemoryStore(0)
	l := New(store, nil)

	c := trace.CreateRoot(trace.RunIteration, "chat.iteration", "sess", "assistant", "gpt-4o", nil)
	l.ToolExecutionStart(c, []string{"search", "current_time"})

	entries := store.Query(c.TraceID)
	require.Len(t, entries, 1)
	assert.Equal(t, tracestore.EventToolExecutionStart, entries[0].Event)
	assert.Equal(t, 2, entries[0].Fields["tool_count"])
	assert.Equal(t, []string{"search", "current_time"}, entries[0].Fields["tool_names"])
}

func TestPreviewTruncatesLongStrings(t *testing.T) {
	s := strings.Repeat("a", 1000)
	p := Preview(s)
	assert.Less(t, len(p), len(s))
	assert.Contains(t, p, "truncated")

	short := "hello"
	assert.Equal(t, short, Preview(short))
}
