package toolexec

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/agentcore/agentrt/pkg/tool"
	"github.com/agentcore/agentrt/pkg/trace"
	"github.com/agentcore/agentrt/pkg/tracelog"
	"github.com/agentcore/agentrt/pkg/tracestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slowTool struct {
	name  string
	delay time.Duration
	fail  bool
	panicking bool
}

func (t slowTool) Name() string        { return t.name }
func (t slowTool) Description() string { return "test tool" }
func (t slowTool) Schema() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}
func (t slowTool) Invoke(ctx context.Context, args map[string]any) (any, error) {
	if t.panicking {
		panic("boom")
	}
	time.Sleep(t.delay)
	if t.fail {
		return nil, fmt.Errorf("tool failed")
	}
	return t.name + "-done", nil
}

func newExecutor(t *testing.T, tools ...tool.Tool) *Executor {
	reg := tool.NewRegistry()
	for _, tl := range tools {
		require.NoError(t, reg.RegisterSystem(tl))
	}
	return New(reg, tool.NewValidator(), nil)
}

func TestExecuteUnknownToolReturnsFailureResult(t *testing.T) {
	e := newExecutor(t)
	root := trace.CreateRoot(trace.RunChat, "chat", "s", "a", "m", nil)

	result := e.Execute(context.Background(), root, "a", nil, Call{ToolName: "missing"})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "unknown tool")
}

func TestExecutePanicIsCaptured(t *testing.T) {
	e := newExecutor(t, slowTool{name: "boom", panicking: true})
	root := trace.CreateRoot(trace.RunChat, "chat", "s", "a", "m", nil)

	result := e.Execute(context.Background(), root, "a", nil, Call{ToolName: "boom"})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "panicked")
}

func TestExecuteAllPreservesOrderDespiteVaryingLatency(t *testing.T) {
	e := newExecutor(t,
		slowTool{name: "slow", delay: 30 * time.Millisecond},
		slowTool{name: "fast", delay: 1 * time.Millisecond},
	)
	root := trace.CreateRoot(trace.RunChat, "chat", "s", "a", "m", nil)

	calls := []Call{
		{ToolName: "slow", ToolCallID: "1"},
		{ToolName: "fast", ToolCallID: "2"},
	}
	results := e.ExecuteAll(context.Background(), root, "a", nil, calls)

	require.Len(t, results, 2)
	assert.Equal(t, "slow", results[0].ToolName)
	assert.Equal(t, "fast", results[1].ToolName)
	assert.True(t, results[0].Success)
	assert.True(t, results[1].Success)
}

func TestExecuteAllOneFailureDoesNotAffectSiblings(t *testing.T) {
	e := newExecutor(t,
		slowTool{name: "ok", delay: 1 * time.Millisecond},
		slowTool{name: "bad", delay: 1 * time.Millisecond, fail: true},
	)
	root := trace.CreateRoot(trace.RunChat, "chat", "s", "a", "m", nil)

	calls := []Call{
		{ToolName: "ok"},
		{ToolName: "bad"},
	}
	results := e.ExecuteAll(context.Background(), root, "a", nil, calls)

	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
}

type recordedCall struct {
	toolName string
	success  bool
}

type fakeMetrics struct{ calls []recordedCall }

func (f *fakeMetrics) RecordToolCall(toolName string, duration time.Duration, success bool) {
	f.calls = append(f.calls, recordedCall{toolName: toolName, success: success})
}

func TestWithMetricsRecordsOutcomePerCall(t *testing.T) {
	reg := tool.NewRegistry()
	require.NoError(t, reg.RegisterSystem(slowTool{name: "ok"}))
	require.NoError(t, reg.RegisterSystem(slowTool{name: "bad", fail: true}))
	m := &fakeMetrics{}
	e := New(reg, tool.NewValidator(), nil).WithMetrics(m)
	root := trace.CreateRoot(trace.RunChat, "chat", "s", "a", "m", nil)

	e.Execute(context.Background(), root, "a", nil, Call{ToolName: "ok"})
	e.Execute(context.Background(), root, "a", nil, Call{ToolName: "bad"})

	require.Len(t, m.calls, 2)
	assert.Equal(t, "ok", m.calls[0].toolName)
	assert.True(t, m.calls[0].success)
	assert.Equal(t, "bad", m.calls[1].toolName)
	assert.False(t, m.calls[1].success)
}

func TestExecuteAllEmitsOneAggregateExecutionStartEvent(t *testing.T) {
	reg := tool.NewRegistry()
	require.NoError(t, reg.RegisterSystem(slowTool{name: "a"}))
	require.NoError(t, reg.RegisterSystem(slowTool{name: "b"}))

	store := tracestore.NewMemoryStore(0)
	e := New(reg, tool.NewValidator(), tracelog.New(store, nil))
	root := trace.CreateRoot(trace.RunChat, "chat", "s", "agentA", "m", nil)

	calls := []Call{{ToolName: "a"}, {ToolName: "b"}}
	e.ExecuteAll(context.Background(), root, "agentA", nil, calls)

	var starts []tracestore.Entry
	for _, entry := range store.Query(root.TraceID) {
		if entry.Event == tracestore.EventToolExecutionStart {
			starts = append(starts, entry)
		}
	}
	require.Len(t, starts, 1, "exactly one tool.execution.start for the whole fan-out, not one per tool")
	assert.Equal(t, 2, starts[0].Fields["tool_count"])
	assert.ElementsMatch(t, []string{"a", "b"}, starts[0].Fields["tool_names"])
}
