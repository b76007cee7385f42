// Package toolexec implements the Tool Executor: it resolves a tool call
// against the registry, validates and injects its arguments, invokes it
// inside its own child trace context, and never lets a tool's panic or
// error escape — every call produces a tool.Result. Fan-out across
// multiple simultaneous tool calls runs them concurrently while
// preserving the caller's input order in the returned slice, grounded on
// the original implementation's asyncio.gather(..., return_exceptions=True).
package toolexec

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/agentcore/agentrt/pkg/tool"
	"github.com/agentcore/agentrt/pkg/trace"
	"github.com/agentcore/agentrt/pkg/tracelog"
)

// Call is one model-requested tool invocation awaiting execution.
type Call struct {
	ToolCallID string
	ToolName   string
	Args       map[string]any
}

// MetricsRecorder receives one observation per tool invocation.
// pkg/metrics.Recorder implements it; wiring it is optional.
type MetricsRecorder interface {
	RecordToolCall(toolName string, duration time.Duration, success bool)
}

// Executor resolves, validates, and runs tool calls on behalf of one
// agent.
type Executor struct {
	registry  *tool.Registry
	validator *tool.Validator
	logger    *tracelog.Logger
	metrics   MetricsRecorder
}

// New builds an Executor.
func New(registry *tool.Registry, validator *tool.Validator, logger *tracelog.Logger) *Executor {
	return &Executor{registry: registry, validator: validator, logger: logger}
}

// WithMetrics attaches a MetricsRecorder and returns the Executor for
// chaining at construction time.
func (e *Executor) WithMetrics(m MetricsRecorder) *Executor {
	e.metrics = m
	return e
}

// Execute runs a single tool call under parent's trace context, never
// returning an error: any failure is captured into the returned Result.
func (e *Executor) Execute(ctx context.Context, parent trace.Context, agentName string, state any, call Call) tool.Result {
	child := parent.CreateChild(trace.RunTool, "tool.execute", map[string]any{
		"tool_name":    call.ToolName,
		"tool_call_id": call.ToolCallID,
	})
	childCtx := trace.WithAmbient(ctx, child)

	start := time.Now()

	result := e.execute(childCtx, child, agentName, state, call)
	result.ExecutionTimeMs = time.Since(start).Milliseconds()

	if e.logger != nil {
		preview := result.Error
		if result.Success {
			preview = fmt.Sprintf("%v", result.Value)
		}
		e.logger.ToolResult(child, call.ToolName, time.Since(start), result.Success, preview)
	}
	if e.metrics != nil {
		e.metrics.RecordToolCall(call.ToolName, time.Since(start), result.Success)
	}
	return result
}

func (e *Executor) execute(ctx context.Context, child trace.Context, agentName string, state any, call Call) (result tool.Result) {
	result.ToolName = call.ToolName

	defer func() {
		if r := recover(); r != nil {
			result.Success = false
			result.Error = fmt.Sprintf("tool panicked: %v", r)
			result.Value = nil
		}
	}()

	t, ok := e.registry.Lookup(agentName, call.ToolName)
	if !ok {
		result.Success = false
		result.Error = fmt.Sprintf("unknown tool: %s", call.ToolName)
		return result
	}

	if err := e.validator.Validate(t, call.Args); err != nil {
		result.Success = false
		result.Error = fmt.Sprintf("invalid arguments: %v", err)
		return result
	}

	ambient := tool.AmbientArgs{ToolCallID: call.ToolCallID, State: state}
	if e.logger != nil {
		ambient.Logger = ambientLogger(e.logger, child)
	}
	injected := tool.Inject(call.Args, ambient)

	value, err := t.Invoke(ctx, injected)
	if err != nil {
		result.Success = false
		result.Error = err.Error()
		return result
	}

	result.Success = true
	result.Value = value
	return result
}

// ExecuteAll runs every call concurrently, preserving input order in the
// returned slice regardless of completion order. One call's failure never
// cancels or affects any sibling call. It logs a single aggregate
// tool.execution.start event for the whole fan-out before dispatching any
// individual call.
func (e *Executor) ExecuteAll(ctx context.Context, parent trace.Context, agentName string, state any, calls []Call) []tool.Result {
	if e.logger != nil {
		names := make([]string, len(calls))
		for i, call := range calls {
			names[i] = call.ToolName
		}
		e.logger.ToolExecutionStart(parent, names)
	}

	results := make([]tool.Result, len(calls))

	var wg sync.WaitGroup
	wg.Add(len(calls))
	for i, call := range calls {
		i, call := i, call
		go func() {
			defer wg.Done()
			results[i] = e.Execute(ctx, parent, agentName, state, call)
		}()
	}
	wg.Wait()
	return results
}
