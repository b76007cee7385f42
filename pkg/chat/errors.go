package chat

import "fmt"

// ValidationError reports a malformed chat request: currently only an
// empty user message. Surfaced to the caller, never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "chat: validation error: " + e.Reason }

// IterationCapExceededError is raised when the tool-calling loop runs
// MAX_ITERATIONS iterations without the model producing a final textual
// answer.
type IterationCapExceededError struct {
	MaxIterations int
}

func (e *IterationCapExceededError) Error() string {
	return fmt.Sprintf("chat: max tool iterations exceeded (%d)", e.MaxIterations)
}

// ChatException wraps any error surfaced from the provider handler or
// the orchestration loop itself, preserving the original as Cause. It is
// the only error type returned from Chat/ChatStream besides ValidationError
// and context.Canceled/context.DeadlineExceeded.
type ChatException struct {
	Cause error
}

func (e *ChatException) Error() string { return "chat: " + e.Cause.Error() }

func (e *ChatException) Unwrap() error { return e.Cause }
