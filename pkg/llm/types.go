// Package llm defines the provider-agnostic contract shared by every
// model handler: the wire-independent Message/ToolCall shapes and the
// normalized non-streaming/streaming response types each provider package
// (pkg/llm/openai, pkg/llm/ollama) produces.
package llm

import "github.com/agentcore/agentrt/pkg/tool"

// Role identifies the speaker of a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one turn in a conversation, provider-agnostic.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCallRequest // set on an assistant message requesting tools
	ToolCallID string            // set on a tool-role message answering a call
	Name       string            // tool name, set on a tool-role message
}

// ToolCallRequest is one tool invocation the model asked for.
type ToolCallRequest struct {
	ID        string
	ToolName  string
	Arguments map[string]any
}

// ToolDefinition is what gets sent to the provider describing one
// available tool.
type ToolDefinition struct {
	Name        string
	Description string
	Schema      map[string]any
}

// ToolDefinitionsFrom projects a slice of tool.Tool into ToolDefinition,
// the shape every provider package consumes.
func ToolDefinitionsFrom(tools []tool.Tool) []ToolDefinition {
	defs := make([]ToolDefinition, 0, len(tools))
	for _, t := range tools {
		defs = append(defs, ToolDefinition{Name: t.Name(), Description: t.Description(), Schema: t.Schema()})
	}
	return defs
}

// Response is a provider's normalized, non-streaming reply: either plain
// text or one or more requested tool calls (never both populated at once
// in well-formed output, though callers should treat ToolCalls as
// authoritative when present).
type Response struct {
	Content      string
	ToolCalls    []ToolCallRequest
	TokensUsed   int
}

// StreamEventKind tags one element of a streamed response.
type StreamEventKind string

const (
	StreamText     StreamEventKind = "text"
	StreamToolCall StreamEventKind = "tool_call"
	StreamDone     StreamEventKind = "done"
	StreamError    StreamEventKind = "error"
)

// StreamEvent is one element yielded while streaming a response.
type StreamEvent struct {
	Kind      StreamEventKind
	Text      string
	ToolCalls []ToolCallRequest
	TokensUsed int
	Err       error
}

// Request bundles everything a provider needs for one completion call.
type Request struct {
	Model       string
	Messages    []Message
	Tools       []ToolDefinition
	ToolChoice  tool.ToolChoice
	Temperature *float64
	MaxTokens   *int
	TopP        *float64
	TopK        *int
	Think       string // "", "low", "medium", "high", or "true"/"false" (Ollama only)
}
