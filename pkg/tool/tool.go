// Package tool defines the Tool abstraction, the argument-injection marker
// names, and the registry/validator that back the tool-calling loop.
package tool

import "context"

// Namespace distinguishes system tools (provided by the runtime, always
// available to every agent) from agent tools (declared per-agent).
type Namespace string

const (
	NamespaceSystem Namespace = "system"
	NamespaceAgent  Namespace = "agent"
)

// Result is what a single tool invocation produces. It is always returned,
// never a panic or an unrecovered error: a failing tool yields a Result
// with Success == false and Error populated.
type Result struct {
	ToolName        string `json:"tool_name"`
	Success         bool   `json:"success"`
	Value           any    `json:"value,omitempty"`
	Error           string `json:"error,omitempty"`
	ExecutionTimeMs int64  `json:"execution_time_ms"`
}

// Tool is the polymorphic contract every invokable tool satisfies,
// covering both plain functions and stateful (class-like) tools — the
// distinction is in how a Tool is constructed, not in this interface.
type Tool interface {
	Name() string
	Description() string
	// Schema returns the tool's parameters as a JSON Schema object.
	Schema() map[string]any
	// Invoke runs the tool with already-validated, already-injected
	// arguments. ctx carries the ambient trace.Context for any nested
	// tracing the tool itself wants to perform.
	Invoke(ctx context.Context, args map[string]any) (any, error)
}

// Marker argument names recognized by the Injector. A tool's parameter
// struct can declare a field tagged with one of these to receive ambient
// values post-validation; such fields must be excluded from the generated
// JSON Schema (the model never supplies them) and from argument
// validation.
const (
	InjectedToolCallID = "__tool_call_id__"
	InjectedState      = "__agent_state__"
	InjectedLogger     = "__logger__"
)

// Choice is the mode component of a ToolChoice, mapped onto each
// provider's wire representation (e.g. OpenAI's tool_choice).
type Choice string

const (
	ChoiceAuto     Choice = "auto"
	ChoiceNone     Choice = "none"
	ChoiceRequired Choice = "required"
	ChoiceSpecific Choice = "specific"
)

// ToolChoice controls how the provider is instructed to select tools.
// ToolName is only meaningful when Mode is ChoiceSpecific.
type ToolChoice struct {
	Mode     Choice
	ToolName string
}

func Auto() ToolChoice     { return ToolChoice{Mode: ChoiceAuto} }
func None() ToolChoice     { return ToolChoice{Mode: ChoiceNone} }
func Required() ToolChoice { return ToolChoice{Mode: ChoiceRequired} }
func Specific(name string) ToolChoice {
	return ToolChoice{Mode: ChoiceSpecific, ToolName: name}
}

// FilterByToolChoice computes the effective tool list and effective
// choice a provider call should use, per the forced-then-reset contract:
// none suppresses tools entirely, specific(X) narrows to just X (a
// token-saving optimization that also simulates forced choice on
// providers without native support), and auto/required pass every tool
// through unfiltered.
func FilterByToolChoice(tools []Tool, choice ToolChoice) ([]Tool, ToolChoice) {
	switch choice.Mode {
	case ChoiceNone:
		return nil, choice
	case ChoiceSpecific:
		for _, t := range tools {
			if t.Name() == choice.ToolName {
				return []Tool{t}, choice
			}
		}
		return nil, choice
	default:
		return tools, choice
	}
}
