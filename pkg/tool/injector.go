package tool

import "log/slog"

// AmbientArgs carries the values the Injector fills into a tool's marker
// parameters after validation. State is opaque to this package: agent
// state is whatever the caller's pkg/agent type happens to be.
type AmbientArgs struct {
	ToolCallID string
	State      any
	Logger     *slog.Logger
}

// Inject returns a copy of args with the InjectedToolCallID/InjectedState/
// InjectedLogger marker keys populated from ambient. Caller-supplied values
// for those keys are always dropped, so a tool never receives them from the
// model; a marker whose ambient value is empty is simply absent.
func Inject(args map[string]any, ambient AmbientArgs) map[string]any {
	out := make(map[string]any, len(args)+3)
	for k, v := range args {
		switch k {
		case InjectedToolCallID, InjectedState, InjectedLogger:
			continue
		}
		out[k] = v
	}
	if ambient.ToolCallID != "" {
		out[InjectedToolCallID] = ambient.ToolCallID
	}
	if ambient.State != nil {
		out[InjectedState] = ambient.State
	}
	if ambient.Logger != nil {
		out[InjectedLogger] = ambient.Logger
	}
	return out
}
