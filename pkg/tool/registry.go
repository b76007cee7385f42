package tool

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ConfigurationError reports an invalid registry mutation: a duplicate
// name within a namespace, or an agent tool name colliding with a system
// tool. Always raised at registration, never at lookup time.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string { return "agentrt: configuration error: " + e.Reason }

// Registry holds tools under two namespaces, system and agent, with
// case-insensitive name lookup. System tools are shared across every
// agent; agent tools are scoped to the agent that registered them.
type Registry struct {
	mu     sync.RWMutex
	system map[string]Tool
	agents map[string]map[string]Tool // agentName -> lowercase tool name -> Tool
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		system: make(map[string]Tool),
		agents: make(map[string]map[string]Tool),
	}
}

// RegisterSystem adds t to the system namespace.
func (r *Registry) RegisterSystem(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(t.Name())
	if _, exists := r.system[key]; exists {
		return &ConfigurationError{Reason: fmt.Sprintf("system tool %q already registered", t.Name())}
	}
	r.system[key] = t
	return nil
}

// RegisterAgent adds t to agentName's namespace. A name that collides
// with an already-registered system tool is rejected rather than allowed
// to shadow it: the agent namespace only ever extends the system
// namespace, never hides part of it.
func (r *Registry) RegisterAgent(agentName string, t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(t.Name())
	if _, exists := r.system[key]; exists {
		return &ConfigurationError{Reason: fmt.Sprintf("agent %q tool %q conflicts with a system tool of the same name", agentName, t.Name())}
	}
	bucket, ok := r.agents[agentName]
	if !ok {
		bucket = make(map[string]Tool)
		r.agents[agentName] = bucket
	}
	if _, exists := bucket[key]; exists {
		return &ConfigurationError{Reason: fmt.Sprintf("agent %q tool %q already registered", agentName, t.Name())}
	}
	bucket[key] = t
	return nil
}

// Lookup resolves name for agentName, checking the agent namespace first
// and falling back to the system namespace. Lookup is case-insensitive.
func (r *Registry) Lookup(agentName, name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key := strings.ToLower(name)
	if bucket, ok := r.agents[agentName]; ok {
		if t, ok := bucket[key]; ok {
			return t, true
		}
	}
	t, ok := r.system[key]
	return t, ok
}

// Available returns every tool visible to agentName (system ∪ agent),
// sorted by name for deterministic iteration (e.g. when building a
// provider's tool list).
func (r *Registry) Available(agentName string) []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]Tool)
	for k, t := range r.system {
		seen[k] = t
	}
	for k, t := range r.agents[agentName] {
		seen[k] = t
	}

	out := make([]Tool, 0, len(seen))
	for _, t := range seen {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
