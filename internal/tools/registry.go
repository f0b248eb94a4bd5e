package tools

import (
	"context"
	"encoding/json"
	"sync"

	"heddle/internal/provider"
)

// Registry manages a collection of tools, preserving registration order.
// It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry creates a new empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool to the registry.
// Returns ErrToolAlreadyExists if the name is already taken.
func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Name()
	if _, exists := r.tools[name]; exists {
		return &ToolAlreadyExistsError{Name: name}
	}

	r.tools[name] = tool
	r.order = append(r.order, name)
	return nil
}

// MustRegister adds a tool and panics on error. For built-in registration
// during initialization.
func (r *Registry) MustRegister(tool Tool) {
	if err := r.Register(tool); err != nil {
		panic(err)
	}
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[name]
	return tool, ok
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Definitions projects the registry to the wire tool format sent to the
// model, in registration order.
func (r *Registry) Definitions() []provider.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]provider.Tool, 0, len(r.order))
	for _, name := range r.order {
		tool := r.tools[name]
		params, err := json.Marshal(tool.Parameters())
		if err != nil {
			// Parameters come from BuildSchema and are always marshalable;
			// fall back to an open schema rather than dropping the tool.
			params = []byte(`{"type":"object","properties":{}}`)
		}
		out = append(out, provider.Tool{
			Type: "function",
			Function: provider.ToolFunction{
				Name:        name,
				Description: tool.Description(),
				Parameters:  params,
			},
		})
	}
	return out
}

// Filter returns a new registry containing only the named tools, in this
// registry's registration order. Unknown names are ignored. An empty filter
// returns the receiver unchanged.
func (r *Registry) Filter(names []string) *Registry {
	if len(names) == 0 {
		return r
	}
	keep := make(map[string]bool, len(names))
	for _, n := range names {
		keep[n] = true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	filtered := NewRegistry()
	for _, name := range r.order {
		if keep[name] {
			filtered.tools[name] = r.tools[name]
			filtered.order = append(filtered.order, name)
		}
	}
	return filtered
}

// Execute runs a tool by name with raw JSON-string arguments.
//
// An unregistered name is a hard failure and returns ErrToolNotFound.
// Everything else is recovered into the result string so it can be fed back
// to the model: arguments that fail to parse produce
// "Error: Invalid JSON arguments: <args>", and a tool error produces
// "Error: <message>".
func (r *Registry) Execute(ctx context.Context, name, argsJSON string) (string, error) {
	tool, ok := r.Get(name)
	if !ok {
		return "", &ToolNotFoundError{Name: name}
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return "Error: Invalid JSON arguments: " + argsJSON, nil
	}

	out, err := tool.Execute(ctx, args)
	if err != nil {
		return "Error: " + err.Error(), nil
	}
	return out, nil
}
