// Package tools defines the Tool interface and the registry the agent loop
// executes tools through.
package tools

import "context"

// Tool defines the interface all tools implement.
//
// Execute returns its result as a string fed back to the model. Recoverable
// failures must be reported in the returned string or error, never by
// panicking: the registry converts a non-nil error into an error string so
// the model can react instead of the run crashing.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description of what this tool does.
	Description() string

	// Parameters returns the JSON Schema for the tool's input parameters.
	Parameters() map[string]any

	// Execute runs the tool with already-parsed arguments.
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// BaseTool provides a convenient base implementation for tools.
// Embed it and implement Execute.
type BaseTool struct {
	ToolName        string
	ToolDescription string
	ToolParameters  map[string]any
}

// Name returns the tool name.
func (t *BaseTool) Name() string {
	return t.ToolName
}

// Description returns the tool description.
func (t *BaseTool) Description() string {
	return t.ToolDescription
}

// Parameters returns the tool parameters schema.
func (t *BaseTool) Parameters() map[string]any {
	if t.ToolParameters == nil {
		return map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		}
	}
	return t.ToolParameters
}
