// Package builtin provides the built-in tools for the heddle agent runtime.
package builtin

import "heddle/internal/tools"

// RegisterDefaults registers all built-in tools into the registry.
// Registration order is the order definitions are sent to the model.
func RegisterDefaults(r *tools.Registry) {
	r.MustRegister(NewReadTool())
	r.MustRegister(NewWriteTool())
	r.MustRegister(NewEditTool())
	r.MustRegister(NewGlobTool())
	r.MustRegister(NewGrepTool())
	r.MustRegister(NewBashTool())
}
