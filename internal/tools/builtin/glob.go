package builtin

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"heddle/internal/tools"
)

// GlobArgs defines the parameters for the glob tool.
type GlobArgs struct {
	Pattern string `json:"pattern" jsonschema:"description=Glob pattern to match (e.g. internal/*/*.go),required"`
	Dir     string `json:"dir" jsonschema:"description=Directory to resolve the pattern from (default: current directory)"`
}

// GlobTool matches file paths against a glob pattern.
type GlobTool struct {
	tools.BaseTool
	// MaxResults caps the number of returned paths.
	MaxResults int
}

// NewGlobTool creates a new glob tool.
func NewGlobTool() *GlobTool {
	return &GlobTool{
		BaseTool: tools.BaseTool{
			ToolName:        "glob",
			ToolDescription: "Find files matching a glob pattern. Returns matching paths sorted alphabetically, one per line.",
			ToolParameters:  tools.BuildSchema(GlobArgs{}),
		},
		MaxResults: 500,
	}
}

// Execute resolves the pattern.
func (t *GlobTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	pattern, _ := args["pattern"].(string)
	if pattern == "" {
		return "Error: pattern is required", nil
	}
	if dir, _ := args["dir"].(string); dir != "" {
		pattern = filepath.Join(dir, pattern)
	}

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Sprintf("Error: bad pattern %q: %v", pattern, err), nil
	}
	if len(matches) == 0 {
		return "No files matched.", nil
	}

	sort.Strings(matches)
	truncated := false
	if len(matches) > t.MaxResults {
		matches = matches[:t.MaxResults]
		truncated = true
	}

	out := strings.Join(matches, "\n")
	if truncated {
		out += fmt.Sprintf("\n... truncated at %d results", t.MaxResults)
	}
	return out, nil
}
