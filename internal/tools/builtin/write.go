package builtin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"heddle/internal/tools"
)

// WriteArgs defines the parameters for the write tool.
type WriteArgs struct {
	Path    string `json:"path" jsonschema:"description=The file path to write,required"`
	Content string `json:"content" jsonschema:"description=The content to write,required"`
}

// WriteTool writes files to disk, creating parent directories as needed.
type WriteTool struct {
	tools.BaseTool
}

// NewWriteTool creates a new write tool.
func NewWriteTool() *WriteTool {
	return &WriteTool{
		BaseTool: tools.BaseTool{
			ToolName:        "write",
			ToolDescription: "Write content to a file, replacing it if it exists. Parent directories are created automatically.",
			ToolParameters:  tools.BuildSchema(WriteArgs{}),
		},
	}
}

// Execute writes the file.
func (t *WriteTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	path, _ := args["path"].(string)
	if path == "" {
		return "Error: path is required", nil
	}
	content, ok := args["content"].(string)
	if !ok {
		return "Error: content is required", nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Sprintf("Error: create directory %s: %v", dir, err), nil
		}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Sprintf("Error: write %s: %v", path, err), nil
	}
	return fmt.Sprintf("Wrote %d bytes to %s", len(content), path), nil
}
