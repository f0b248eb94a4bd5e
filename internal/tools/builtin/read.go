package builtin

import (
	"context"
	"fmt"
	"os"
	"strings"

	"heddle/internal/tools"
)

// ReadArgs defines the parameters for the read tool.
type ReadArgs struct {
	Path      string `json:"path" jsonschema:"description=The file path to read,required"`
	StartLine int    `json:"start_line" jsonschema:"description=Start line number (1-based). Reads from the beginning if omitted"`
	EndLine   int    `json:"end_line" jsonschema:"description=End line number (1-based inclusive). Reads to the end if omitted"`
}

// ReadTool reads files from disk.
type ReadTool struct {
	tools.BaseTool
	// MaxFileSize is the maximum file size to read in bytes.
	MaxFileSize int64
}

// NewReadTool creates a new read tool.
func NewReadTool() *ReadTool {
	return &ReadTool{
		BaseTool: tools.BaseTool{
			ToolName:        "read",
			ToolDescription: "Read the contents of a file from disk. Supports reading specific line ranges for large files.",
			ToolParameters:  tools.BuildSchema(ReadArgs{}),
		},
		MaxFileSize: 10 * 1024 * 1024,
	}
}

// Execute reads the file.
func (t *ReadTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	path, _ := args["path"].(string)
	if path == "" {
		return "Error: path is required", nil
	}

	start := intArg(args, "start_line")
	end := intArg(args, "end_line")

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Sprintf("Error: file not found: %s", path), nil
		}
		return fmt.Sprintf("Error: stat %s: %v", path, err), nil
	}
	if info.IsDir() {
		return fmt.Sprintf("Error: path is a directory: %s", path), nil
	}
	if info.Size() > t.MaxFileSize {
		return fmt.Sprintf("Error: file too large (%d bytes); read it in line ranges", info.Size()), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("Error: read %s: %v", path, err), nil
	}

	if start <= 0 && end <= 0 {
		return string(data), nil
	}

	lines := strings.Split(string(data), "\n")
	if start <= 0 {
		start = 1
	}
	if end <= 0 || end > len(lines) {
		end = len(lines)
	}
	if start > len(lines) || start > end {
		return fmt.Sprintf("Error: line range %d-%d out of bounds (file has %d lines)", start, end, len(lines)), nil
	}
	return strings.Join(lines[start-1:end], "\n"), nil
}

// intArg extracts an integer argument, tolerating the float64 shape JSON
// decoding produces.
func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
