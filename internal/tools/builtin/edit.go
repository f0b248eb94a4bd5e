package builtin

import (
	"context"
	"fmt"
	"os"
	"strings"

	"heddle/internal/tools"
)

// EditArgs defines the parameters for the edit tool.
type EditArgs struct {
	Path       string `json:"path" jsonschema:"description=The file path to edit,required"`
	OldText    string `json:"old_text" jsonschema:"description=The exact text to find (must match exactly including whitespace),required"`
	NewText    string `json:"new_text" jsonschema:"description=The text to replace old_text with"`
	ReplaceAll bool   `json:"replace_all" jsonschema:"description=Replace every occurrence instead of requiring a unique match"`
}

// EditTool edits existing files by exact text replacement.
type EditTool struct {
	tools.BaseTool
}

// NewEditTool creates a new edit tool.
func NewEditTool() *EditTool {
	return &EditTool{
		BaseTool: tools.BaseTool{
			ToolName:        "edit",
			ToolDescription: "Edit an existing file by replacing specific text. old_text must match exactly, including whitespace and indentation. Use this for precise edits instead of rewriting entire files.",
			ToolParameters:  tools.BuildSchema(EditArgs{}),
		},
	}
}

// Execute edits the file by replacing old_text with new_text.
func (t *EditTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	path, _ := args["path"].(string)
	if path == "" {
		return "Error: path is required", nil
	}
	oldText, _ := args["old_text"].(string)
	if oldText == "" {
		return "Error: old_text is required", nil
	}
	newText, _ := args["new_text"].(string)
	replaceAll, _ := args["replace_all"].(bool)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Sprintf("Error: file not found: %s", path), nil
		}
		return fmt.Sprintf("Error: read %s: %v", path, err), nil
	}
	content := string(data)

	count := strings.Count(content, oldText)
	if count == 0 {
		return "Error: old_text not found in file. Make sure it matches exactly, including whitespace.", nil
	}
	if count > 1 && !replaceAll {
		return fmt.Sprintf("Error: old_text matches %d locations. Provide more context to make the match unique, or set replace_all.", count), nil
	}

	var updated string
	if replaceAll {
		updated = strings.ReplaceAll(content, oldText, newText)
	} else {
		updated = strings.Replace(content, oldText, newText, 1)
	}

	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		return fmt.Sprintf("Error: write %s: %v", path, err), nil
	}
	if replaceAll {
		return fmt.Sprintf("Edited %s (%d replacements)", path, count), nil
	}
	return fmt.Sprintf("Edited %s", path), nil
}
