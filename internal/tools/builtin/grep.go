package builtin

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"heddle/internal/tools"
)

// GrepArgs defines the parameters for the grep tool.
type GrepArgs struct {
	Pattern string `json:"pattern" jsonschema:"description=Regular expression to search for,required"`
	Dir     string `json:"dir" jsonschema:"description=Directory to search (default: current directory)"`
	Glob    string `json:"glob" jsonschema:"description=Only search files whose base name matches this glob (e.g. *.go)"`
}

// GrepTool searches file contents with a regular expression.
type GrepTool struct {
	tools.BaseTool
	// MaxMatches caps the number of reported lines.
	MaxMatches int
	// MaxFileSize skips files larger than this many bytes.
	MaxFileSize int64
}

// NewGrepTool creates a new grep tool.
func NewGrepTool() *GrepTool {
	return &GrepTool{
		BaseTool: tools.BaseTool{
			ToolName:        "grep",
			ToolDescription: "Search file contents recursively with a regular expression. Returns file:line: text matches, one per line.",
			ToolParameters:  tools.BuildSchema(GrepArgs{}),
		},
		MaxMatches:  200,
		MaxFileSize: 2 * 1024 * 1024,
	}
}

// Execute runs the search.
func (t *GrepTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	pattern, _ := args["pattern"].(string)
	if pattern == "" {
		return "Error: pattern is required", nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Sprintf("Error: bad pattern %q: %v", pattern, err), nil
	}

	dir, _ := args["dir"].(string)
	if dir == "" {
		dir = "."
	}
	nameGlob, _ := args["glob"].(string)

	var matches []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // unreadable entries are skipped
		}
		if d.IsDir() {
			// Hidden directories are noise for code search.
			if name := d.Name(); name != "." && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if nameGlob != "" {
			if ok, _ := filepath.Match(nameGlob, d.Name()); !ok {
				return nil
			}
		}
		if info, err := d.Info(); err != nil || info.Size() > t.MaxFileSize {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return nil //nolint:nilerr
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			line := scanner.Text()
			if re.MatchString(line) {
				matches = append(matches, fmt.Sprintf("%s:%d: %s", path, lineNo, line))
				if len(matches) >= t.MaxMatches {
					return filepath.SkipAll
				}
			}
		}
		return nil
	})
	if err != nil && err != filepath.SkipAll {
		return fmt.Sprintf("Error: search failed: %v", err), nil
	}

	if len(matches) == 0 {
		return "No matches found.", nil
	}
	out := strings.Join(matches, "\n")
	if len(matches) >= t.MaxMatches {
		out += fmt.Sprintf("\n... truncated at %d matches", t.MaxMatches)
	}
	return out, nil
}
