package builtin

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"heddle/internal/tools"
)

// BashArgs defines the parameters for the bash tool.
type BashArgs struct {
	Command string `json:"command" jsonschema:"description=The shell command to execute,required"`
	Timeout int    `json:"timeout" jsonschema:"description=Timeout in seconds (default: 60)"`
	WorkDir string `json:"work_dir" jsonschema:"description=Working directory for the command"`
}

// BashTool executes shell commands.
type BashTool struct {
	tools.BaseTool
	// MaxOutputSize caps combined stdout/stderr in bytes.
	MaxOutputSize int
}

// NewBashTool creates a new bash tool.
func NewBashTool() *BashTool {
	return &BashTool{
		BaseTool: tools.BaseTool{
			ToolName:        "bash",
			ToolDescription: "Execute a bash command and return its output. Use this to run system commands, scripts, or interact with the operating system.",
			ToolParameters:  tools.BuildSchema(BashArgs{}),
		},
		MaxOutputSize: 1024 * 1024,
	}
}

// Execute runs the command.
func (t *BashTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	command, _ := args["command"].(string)
	if command == "" {
		return "Error: command is required", nil
	}

	timeout := intArg(args, "timeout")
	if timeout <= 0 {
		timeout = 60
	}
	execCtx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	cmd := exec.CommandContext(execCtx, "bash", "-c", command)
	if workDir, _ := args["work_dir"].(string); workDir != "" {
		cmd.Dir = workDir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	var b strings.Builder
	if stdout.Len() > 0 {
		b.Write(stdout.Bytes())
	}
	if stderr.Len() > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("stderr:\n")
		b.Write(stderr.Bytes())
	}

	out := b.String()
	if len(out) > t.MaxOutputSize {
		out = out[:t.MaxOutputSize] + "\n... output truncated"
	}

	if execCtx.Err() == context.DeadlineExceeded {
		return fmt.Sprintf("Error: command timed out after %ds\n%s", timeout, out), nil
	}
	if runErr != nil {
		if out == "" {
			return fmt.Sprintf("Error: %v", runErr), nil
		}
		return fmt.Sprintf("Error: %v\n%s", runErr, out), nil
	}
	if out == "" {
		return "(no output)", nil
	}
	return out, nil
}
