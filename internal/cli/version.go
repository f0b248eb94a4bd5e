package cli

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"heddle/internal/headless"
	"heddle/internal/version"
)

// Build metadata injected at link time.
var (
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// BuildInfo describes this binary.
type BuildInfo struct {
	Version         string `json:"version"`
	ProtocolVersion string `json:"protocol_version"`
	GitCommit       string `json:"git_commit"`
	BuildTime       string `json:"build_time"`
	GoVersion       string `json:"go_version"`
	OS              string `json:"os"`
	Arch            string `json:"arch"`
}

// NewVersionCmd builds the version command.
func NewVersionCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			info := BuildInfo{
				Version:         version.Version,
				ProtocolVersion: headless.OwnVersion(),
				GitCommit:       GitCommit,
				BuildTime:       BuildTime,
				GoVersion:       runtime.Version(),
				OS:              runtime.GOOS,
				Arch:            runtime.GOARCH,
			}

			if jsonOutput {
				data, _ := json.MarshalIndent(info, "", "  ")
				fmt.Println(string(data))
			} else {
				fmt.Printf("heddle %s\n", info.Version)
				fmt.Printf("  Protocol:   %s\n", info.ProtocolVersion)
				fmt.Printf("  Git commit: %s\n", info.GitCommit)
				fmt.Printf("  Built:      %s\n", info.BuildTime)
				fmt.Printf("  Go version: %s\n", info.GoVersion)
				fmt.Printf("  OS/Arch:    %s/%s\n", info.OS, info.Arch)
			}
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	return cmd
}
