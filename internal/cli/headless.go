package cli

import (
	"os"

	"github.com/spf13/cobra"

	"heddle/internal/headless"
)

// NewHeadlessCmd builds the headless command: a line-delimited JSON
// worker over stdin/stdout for external controllers.
func NewHeadlessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "headless",
		Short: "Run as a line-delimited JSON worker on stdin/stdout",
		Long: `Run heddle as a headless worker. Requests arrive one JSON object
per line on stdin; events and results leave one JSON object per line
on stdout. The worker exits when stdin closes or on 'shutdown'.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			headless.NewWorker(os.Stdin, os.Stdout).Run()
		},
	}
}
