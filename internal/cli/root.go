// Package cli wires the heddle commands.
package cli

import (
	"github.com/spf13/cobra"

	"heddle/pkg/logger"
)

// NewRootCmd builds the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "heddle",
		Short: "Heddle - LLM agent harness",
		Long: `Heddle is an LLM agent harness: it mediates between a controller
and a remote chat-completion API, executing tool calls on the local
machine within a persistent conversation session.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" || cmd.Name() == "help" {
				return nil
			}
			return logger.Init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Close()
		},
	}

	rootCmd.AddCommand(NewVersionCmd())
	rootCmd.AddCommand(NewInitCmd())
	rootCmd.AddCommand(NewHeadlessCmd())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
