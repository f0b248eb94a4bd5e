package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"heddle/internal/config"
)

// NewInitCmd builds the init command, which writes a starter global
// config file.
func NewInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteDefault(); err != nil {
				return err
			}
			fmt.Printf("Config at %s\n", config.GlobalConfigPath())
			return nil
		},
	}
}
