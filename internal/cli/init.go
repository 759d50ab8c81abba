package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/example/ouro/internal/config"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default .ouro/config.json",
		Long: `Write a default configuration to .ouro/config.json in the current
directory. Edit it to set the agent command, critical paths, and caps.

Examples:
  ouro init
  ouro init --force   # overwrite an existing config`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}

			path := filepath.Join(cwd, ".ouro", "config.json")
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			if err := config.SaveConfig(cwd, config.DefaultConfig()); err != nil {
				return err
			}

			fmt.Printf("✓ Wrote %s\n", path)
			fmt.Println("  Set agent_command before running updates.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config")

	return cmd
}
