package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/ouro/internal/wire"
)

// LockCmd returns the lock command
func LockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Inspect and manage the global update lock",
	}

	cmd.AddCommand(lockStatusCmd())
	cmd.AddCommand(lockForceReleaseCmd())

	return cmd
}

func lockStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show who holds the update lock",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()

			return withApp(func(application *wire.App) error {
				status, err := application.Updates.LockStatus(ctx)
				if err != nil {
					return fmt.Errorf("failed to read lock status: %w", err)
				}

				if !status.Locked {
					fmt.Println("Lock is free.")
					return nil
				}

				fmt.Printf("Locked by update %s (held for %s)\n",
					status.UpdateID, status.HeldFor.Round(time.Second))
				if status.Stale {
					fmt.Println("⚠ Lock looks stale. Release it with: ouro lock force-release")
				}
				return nil
			})
		},
	}
}

func lockForceReleaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "force-release",
		Short: "Release the lock regardless of holder",
		Long: `Release the global update lock regardless of who holds it.

Operator recovery only: releasing the lock under a live update lets a
second update run concurrently against the same tree.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()

			return withApp(func(application *wire.App) error {
				prior, err := application.Updates.ForceReleaseLock(ctx)
				if err != nil {
					return fmt.Errorf("failed to release lock: %w", err)
				}
				if prior == "" {
					fmt.Println("Lock was already free.")
					return nil
				}
				fmt.Printf("✓ Released lock held by update %s\n", prior)
				return nil
			})
		},
	}
}
