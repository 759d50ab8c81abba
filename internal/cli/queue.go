package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/ouro/internal/wire"
)

// QueueCmd returns the queue command
func QueueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the update queue",
	}

	cmd.AddCommand(queueStatusCmd())
	cmd.AddCommand(queueClearCmd())

	return cmd
}

func queueStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the queue contents",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()

			return withApp(func(application *wire.App) error {
				if _, err := application.Updates.RestoreQueue(ctx); err != nil {
					return err
				}
				status, err := application.Updates.QueueStatus(ctx)
				if err != nil {
					return fmt.Errorf("failed to read queue status: %w", err)
				}

				fmt.Printf("Queue: %d of %d slots used\n", status.QueueSize, status.MaxSize)
				if status.RejectedCount > 0 {
					fmt.Printf("Rejected submissions: %d\n", status.RejectedCount)
				}
				if status.Processing {
					fmt.Printf("Processing: %s\n", status.CurrentRequest)
				}

				if len(status.Pending) == 0 {
					fmt.Println("No pending requests.")
					return nil
				}

				fmt.Println()
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
				fmt.Fprintln(w, "POSITION\tID\tCODENAME")
				fmt.Fprintln(w, "--------\t--\t--------")
				for _, entry := range status.Pending {
					fmt.Fprintf(w, "%d\t%s\t%s\n", entry.Position, shortID(entry.ID), entry.Codename)
				}
				w.Flush()
				return nil
			})
		},
	}
}

func queueClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop all pending requests",
		Long: `Drop all pending requests from the queue.

Operator recovery only: cleared requests stay in the ledger with their
last status but will not run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()

			return withApp(func(application *wire.App) error {
				if _, err := application.Updates.RestoreQueue(ctx); err != nil {
					return err
				}
				dropped, err := application.Updates.ClearQueue(ctx)
				if err != nil {
					return fmt.Errorf("failed to clear queue: %w", err)
				}
				fmt.Printf("✓ Dropped %d pending request(s)\n", dropped)
				return nil
			})
		},
	}
}
