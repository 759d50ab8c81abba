package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/ouro/internal/ports/primary"
	"github.com/example/ouro/internal/wire"
)

// RunCmd returns the run command
func RunCmd() *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run queued updates through the pipeline",
		Long: `Run queued updates through the full pipeline: preflight, planning,
approval gate, snapshot, implementation, validation, and health checks.

Failures after the snapshot roll the working tree back. By default the
queue is drained; --once stops after a single update.

Examples:
  ouro run
  ouro run --once`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()

			return withApp(func(application *wire.App) error {
				restored, err := application.Updates.RestoreQueue(ctx)
				if err != nil {
					return err
				}
				if restored > 0 {
					fmt.Printf("Restored %d queued request(s) from the ledger.\n", restored)
				}

				ran := 0
				for {
					result, err := application.Runs.RunNext(ctx)
					if err != nil {
						return err
					}
					if result == nil {
						break
					}
					ran++
					printRunResult(result)
					if once {
						break
					}
				}

				if ran == 0 {
					fmt.Println("Queue is empty; nothing to run.")
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Run at most one update")

	cmd.AddCommand(runShowCmd())
	cmd.AddCommand(runListCmd())

	return cmd
}

func printRunResult(result *primary.RunResult) {
	if result.Success {
		color.Green("✓ Update %s completed (%d files changed)", result.Codename, len(result.ChangedFiles))
	} else if result.RolledBack {
		color.Red("✗ Update %s failed and was rolled back: %s", result.Codename, result.FailureReason)
	} else {
		color.Red("✗ Update %s failed: %s", result.Codename, result.FailureReason)
	}
	fmt.Printf("  Logs: %s\n", result.LogDir)
}

func runShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [run-id]",
		Short: "Show one run's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()

			return withApp(func(application *wire.App) error {
				run, err := application.Runs.GetRun(ctx, args[0])
				if err != nil {
					return fmt.Errorf("run not found: %w", err)
				}

				fmt.Printf("Run: %s\n", run.ID)
				fmt.Printf("Request: %s\n", run.RequestID)
				fmt.Printf("Phase: %s\n", run.Phase)
				fmt.Printf("Success: %v\n", run.Success)
				if run.RolledBack {
					fmt.Println("Rolled back: yes")
				}
				if run.SnapshotID != "" {
					fmt.Printf("Snapshot: %s\n", run.SnapshotID)
				}
				if run.FailureReason != "" {
					fmt.Printf("Failure: %s\n", run.FailureReason)
				}
				fmt.Printf("Logs: %s\n", run.LogDir)
				return nil
			})
		},
	}
}

func runListCmd() *cobra.Command {
	var requestID string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List update runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()

			return withApp(func(application *wire.App) error {
				runs, err := application.Runs.ListRuns(ctx, primary.RunListFilters{
					RequestID: requestID,
					Limit:     limit,
				})
				if err != nil {
					return fmt.Errorf("failed to list runs: %w", err)
				}

				if len(runs) == 0 {
					fmt.Println("No runs found.")
					return nil
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
				fmt.Fprintln(w, "ID\tREQUEST\tPHASE\tSUCCESS\tROLLED BACK")
				fmt.Fprintln(w, "--\t-------\t-----\t-------\t-----------")
				for _, run := range runs {
					fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%v\n",
						shortID(run.ID),
						shortID(run.RequestID),
						run.Phase,
						run.Success,
						run.RolledBack,
					)
				}
				w.Flush()
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&requestID, "request", "", "Filter by request ID")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum runs to show")

	return cmd
}
