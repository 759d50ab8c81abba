package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/ouro/internal/wire"
)

// LogCmd returns the log command
func LogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Browse and archive per-update logs",
		Long: `Browse the per-update log directories and archive finished ones.

Each update writes main.log, per-phase logs, errors.log,
validation_results.log, and summary.json into its own directory.`,
	}

	cmd.AddCommand(logListCmd())
	cmd.AddCommand(logArchiveCmd())

	return cmd
}

func logListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List update log directories, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()

			return withApp(func(application *wire.App) error {
				logs, err := application.Logs.ListUpdateLogs(ctx)
				if err != nil {
					return fmt.Errorf("failed to list logs: %w", err)
				}

				if len(logs) == 0 {
					fmt.Println("No update logs found.")
					return nil
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
				fmt.Fprintln(w, "DIRECTORY\tCODENAME\tFILES")
				fmt.Fprintln(w, "---------\t--------\t-----")
				for _, entry := range logs {
					fmt.Fprintf(w, "%s\t%s\t%s\n",
						entry.DirName, entry.Codename, strings.Join(entry.Files, ", "))
				}
				w.Flush()
				return nil
			})
		},
	}
}

func logArchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive [directory]",
		Short: "Compress a log directory to tar.gz",
		Long: `Compress a log directory into logs/updates/archives/<name>.tar.gz.

The original directory is left in place.

Examples:
  ouro log archive fix-leak_20260825_143000_a1b2c3d4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()

			return withApp(func(application *wire.App) error {
				archivePath, err := application.Logs.ArchiveUpdateLogs(ctx, args[0])
				if err != nil {
					return fmt.Errorf("failed to archive logs: %w", err)
				}
				fmt.Printf("✓ Archived to %s\n", archivePath)
				return nil
			})
		},
	}
}
