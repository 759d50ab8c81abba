package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/ouro/internal/cli"
	"github.com/example/ouro/internal/version"
)

func main() {
	var requesterID string

	rootCmd := &cobra.Command{
		Use:     "ouro",
		Short:   "ouro - self-update orchestrator",
		Version: version.String(),
		Long: `ouro safely applies AI-generated modifications to its own source tree:
queued requests are planned, risk-scored, gated on approval, snapshotted,
implemented, validated, and health-checked, with rollback on failure.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cli.SetRequesterID(requesterID)
		},
	}

	rootCmd.PersistentFlags().StringVar(&requesterID, "requester", "", "Identity recorded on submitted requests")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.String())
		},
	})
	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.DoctorCmd())
	rootCmd.AddCommand(cli.RequestCmd())
	rootCmd.AddCommand(cli.RunCmd())
	rootCmd.AddCommand(cli.QueueCmd())
	rootCmd.AddCommand(cli.LockCmd())
	rootCmd.AddCommand(cli.PlanCmd())
	rootCmd.AddCommand(cli.LogCmd())
	rootCmd.AddCommand(cli.AttachCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
