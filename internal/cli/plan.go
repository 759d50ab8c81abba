package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/ouro/internal/models"
	"github.com/example/ouro/internal/wire"
)

// PlanCmd returns the plan command
func PlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Inspect and decide on implementation plans",
		Long: `Inspect implementation plans and resolve the approval gate.

Plans that require human approval block their update until approved,
rejected, or modified.`,
	}

	cmd.AddCommand(planShowCmd())
	cmd.AddCommand(planPendingCmd())
	cmd.AddCommand(planApproveCmd())
	cmd.AddCommand(planRejectCmd())
	cmd.AddCommand(planModifyCmd())

	return cmd
}

func planShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [request-id]",
		Short: "Show the plan for a request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()

			return withApp(func(application *wire.App) error {
				plan, err := application.Approvals.GetPlan(ctx, args[0])
				if err != nil {
					return fmt.Errorf("plan not found: %w", err)
				}
				printPlan(plan)
				return nil
			})
		},
	}
}

func printPlan(plan *models.ImplementationPlan) {
	fmt.Printf("Plan: %s\n", plan.PlanID)
	fmt.Printf("Request: %s\n", plan.RequestID)
	fmt.Printf("Summary: %s\n", plan.Summary)
	fmt.Printf("Risk: %s\n", plan.RiskLevel.Describe())
	fmt.Printf("Approval: %s", plan.ApprovalStatus)
	if plan.RequiresHumanApproval && plan.ApprovalStatus == models.ApprovalPending {
		fmt.Printf(" (required: %s)", plan.ApprovalReason)
	}
	fmt.Println()
	if plan.RejectionReason != "" {
		fmt.Printf("Rejection reason: %s\n", plan.RejectionReason)
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "TASK\tCATEGORY\tCOMPLEXITY\tDESCRIPTION")
	fmt.Fprintln(w, "----\t--------\t----------\t-----------")
	for _, task := range plan.Tasks {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", task.ID, task.Category, task.Complexity, task.Description)
	}
	w.Flush()

	if len(plan.IdentifiedRisks) > 0 {
		fmt.Println("\nRisks:")
		for _, risk := range plan.IdentifiedRisks {
			fmt.Printf("  - %s\n", risk)
		}
	}
	if plan.RollbackStrategy != "" {
		fmt.Printf("\nRollback: %s\n", plan.RollbackStrategy)
	}
}

func planPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List plans awaiting approval",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()

			return withApp(func(application *wire.App) error {
				pending, err := application.Approvals.ListPending(ctx)
				if err != nil {
					return fmt.Errorf("failed to list pending plans: %w", err)
				}

				if len(pending) == 0 {
					fmt.Println("No plans awaiting approval.")
					return nil
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
				fmt.Fprintln(w, "REQUEST\tCODENAME\tRISK\tREASON")
				fmt.Fprintln(w, "-------\t--------\t----\t------")
				for _, entry := range pending {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
						shortID(entry.RequestID), entry.Codename, entry.RiskLevel, entry.Reason)
				}
				w.Flush()
				return nil
			})
		},
	}
}

func planApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve [request-id]",
		Short: "Approve a pending plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()

			return withApp(func(application *wire.App) error {
				if err := application.Approvals.Approve(ctx, args[0]); err != nil {
					return fmt.Errorf("failed to approve plan: %w", err)
				}
				color.Green("✓ Plan approved for request %s", args[0])
				return nil
			})
		},
	}
}

func planRejectCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "reject [request-id]",
		Short: "Reject a pending plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()

			return withApp(func(application *wire.App) error {
				if err := application.Approvals.Reject(ctx, args[0], reason); err != nil {
					return fmt.Errorf("failed to reject plan: %w", err)
				}
				color.Red("✗ Plan rejected for request %s", args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&reason, "reason", "r", "", "Why the plan is rejected (required)")
	cmd.MarkFlagRequired("reason")

	return cmd
}

func planModifyCmd() *cobra.Command {
	var tasksFile string

	cmd := &cobra.Command{
		Use:   "modify [request-id]",
		Short: "Replace a pending plan's tasks",
		Long: `Replace a pending plan's tasks before approval.

The tasks file is a JSON array of tasks:
  [{"id":"task-1","description":"...","category":"CodeChange","complexity":3}]

The modified plan is re-scored for risk and counts as approved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()

			data, err := os.ReadFile(tasksFile)
			if err != nil {
				return fmt.Errorf("failed to read tasks file: %w", err)
			}
			var tasks []models.PlannedTask
			if err := json.Unmarshal(data, &tasks); err != nil {
				return fmt.Errorf("invalid tasks file: %w", err)
			}

			return withApp(func(application *wire.App) error {
				if err := application.Approvals.Modify(ctx, args[0], tasks); err != nil {
					return fmt.Errorf("failed to modify plan: %w", err)
				}
				color.Green("✓ Plan modified for request %s (%d tasks)", args[0], len(tasks))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&tasksFile, "tasks", "t", "", "Path to the replacement tasks JSON (required)")
	cmd.MarkFlagRequired("tasks")

	return cmd
}
