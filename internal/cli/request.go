package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/ouro/internal/ctxutil"
	"github.com/example/ouro/internal/ports/primary"
	"github.com/example/ouro/internal/wire"
)

// RequestCmd returns the request command
func RequestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Submit and inspect self-update requests",
		Long:  `Submit new self-update requests and inspect their status.`,
	}

	cmd.AddCommand(requestSubmitCmd())
	cmd.AddCommand(requestListCmd())
	cmd.AddCommand(requestStatusCmd())

	return cmd
}

func requestSubmitCmd() *cobra.Command {
	var description string
	var contextMessages []string

	cmd := &cobra.Command{
		Use:   "submit [codename]",
		Short: "Submit a new update request",
		Long: `Submit a new self-update request to the queue.

The codename identifies the update until it finishes; it must be unique
among active requests. The description tells the planner what to change.

Examples:
  ouro request submit fix-leak -d "fix the session cache memory leak"
  ouro request submit add-retry -d "retry failed webhooks" -m "discussed in standup"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()

			return withApp(func(application *wire.App) error {
				result, err := application.Updates.SubmitRequest(ctx, primary.SubmitRequestInput{
					Codename:        args[0],
					Description:     description,
					RequesterID:     ctxutil.RequesterFromContext(ctx),
					ContextMessages: contextMessages,
				})
				if err != nil {
					return fmt.Errorf("failed to submit request: %w", err)
				}

				fmt.Printf("✓ Queued update %s at position %d\n", args[0], result.QueuePosition)
				fmt.Printf("  Request ID: %s\n", result.RequestID)
				fmt.Println("  Run it with: ouro run")
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "What the update should change (required)")
	cmd.Flags().StringArrayVarP(&contextMessages, "message", "m", nil, "Conversation context for the planner (repeatable)")
	cmd.MarkFlagRequired("description")

	return cmd
}

func requestListCmd() *cobra.Command {
	var status string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List update requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()

			return withApp(func(application *wire.App) error {
				requests, err := application.Updates.ListRequests(ctx, primary.RequestFilters{
					Status: status,
					Limit:  limit,
				})
				if err != nil {
					return fmt.Errorf("failed to list requests: %w", err)
				}

				if len(requests) == 0 {
					fmt.Println("No update requests found.")
					return nil
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
				fmt.Fprintln(w, "ID\tCODENAME\tSTATUS\tSUBMITTED")
				fmt.Fprintln(w, "--\t--------\t------\t---------")
				for _, request := range requests {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
						shortID(request.ID),
						request.Codename,
						request.Status,
						request.SubmittedAt.Format(time.DateTime),
					)
				}
				w.Flush()
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum requests to show")

	return cmd
}

func requestStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [request-id]",
		Short: "Show one request's status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()

			return withApp(func(application *wire.App) error {
				request, err := application.Updates.GetRequest(ctx, args[0])
				if err != nil {
					return fmt.Errorf("request not found: %w", err)
				}

				fmt.Printf("Request: %s\n", request.ID)
				fmt.Printf("Codename: %s\n", request.Codename)
				fmt.Printf("Status: %s\n", request.Status)
				fmt.Printf("Submitted: %s\n", request.SubmittedAt.Format(time.DateTime))
				fmt.Printf("Description: %s\n", request.Description)
				if request.RequesterID != "" {
					fmt.Printf("Requester: %s\n", request.RequesterID)
				}
				if request.FailureReason != "" {
					fmt.Printf("Failure: %s\n", request.FailureReason)
				}
				return nil
			})
		},
	}
}

// shortID truncates a UUID for table display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
