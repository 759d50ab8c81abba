package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/ouro/internal/wire"
)

// agentSessionPrefix matches the session names the executor creates.
const agentSessionPrefix = "ouro-update-"

// AttachCmd returns the attach command
func AttachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attach [codename]",
		Short: "Show how to watch a running update's agent session",
		Long: `Show tmux attach instructions for a running update's agent session.

Without arguments, lists the live agent sessions.

Examples:
  ouro attach
  ouro attach fix-leak`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()

			return withApp(func(application *wire.App) error {
				if application.Sessions == nil {
					return fmt.Errorf("no tmux server reachable; is tmux running?")
				}

				if len(args) == 1 {
					name := agentSessionPrefix + args[0]
					if !application.Sessions.SessionExists(ctx, name) {
						return fmt.Errorf("no agent session for %q; is the update running?", args[0])
					}
					fmt.Println(application.Sessions.AttachInstructions(name))
					return nil
				}

				sessions, err := application.Sessions.ListSessions(ctx)
				if err != nil {
					return fmt.Errorf("failed to list sessions: %w", err)
				}

				found := 0
				for _, session := range sessions {
					if !strings.HasPrefix(session, agentSessionPrefix) {
						continue
					}
					found++
					fmt.Printf("%s\n  %s\n",
						strings.TrimPrefix(session, agentSessionPrefix),
						application.Sessions.AttachInstructions(session))
				}
				if found == 0 {
					fmt.Println("No live agent sessions.")
				}
				return nil
			})
		},
	}
}
