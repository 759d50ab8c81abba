package secondary

import "context"

// AgentSessionManager defines the secondary port for the detached terminal
// sessions that implementation agents run in.
type AgentSessionManager interface {
	// StartSession creates a detached session named name, rooted at dir,
	// running argv inside it.
	StartSession(ctx context.Context, name, dir string, argv ...string) error

	// SessionExists reports whether a session with the name is running.
	SessionExists(ctx context.Context, name string) bool

	// KillSession terminates the named session. Killing a session that is
	// already gone is not an error.
	KillSession(ctx context.Context, name string) error

	// ListSessions returns the names of all running sessions.
	ListSessions(ctx context.Context) ([]string, error)

	// AttachInstructions returns the shell command a human runs to watch
	// the session.
	AttachInstructions(name string) string
}
