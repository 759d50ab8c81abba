// Package tmux manages the detached terminal sessions that
// implementation agents run in.
package tmux

import (
	"context"
	"fmt"
	"strings"

	"github.com/GianlucaP106/gotmux/gotmux"
)

// SessionManager implements secondary.AgentSessionManager with gotmux.
type SessionManager struct {
	tmux *gotmux.Tmux
}

// NewSessionManager creates a session manager backed by the default tmux
// socket.
func NewSessionManager() (*SessionManager, error) {
	tmux, err := gotmux.DefaultTmux()
	if err != nil {
		return nil, fmt.Errorf("failed to create tmux client: %w", err)
	}
	return &SessionManager{tmux: tmux}, nil
}

// escapeShellCommand works around a gotmux quoting bug where ShellCommand is
// wrapped in single quotes. The shell interprets that as a single token, so
// multi-word commands fail with "command not found" (status 127). Replacing
// spaces with ' ' (close-quote, space, open-quote) makes gotmux's wrapping
// produce separately quoted words.
func escapeShellCommand(cmd string) string {
	return strings.ReplaceAll(cmd, " ", "' '")
}

// StartSession creates a detached session running argv, rooted at dir.
func (m *SessionManager) StartSession(ctx context.Context, name, dir string, argv ...string) error {
	if m.SessionExists(ctx, name) {
		return fmt.Errorf("session %s already exists", name)
	}

	opts := &gotmux.SessionOptions{
		Name:           name,
		StartDirectory: dir,
	}
	if len(argv) > 0 {
		opts.ShellCommand = escapeShellCommand(strings.Join(argv, " "))
	}

	if _, err := m.tmux.NewSession(opts); err != nil {
		return fmt.Errorf("failed to create session %s: %w", name, err)
	}
	return nil
}

// SessionExists reports whether a session with the name is running.
func (m *SessionManager) SessionExists(_ context.Context, name string) bool {
	sessions, err := m.tmux.ListSessions()
	if err != nil {
		return false
	}
	for _, s := range sessions {
		if s.Name == name {
			return true
		}
	}
	return false
}

// KillSession terminates the named session. A session that is already
// gone is not an error.
func (m *SessionManager) KillSession(_ context.Context, name string) error {
	sessions, err := m.tmux.ListSessions()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	for _, s := range sessions {
		if s.Name == name {
			if err := s.Kill(); err != nil {
				return fmt.Errorf("failed to kill session %s: %w", name, err)
			}
			return nil
		}
	}
	return nil
}

// ListSessions returns the names of all running sessions.
func (m *SessionManager) ListSessions(_ context.Context) ([]string, error) {
	sessions, err := m.tmux.ListSessions()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	names := make([]string, 0, len(sessions))
	for _, s := range sessions {
		names = append(names, s.Name)
	}
	return names, nil
}

// AttachInstructions returns the shell command a human runs to watch the
// session.
func (m *SessionManager) AttachInstructions(name string) string {
	return fmt.Sprintf("Attach to session: tmux attach -t %s\n"+
		"Detach without stopping it: Ctrl+b then d\n", name)
}
