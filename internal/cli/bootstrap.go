// Package cli contains the cobra commands for the ouro binary. Commands
// are thin translators: they parse flags, call the primary ports through
// a wired App, and render the results.
package cli

import (
	gocontext "context"

	"github.com/example/ouro/internal/ctxutil"
	"github.com/example/ouro/internal/wire"
)

// globalRequesterID is set by the root --requester flag.
var globalRequesterID string

// SetRequesterID stores the requester identity for this invocation.
func SetRequesterID(id string) {
	globalRequesterID = id
}

// NewContext returns the base context for a command, carrying the
// requester identity when one was given.
func NewContext() gocontext.Context {
	ctx := gocontext.Background()
	if globalRequesterID != "" {
		return ctxutil.WithRequesterID(ctx, globalRequesterID)
	}
	return ctx
}

// withApp wires the application, runs fn, and releases resources.
func withApp(fn func(*wire.App) error) error {
	application, err := wire.New()
	if err != nil {
		return err
	}
	defer application.Close()
	return fn(application)
}
