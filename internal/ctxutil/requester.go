// Package ctxutil provides context utilities that can be safely imported anywhere.
// This package has no internal dependencies to avoid import cycles.
package ctxutil

import "context"

// RequesterKey is the context key for the requester ID.
// Exported so it can be used consistently across packages.
type RequesterKey struct{}

// WithRequesterID returns a context with the requester ID embedded.
func WithRequesterID(ctx context.Context, requesterID string) context.Context {
	return context.WithValue(ctx, RequesterKey{}, requesterID)
}

// RequesterFromContext returns the requester ID from context, or empty string if not set.
func RequesterFromContext(ctx context.Context) string {
	if v := ctx.Value(RequesterKey{}); v != nil {
		return v.(string)
	}
	return ""
}
