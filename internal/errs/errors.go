// Package errs defines the structured error taxonomy for the update
// pipeline. Callers match on kind with errors.Is / errors.As instead of
// inspecting message substrings.
package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions that carry no extra context.
var (
	// ErrQueueFull is returned when the update queue is at its size cap.
	ErrQueueFull = errors.New("update queue is full")
	// ErrContentTooLarge is returned when a request exceeds the content
	// byte cap.
	ErrContentTooLarge = errors.New("update request content too large")
	// ErrDuplicateCodename is returned when a request with the same
	// codename is already queued.
	ErrDuplicateCodename = errors.New("duplicate request codename")
	// ErrLockBusy is returned when the system lock is held by another
	// update.
	ErrLockBusy = errors.New("system lock is busy")
)

// PlanningError indicates the planner could not produce a plan even via
// its deterministic fallback.
type PlanningError struct {
	RequestID string
	Err       error
}

func (e *PlanningError) Error() string {
	return fmt.Sprintf("planning failed for %s: %v", e.RequestID, e.Err)
}

func (e *PlanningError) Unwrap() error { return e.Err }

// SnapshotError indicates snapshot creation failed. No implementation
// step may run without a snapshot.
type SnapshotError struct {
	Label string
	Err   error
}

func (e *SnapshotError) Error() string {
	return fmt.Sprintf("snapshot %q failed: %v", e.Label, e.Err)
}

func (e *SnapshotError) Unwrap() error { return e.Err }

// ImplementationError indicates the code-generation collaborator failed
// to apply the change.
type ImplementationError struct {
	RequestID string
	Err       error
}

func (e *ImplementationError) Error() string {
	return fmt.Sprintf("implementation failed for %s: %v", e.RequestID, e.Err)
}

func (e *ImplementationError) Unwrap() error { return e.Err }

// ValidationError identifies which pipeline phase and check failed.
type ValidationError struct {
	Phase string
	Check string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Check != "" {
		return fmt.Sprintf("validation failed in %s (%s): %v", e.Phase, e.Check, e.Err)
	}
	return fmt.Sprintf("validation failed in %s: %v", e.Phase, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// HealthCheckError indicates post-update health probes found critical
// issues.
type HealthCheckError struct {
	CriticalIssues []string
}

func (e *HealthCheckError) Error() string {
	return fmt.Sprintf("health checks failed: %d critical issues", len(e.CriticalIssues))
}

// RollbackError is a distinct terminal error: the rollback itself failed
// after some other failure. It carries the original failure rather than
// masking it.
type RollbackError struct {
	SnapshotID string
	Original   error
	Err        error
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("rollback to %s failed: %v (original failure: %v)", e.SnapshotID, e.Err, e.Original)
}

func (e *RollbackError) Unwrap() error { return e.Err }

// ConfigurationError indicates an invalid or missing configuration value.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}
