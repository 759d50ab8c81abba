// Package models contains domain types for ouro entities.
package models

import "time"

// SelfUpdateRequest represents a request to modify the running system's own
// source tree. Requests are immutable once created except for Status,
// FailureReason, and RetryCount.
type SelfUpdateRequest struct {
	ID          string
	Codename    string
	Timestamp   time.Time
	RequesterID string // opaque to the core (chat user, operator, etc.)
	ChannelID   string // opaque notification target
	MessageID   string // opaque trigger reference
	Description string
	// ContextMessages carries the full conversation context that produced
	// the request. Counted against the content byte cap together with
	// Description.
	ContextMessages []string
	// RetryCount tracks whole-request resubmissions. This is distinct from
	// CheckResult.RetriesUsed, which is scoped to a single validation check.
	RetryCount    int
	Status        UpdateStatus
	FailureReason string
}

// ContentSize returns the total byte size of user-supplied content,
// checked against the configured content cap on enqueue.
func (r *SelfUpdateRequest) ContentSize() int {
	size := len(r.Description)
	for _, m := range r.ContextMessages {
		size += len(m)
	}
	return size
}

// UpdateStatus tracks an update request through its lifecycle.
type UpdateStatus string

// Update status constants. Transitions are forward-only except for the
// three terminal states (Completed, Failed, RolledBack).
const (
	StatusQueued           UpdateStatus = "queued"
	StatusPreflightChecks  UpdateStatus = "preflight_checks"
	StatusCreatingSnapshot UpdateStatus = "creating_snapshot"
	StatusExecuting        UpdateStatus = "executing"
	StatusTesting          UpdateStatus = "testing"
	StatusCompleted        UpdateStatus = "completed"
	StatusFailed           UpdateStatus = "failed"
	StatusRolledBack       UpdateStatus = "rolled_back"
)

// statusOrder defines the forward progression of non-terminal states.
var statusOrder = map[UpdateStatus]int{
	StatusQueued:           0,
	StatusPreflightChecks:  1,
	StatusCreatingSnapshot: 2,
	StatusExecuting:        3,
	StatusTesting:          4,
}

// IsTerminal reports whether the status is one of the three terminal states.
func (s UpdateStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusRolledBack:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is a legal
// transition: strictly forward through the non-terminal sequence, or into
// any terminal state. Terminal states accept no further transitions.
func (s UpdateStatus) CanTransitionTo(next UpdateStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next.IsTerminal() {
		return true
	}
	from, ok := statusOrder[s]
	if !ok {
		return false
	}
	to, ok := statusOrder[next]
	if !ok {
		return false
	}
	return to > from
}
