// Package primary defines the primary ports (driving adapters) for the
// application. The CLI calls the application through these interfaces.
package primary

import (
	"context"
	"time"
)

// UpdateService defines the primary port for submitting and inspecting
// update requests.
type UpdateService interface {
	// SubmitRequest validates and enqueues a new update request.
	SubmitRequest(ctx context.Context, req SubmitRequestInput) (*SubmitRequestResult, error)

	// GetRequest retrieves one request by ID.
	GetRequest(ctx context.Context, requestID string) (*UpdateRequestView, error)

	// ListRequests lists requests with optional filters.
	ListRequests(ctx context.Context, filters RequestFilters) ([]*UpdateRequestView, error)

	// RestoreQueue reloads persisted queued requests into the in-memory
	// queue after a restart. Returns how many requests were restored.
	RestoreQueue(ctx context.Context) (int, error)

	// QueueStatus returns a snapshot of the pending queue.
	QueueStatus(ctx context.Context) (*QueueStatusView, error)

	// ClearQueue drops all pending requests and returns how many were dropped.
	ClearQueue(ctx context.Context) (int, error)

	// LockStatus reports who holds the global update lock, if anyone.
	LockStatus(ctx context.Context) (*LockStatusView, error)

	// ForceReleaseLock releases the lock regardless of holder and returns
	// the prior holder's update ID, empty if the lock was free.
	ForceReleaseLock(ctx context.Context) (string, error)
}

// SubmitRequestInput contains parameters for submitting an update request.
type SubmitRequestInput struct {
	Codename        string
	Description     string
	RequesterID     string
	ChannelID       string
	MessageID       string
	ContextMessages []string
}

// SubmitRequestResult contains the result of a submission.
type SubmitRequestResult struct {
	RequestID     string
	QueuePosition int
}

// UpdateRequestView represents a request at the port boundary.
type UpdateRequestView struct {
	ID            string
	Codename      string
	Description   string
	RequesterID   string
	Status        string
	FailureReason string
	RetryCount    int
	SubmittedAt   time.Time
}

// RequestFilters contains filter options for listing requests.
type RequestFilters struct {
	Status string
	Limit  int
}

// QueueStatusView is the queue snapshot shown to operators.
type QueueStatusView struct {
	QueueSize      int
	MaxSize        int
	RejectedCount  uint64
	Processing     bool
	CurrentRequest string
	Pending        []QueuedRequestView
}

// QueuedRequestView summarizes one queued request.
type QueuedRequestView struct {
	ID       string
	Codename string
	Position int
}

// LockStatusView reports the global lock state.
type LockStatusView struct {
	Locked   bool
	UpdateID string
	HeldFor  time.Duration
	Stale    bool
}
