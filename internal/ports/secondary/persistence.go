// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import "context"

// UpdateRequestRepository defines the secondary port for update request persistence.
type UpdateRequestRepository interface {
	// Create persists a new update request.
	Create(ctx context.Context, request *UpdateRequestRecord) error

	// GetByID retrieves an update request by its ID.
	GetByID(ctx context.Context, id string) (*UpdateRequestRecord, error)

	// Update updates an existing update request.
	Update(ctx context.Context, request *UpdateRequestRecord) error

	// List retrieves update requests matching the given filters.
	List(ctx context.Context, filters UpdateRequestFilters) ([]*UpdateRequestRecord, error)

	// CodenameExists checks whether any non-terminal request uses the codename.
	CodenameExists(ctx context.Context, codename string) (bool, error)

	// UpdateStatus updates the status and optional failure reason.
	UpdateStatus(ctx context.Context, id, status, failureReason string) error
}

// UpdateRequestRecord represents an update request as stored in persistence.
type UpdateRequestRecord struct {
	ID              string
	Codename        string
	Timestamp       string
	RequesterID     string
	ChannelID       string
	MessageID       string
	Description     string
	ContextMessages string // JSON array
	RetryCount      int
	Status          string
	FailureReason   string
}

// UpdateRequestFilters contains filter options for querying update requests.
type UpdateRequestFilters struct {
	Status string
	Limit  int
}

// PlanRepository defines the secondary port for implementation plan persistence.
type PlanRepository interface {
	// Create persists a new plan.
	Create(ctx context.Context, plan *PlanRecord) error

	// GetByID retrieves a plan by its ID.
	GetByID(ctx context.Context, id string) (*PlanRecord, error)

	// GetByRequestID retrieves the plan for an update request.
	GetByRequestID(ctx context.Context, requestID string) (*PlanRecord, error)

	// Update updates an existing plan.
	Update(ctx context.Context, plan *PlanRecord) error

	// UpdateApproval sets the approval status and optional rejection reason.
	UpdateApproval(ctx context.Context, id, approvalStatus, rejectionReason string) error
}

// PlanRecord represents a plan as stored in persistence. The plan body is
// the full JSON document; the scalar columns exist for querying.
type PlanRecord struct {
	ID              string
	RequestID       string
	RiskLevel       string
	RequiresHuman   bool
	ApprovalStatus  string
	RejectionReason string
	Body            string // JSON document
	CreatedAt       string
	UpdatedAt       string
}

// RunRepository defines the secondary port for update run persistence.
// A run is one end-to-end execution attempt of a request.
type RunRepository interface {
	// Create persists a new run.
	Create(ctx context.Context, run *RunRecord) error

	// GetByID retrieves a run by its ID.
	GetByID(ctx context.Context, id string) (*RunRecord, error)

	// Update updates an existing run.
	Update(ctx context.Context, run *RunRecord) error

	// List retrieves runs matching the given filters.
	List(ctx context.Context, filters RunFilters) ([]*RunRecord, error)

	// GetLatestByRequestID retrieves the most recent run for a request.
	GetLatestByRequestID(ctx context.Context, requestID string) (*RunRecord, error)
}

// RunRecord represents an update run as stored in persistence.
type RunRecord struct {
	ID            string
	RequestID     string
	PlanID        string
	Phase         string
	SnapshotID    string
	Success       bool
	RolledBack    bool
	FailureReason string
	LogDir        string
	StartedAt     string
	FinishedAt    string
}

// RunFilters contains filter options for querying runs.
type RunFilters struct {
	RequestID string
	Phase     string
	Limit     int
}
