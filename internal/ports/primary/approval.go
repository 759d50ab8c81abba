package primary

import (
	"context"

	"github.com/example/ouro/internal/models"
)

// ApprovalService defines the primary port for the human approval gate.
type ApprovalService interface {
	// GetPlan retrieves the plan for an update request.
	GetPlan(ctx context.Context, requestID string) (*models.ImplementationPlan, error)

	// Approve marks the request's pending plan as approved.
	Approve(ctx context.Context, requestID string) error

	// Reject marks the request's pending plan as rejected with a reason.
	Reject(ctx context.Context, requestID, reason string) error

	// Modify replaces the pending plan's tasks before approval. The
	// replacement is re-scored for risk.
	Modify(ctx context.Context, requestID string, tasks []models.PlannedTask) error

	// ListPending lists requests currently waiting on approval.
	ListPending(ctx context.Context) ([]*PendingApprovalView, error)
}

// PendingApprovalView summarizes one plan awaiting approval.
type PendingApprovalView struct {
	RequestID string
	Codename  string
	PlanID    string
	RiskLevel string
	Reason    string
}
