package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/ouro/internal/ports/secondary"
)

// PlanRepository implements secondary.PlanRepository with SQLite.
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new SQLite plan repository.
func NewPlanRepository(db *sql.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Create persists a new plan.
func (r *PlanRepository) Create(ctx context.Context, plan *secondary.PlanRecord) error {
	if plan.ID == "" {
		return fmt.Errorf("plan ID must be pre-populated by service layer")
	}
	if plan.Body == "" {
		return fmt.Errorf("plan body must be pre-populated by service layer")
	}

	approvalStatus := plan.ApprovalStatus
	if approvalStatus == "" {
		approvalStatus = "pending"
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO plans (id, request_id, risk_level, requires_human, approval_status, rejection_reason, body)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		plan.ID, plan.RequestID, plan.RiskLevel, plan.RequiresHuman,
		approvalStatus, nullable(plan.RejectionReason), plan.Body,
	)
	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}

	return nil
}

// GetByID retrieves a plan by its ID.
func (r *PlanRepository) GetByID(ctx context.Context, id string) (*secondary.PlanRecord, error) {
	record, err := scanPlan(r.db.QueryRowContext(ctx,
		selectPlanColumns+" FROM plans WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("plan %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return record, nil
}

// GetByRequestID retrieves the most recent plan for an update request.
func (r *PlanRepository) GetByRequestID(ctx context.Context, requestID string) (*secondary.PlanRecord, error) {
	record, err := scanPlan(r.db.QueryRowContext(ctx,
		selectPlanColumns+" FROM plans WHERE request_id = ? ORDER BY created_at DESC LIMIT 1", requestID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no plan found for request %s", requestID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return record, nil
}

// Update updates an existing plan.
func (r *PlanRepository) Update(ctx context.Context, plan *secondary.PlanRecord) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE plans SET
		 risk_level = ?, requires_human = ?, approval_status = ?, rejection_reason = ?, body = ?,
		 updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		plan.RiskLevel, plan.RequiresHuman, plan.ApprovalStatus,
		nullable(plan.RejectionReason), plan.Body, plan.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}
	return requireOneRow(result, "plan", plan.ID)
}

// UpdateApproval sets the approval status and optional rejection reason.
func (r *PlanRepository) UpdateApproval(ctx context.Context, id, approvalStatus, rejectionReason string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE plans SET approval_status = ?, rejection_reason = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		approvalStatus, nullable(rejectionReason), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update plan approval: %w", err)
	}
	return requireOneRow(result, "plan", id)
}

const selectPlanColumns = `SELECT id, request_id, risk_level, requires_human, approval_status,
 rejection_reason, body, created_at, updated_at`

func scanPlan(row rowScanner) (*secondary.PlanRecord, error) {
	var (
		rejectionReason sql.NullString
		createdAt       time.Time
		updatedAt       sql.NullTime
	)

	record := &secondary.PlanRecord{}
	err := row.Scan(&record.ID, &record.RequestID, &record.RiskLevel, &record.RequiresHuman,
		&record.ApprovalStatus, &rejectionReason, &record.Body, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	record.RejectionReason = rejectionReason.String
	record.CreatedAt = createdAt.Format(time.RFC3339)
	if updatedAt.Valid {
		record.UpdatedAt = updatedAt.Time.Format(time.RFC3339)
	}
	return record, nil
}
