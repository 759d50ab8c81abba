package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/ouro/internal/core/risk"
	"github.com/example/ouro/internal/models"
	"github.com/example/ouro/internal/ports/primary"
	"github.com/example/ouro/internal/ports/secondary"
)

// ApprovalServiceImpl implements the ApprovalService interface. Approval
// state lives in the plan ledger, so a decision made from another
// process is visible to the executor polling in WaitForDecision.
type ApprovalServiceImpl struct {
	planRepo      secondary.PlanRepository
	requestRepo   secondary.UpdateRequestRepository
	criticalPaths []string
	pollInterval  time.Duration
}

// NewApprovalService creates a new ApprovalService with injected dependencies.
func NewApprovalService(
	planRepo secondary.PlanRepository,
	requestRepo secondary.UpdateRequestRepository,
	criticalPaths []string,
) *ApprovalServiceImpl {
	return &ApprovalServiceImpl{
		planRepo:      planRepo,
		requestRepo:   requestRepo,
		criticalPaths: criticalPaths,
		pollInterval:  2 * time.Second,
	}
}

// GetPlan retrieves the plan for an update request.
func (s *ApprovalServiceImpl) GetPlan(ctx context.Context, requestID string) (*models.ImplementationPlan, error) {
	record, err := s.planRepo.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return decodePlanRecord(record)
}

// Approve marks the request's pending plan as approved.
func (s *ApprovalServiceImpl) Approve(ctx context.Context, requestID string) error {
	_, record, err := s.pendingPlan(ctx, requestID)
	if err != nil {
		return err
	}
	return s.planRepo.UpdateApproval(ctx, record.ID, string(models.ApprovalApproved), "")
}

// Reject marks the request's pending plan as rejected with a reason.
func (s *ApprovalServiceImpl) Reject(ctx context.Context, requestID, reason string) error {
	if reason == "" {
		return fmt.Errorf("a rejection must carry a reason")
	}
	_, record, err := s.pendingPlan(ctx, requestID)
	if err != nil {
		return err
	}
	return s.planRepo.UpdateApproval(ctx, record.ID, string(models.ApprovalRejected), reason)
}

// Modify replaces the pending plan's tasks before approval. The modified
// plan is re-scored for risk and marked approved-as-modified.
func (s *ApprovalServiceImpl) Modify(ctx context.Context, requestID string, tasks []models.PlannedTask) error {
	if len(tasks) == 0 {
		return fmt.Errorf("a modified plan needs at least one task")
	}
	for _, task := range tasks {
		if !task.ValidComplexity() {
			return fmt.Errorf("task %s has invalid complexity %d", task.ID, task.Complexity)
		}
	}

	plan, record, err := s.pendingPlan(ctx, requestID)
	if err != nil {
		return err
	}

	plan.Tasks = tasks
	plan.RiskLevel = risk.Assess(tasks, false)
	decision := risk.ApprovalDecision(plan, s.criticalPaths)
	plan.RequiresHumanApproval = decision.Required
	plan.ApprovalReason = decision.Reason
	plan.ApprovalStatus = models.ApprovalModified

	body, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to encode modified plan: %w", err)
	}

	record.RiskLevel = plan.RiskLevel.String()
	record.RequiresHuman = plan.RequiresHumanApproval
	record.ApprovalStatus = string(models.ApprovalModified)
	record.Body = string(body)
	return s.planRepo.Update(ctx, record)
}

// ListPending lists requests currently waiting on approval.
func (s *ApprovalServiceImpl) ListPending(ctx context.Context) ([]*primary.PendingApprovalView, error) {
	requests, err := s.requestRepo.List(ctx, secondary.UpdateRequestFilters{})
	if err != nil {
		return nil, err
	}

	var pending []*primary.PendingApprovalView
	for _, request := range requests {
		record, err := s.planRepo.GetByRequestID(ctx, request.ID)
		if err != nil {
			continue
		}
		if !record.RequiresHuman || record.ApprovalStatus != string(models.ApprovalPending) {
			continue
		}
		plan, err := decodePlanRecord(record)
		if err != nil {
			continue
		}
		pending = append(pending, &primary.PendingApprovalView{
			RequestID: request.ID,
			Codename:  request.Codename,
			PlanID:    record.ID,
			RiskLevel: record.RiskLevel,
			Reason:    plan.ApprovalReason,
		})
	}
	return pending, nil
}

// WaitForDecision polls the plan ledger until the plan leaves the
// pending state or the timeout expires. Modified plans count as
// approved. Timeout resolves as TimedOut with an explanatory reason.
func (s *ApprovalServiceImpl) WaitForDecision(ctx context.Context, planID string, timeout time.Duration) (models.ApprovalStatus, string, error) {
	deadline := time.Now().Add(timeout)

	for {
		record, err := s.planRepo.GetByID(ctx, planID)
		if err != nil {
			return "", "", err
		}

		switch models.ApprovalStatus(record.ApprovalStatus) {
		case models.ApprovalApproved, models.ApprovalModified:
			return models.ApprovalApproved, "", nil
		case models.ApprovalRejected:
			return models.ApprovalRejected, record.RejectionReason, nil
		}

		if time.Now().After(deadline) {
			return models.ApprovalTimedOut,
				fmt.Sprintf("no decision within %s", timeout), nil
		}

		select {
		case <-ctx.Done():
			return "", "", ctx.Err()
		case <-time.After(s.pollInterval):
		}
	}
}

func (s *ApprovalServiceImpl) pendingPlan(ctx context.Context, requestID string) (*models.ImplementationPlan, *secondary.PlanRecord, error) {
	record, err := s.planRepo.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	if record.ApprovalStatus != string(models.ApprovalPending) {
		return nil, nil, fmt.Errorf("plan for request %s is already %s", requestID, record.ApprovalStatus)
	}
	plan, err := decodePlanRecord(record)
	if err != nil {
		return nil, nil, err
	}
	return plan, record, nil
}
