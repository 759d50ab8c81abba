package app

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/example/ouro/internal/models"
	"github.com/example/ouro/internal/ports/secondary"
)

// seedPendingPlan stores a plan record awaiting approval for request-1.
func seedPendingPlan(t *testing.T, planRepo *mockPlanRepo, requiresHuman bool) *secondary.PlanRecord {
	t.Helper()
	plan := &models.ImplementationPlan{
		PlanID:                "plan-1",
		RequestID:             "request-1",
		Summary:               "tighten queue bounds",
		RiskLevel:             models.RiskMedium,
		RequiresHumanApproval: requiresHuman,
		ApprovalReason:        "risk review",
		Tasks: []models.PlannedTask{
			{ID: "task-1", Description: "bound the queue", Category: models.CategoryCodeChange, Complexity: 3},
		},
		ApprovalStatus: models.ApprovalPending,
	}
	body, err := json.Marshal(plan)
	if err != nil {
		t.Fatalf("failed to encode plan: %v", err)
	}
	record := &secondary.PlanRecord{
		ID:             "plan-1",
		RequestID:      "request-1",
		RiskLevel:      plan.RiskLevel.String(),
		RequiresHuman:  requiresHuman,
		ApprovalStatus: string(models.ApprovalPending),
		Body:           string(body),
	}
	if err := planRepo.Create(context.Background(), record); err != nil {
		t.Fatalf("failed to seed plan: %v", err)
	}
	return record
}

func TestApprove(t *testing.T) {
	planRepo := newMockPlanRepo()
	seedPendingPlan(t, planRepo, true)
	service := NewApprovalService(planRepo, newMockRequestRepo(), nil)

	if err := service.Approve(context.Background(), "request-1"); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if planRepo.plans["plan-1"].ApprovalStatus != string(models.ApprovalApproved) {
		t.Errorf("plan should be approved, got %s", planRepo.plans["plan-1"].ApprovalStatus)
	}
}

func TestApproveAlreadyDecided(t *testing.T) {
	planRepo := newMockPlanRepo()
	record := seedPendingPlan(t, planRepo, true)
	record.ApprovalStatus = string(models.ApprovalRejected)
	service := NewApprovalService(planRepo, newMockRequestRepo(), nil)

	if err := service.Approve(context.Background(), "request-1"); err == nil {
		t.Error("approving a decided plan should fail")
	}
}

func TestRejectRequiresReason(t *testing.T) {
	planRepo := newMockPlanRepo()
	seedPendingPlan(t, planRepo, true)
	service := NewApprovalService(planRepo, newMockRequestRepo(), nil)
	ctx := context.Background()

	if err := service.Reject(ctx, "request-1", ""); err == nil {
		t.Error("a reasonless rejection should fail")
	}
	if err := service.Reject(ctx, "request-1", "too risky this week"); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	record := planRepo.plans["plan-1"]
	if record.ApprovalStatus != string(models.ApprovalRejected) || record.RejectionReason != "too risky this week" {
		t.Errorf("unexpected record after rejection: %+v", record)
	}
}

func TestModifyReplacesTasksAndRescoresRisk(t *testing.T) {
	planRepo := newMockPlanRepo()
	seedPendingPlan(t, planRepo, true)
	service := NewApprovalService(planRepo, newMockRequestRepo(), nil)

	err := service.Modify(context.Background(), "request-1", []models.PlannedTask{
		{ID: "task-1", Description: "smaller change", Category: models.CategoryCodeChange, Complexity: 1},
	})
	if err != nil {
		t.Fatalf("Modify failed: %v", err)
	}

	record := planRepo.plans["plan-1"]
	if record.ApprovalStatus != string(models.ApprovalModified) {
		t.Errorf("plan should be modified, got %s", record.ApprovalStatus)
	}
	plan, err := decodePlanRecord(record)
	if err != nil {
		t.Fatalf("failed to decode updated plan: %v", err)
	}
	if len(plan.Tasks) != 1 || plan.Tasks[0].Complexity != 1 {
		t.Errorf("tasks should be replaced: %+v", plan.Tasks)
	}
	if plan.RiskLevel != models.RiskLow {
		t.Errorf("a single complexity-1 task should re-score Low, got %s", plan.RiskLevel)
	}
}

func TestModifyValidation(t *testing.T) {
	planRepo := newMockPlanRepo()
	seedPendingPlan(t, planRepo, true)
	service := NewApprovalService(planRepo, newMockRequestRepo(), nil)
	ctx := context.Background()

	if err := service.Modify(ctx, "request-1", nil); err == nil {
		t.Error("an empty task list should be rejected")
	}
	err := service.Modify(ctx, "request-1", []models.PlannedTask{
		{ID: "task-1", Description: "x", Category: models.CategoryCodeChange, Complexity: 4},
	})
	if err == nil {
		t.Error("off-scale complexity should be rejected")
	}
}

func TestListPending(t *testing.T) {
	planRepo := newMockPlanRepo()
	seedPendingPlan(t, planRepo, true)
	requestRepo := newMockRequestRepo()
	requestRepo.requests["request-1"] = &secondary.UpdateRequestRecord{
		ID:       "request-1",
		Codename: "tighten-queue",
		Status:   "awaiting_approval",
	}
	service := NewApprovalService(planRepo, requestRepo, nil)

	pending, err := service.ListPending(context.Background())
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(pending) != 1 || pending[0].Codename != "tighten-queue" {
		t.Errorf("unexpected pending list: %+v", pending)
	}
}

func TestListPendingSkipsAutoApproved(t *testing.T) {
	planRepo := newMockPlanRepo()
	seedPendingPlan(t, planRepo, false)
	requestRepo := newMockRequestRepo()
	requestRepo.requests["request-1"] = &secondary.UpdateRequestRecord{ID: "request-1", Codename: "auto"}
	service := NewApprovalService(planRepo, requestRepo, nil)

	pending, err := service.ListPending(context.Background())
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("auto-approved plans should not be listed: %+v", pending)
	}
}

func TestWaitForDecisionApproved(t *testing.T) {
	planRepo := newMockPlanRepo()
	seedPendingPlan(t, planRepo, true)
	service := NewApprovalService(planRepo, newMockRequestRepo(), nil)
	service.pollInterval = 5 * time.Millisecond

	go func() {
		time.Sleep(15 * time.Millisecond)
		planRepo.UpdateApproval(context.Background(), "plan-1", string(models.ApprovalApproved), "")
	}()

	status, reason, err := service.WaitForDecision(context.Background(), "plan-1", time.Second)
	if err != nil {
		t.Fatalf("WaitForDecision failed: %v", err)
	}
	if status != models.ApprovalApproved || reason != "" {
		t.Errorf("expected approval, got %s %q", status, reason)
	}
}

func TestWaitForDecisionModifiedCountsAsApproved(t *testing.T) {
	planRepo := newMockPlanRepo()
	record := seedPendingPlan(t, planRepo, true)
	record.ApprovalStatus = string(models.ApprovalModified)
	service := NewApprovalService(planRepo, newMockRequestRepo(), nil)
	service.pollInterval = 5 * time.Millisecond

	status, _, err := service.WaitForDecision(context.Background(), "plan-1", time.Second)
	if err != nil {
		t.Fatalf("WaitForDecision failed: %v", err)
	}
	if status != models.ApprovalApproved {
		t.Errorf("modified should count as approved, got %s", status)
	}
}

func TestWaitForDecisionRejected(t *testing.T) {
	planRepo := newMockPlanRepo()
	record := seedPendingPlan(t, planRepo, true)
	record.ApprovalStatus = string(models.ApprovalRejected)
	record.RejectionReason = "not now"
	service := NewApprovalService(planRepo, newMockRequestRepo(), nil)
	service.pollInterval = 5 * time.Millisecond

	status, reason, err := service.WaitForDecision(context.Background(), "plan-1", time.Second)
	if err != nil {
		t.Fatalf("WaitForDecision failed: %v", err)
	}
	if status != models.ApprovalRejected || reason != "not now" {
		t.Errorf("expected rejection with reason, got %s %q", status, reason)
	}
}

func TestWaitForDecisionTimeout(t *testing.T) {
	planRepo := newMockPlanRepo()
	seedPendingPlan(t, planRepo, true)
	service := NewApprovalService(planRepo, newMockRequestRepo(), nil)
	service.pollInterval = 5 * time.Millisecond

	status, reason, err := service.WaitForDecision(context.Background(), "plan-1", 20*time.Millisecond)
	if err != nil {
		t.Fatalf("WaitForDecision failed: %v", err)
	}
	if status != models.ApprovalTimedOut {
		t.Errorf("timeout should resolve as timed out, got %s", status)
	}
	if reason == "" {
		t.Error("a timeout should carry a reason")
	}
}
