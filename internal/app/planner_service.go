package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	coreplan "github.com/example/ouro/internal/core/plan"
	"github.com/example/ouro/internal/core/risk"
	"github.com/example/ouro/internal/errs"
	"github.com/example/ouro/internal/models"
	"github.com/example/ouro/internal/ports/secondary"
)

// PlannerService turns an update request into a risk-scored
// implementation plan. It asks the code-generation collaborator for a
// structured plan first and falls back to deterministic keyword
// analysis when the collaborator is unavailable or replies with
// something unparseable.
type PlannerService struct {
	generator     secondary.CodeGenerator
	planRepo      secondary.PlanRepository
	criticalPaths []string
}

// NewPlannerService creates a new PlannerService with injected dependencies.
func NewPlannerService(
	generator secondary.CodeGenerator,
	planRepo secondary.PlanRepository,
	criticalPaths []string,
) *PlannerService {
	return &PlannerService{
		generator:     generator,
		planRepo:      planRepo,
		criticalPaths: criticalPaths,
	}
}

// CreatePlan produces, scores, and persists a plan for the request.
func (s *PlannerService) CreatePlan(ctx context.Context, request *models.SelfUpdateRequest) (*models.ImplementationPlan, error) {
	analysis := coreplan.Analyze(request)

	plan := s.planFromCollaborator(ctx, request)
	if plan == nil {
		plan = s.fallbackPlan(request, analysis)
	}

	plan.PlanID = uuid.New().String()
	plan.RequestID = request.ID
	plan.ApprovalStatus = models.ApprovalPending
	plan.RiskLevel = risk.Assess(plan.Tasks, analysis.Scope == coreplan.ScopeCritical)

	decision := risk.ApprovalDecision(plan, s.criticalPaths)
	plan.RequiresHumanApproval = decision.Required
	plan.ApprovalReason = decision.Reason

	if err := s.persist(ctx, plan); err != nil {
		return nil, &errs.PlanningError{RequestID: request.ID, Err: err}
	}
	return plan, nil
}

// GetPlan loads the persisted plan for a request.
func (s *PlannerService) GetPlan(ctx context.Context, requestID string) (*models.ImplementationPlan, error) {
	record, err := s.planRepo.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return decodePlanRecord(record)
}

// planFromCollaborator asks the generator for a structured plan. Returns
// nil when the collaborator fails or the reply has no usable plan.
func (s *PlannerService) planFromCollaborator(ctx context.Context, request *models.SelfUpdateRequest) *models.ImplementationPlan {
	result, err := s.generator.Generate(ctx, &secondary.CodeGenerationRequest{
		Language:    "go",
		Description: buildPlanningPrompt(request),
		Context: map[string]string{
			"codename":   request.Codename,
			"request_id": request.ID,
		},
		SessionID: request.ID,
	})
	if err != nil {
		return nil
	}

	plan := parsePlanJSON(result.Code)
	if plan == nil {
		plan = parsePlanJSON(result.Explanation)
	}
	if plan == nil || len(plan.Tasks) == 0 {
		return nil
	}

	for i := range plan.Tasks {
		if plan.Tasks[i].ID == "" {
			plan.Tasks[i].ID = fmt.Sprintf("task-%d", i+1)
		}
		if !plan.Tasks[i].ValidComplexity() {
			return nil
		}
	}
	return plan
}

func (s *PlannerService) fallbackPlan(request *models.SelfUpdateRequest, analysis coreplan.Analysis) *models.ImplementationPlan {
	tasks := coreplan.DecomposeTasks(analysis, request)
	return &models.ImplementationPlan{
		Summary:         coreplan.Summarize(tasks, request),
		Tasks:           tasks,
		IdentifiedRisks: coreplan.IdentifyRisks(tasks, analysis),
		RollbackStrategy: "Restore the pre-update snapshot and discard all " +
			"changes made during this update.",
		SuccessCriteria: coreplan.SuccessCriteria(tasks),
	}
}

func (s *PlannerService) persist(ctx context.Context, plan *models.ImplementationPlan) error {
	body, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}
	return s.planRepo.Create(ctx, &secondary.PlanRecord{
		ID:            plan.PlanID,
		RequestID:     plan.RequestID,
		RiskLevel:     plan.RiskLevel.String(),
		RequiresHuman: plan.RequiresHumanApproval,
		Body:          string(body),
	})
}

func buildPlanningPrompt(request *models.SelfUpdateRequest) string {
	var b strings.Builder
	b.WriteString("Produce an implementation plan for the following change request.\n")
	b.WriteString("Reply with a JSON object matching this shape:\n")
	b.WriteString(`{"summary":"...","tasks":[{"id":"task-1","description":"...",` +
		`"category":"CodeChange|BugFix|FeatureAddition|Refactoring|Security|Configuration|TestAddition|Documentation|Performance",` +
		`"complexity":1,"dependencies":[],"affected_components":[],"validation_steps":[]}],` +
		`"identified_risks":[],"rollback_strategy":"...","success_criteria":[]}` + "\n")
	b.WriteString("Complexity must be one of 1, 2, 3, 5, 8, 13.\n\n")
	b.WriteString("Request: " + request.Description + "\n")
	if len(request.ContextMessages) > 0 {
		b.WriteString("\nConversation context:\n")
		for _, msg := range request.ContextMessages {
			b.WriteString("- " + msg + "\n")
		}
	}
	return b.String()
}

// parsePlanJSON extracts the first JSON object from text and decodes it
// as a plan. Returns nil when no decodable object is present.
func parsePlanJSON(text string) *models.ImplementationPlan {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil
	}

	var plan models.ImplementationPlan
	if err := json.Unmarshal([]byte(text[start:end+1]), &plan); err != nil {
		return nil
	}
	return &plan
}

func decodePlanRecord(record *secondary.PlanRecord) (*models.ImplementationPlan, error) {
	var plan models.ImplementationPlan
	if err := json.Unmarshal([]byte(record.Body), &plan); err != nil {
		return nil, fmt.Errorf("failed to decode plan %s: %w", record.ID, err)
	}
	// Approval state lives in the scalar columns so it survives plan-body
	// rewrites.
	plan.ApprovalStatus = models.ApprovalStatus(record.ApprovalStatus)
	plan.RejectionReason = record.RejectionReason
	return &plan, nil
}
