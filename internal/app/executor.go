package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/ouro/internal/core/lock"
	"github.com/example/ouro/internal/core/queue"
	"github.com/example/ouro/internal/errs"
	"github.com/example/ouro/internal/models"
	"github.com/example/ouro/internal/ports/primary"
	"github.com/example/ouro/internal/ports/secondary"
	"github.com/example/ouro/internal/updatelog"
)

// ExecutorConfig tunes the end-to-end update pipeline.
type ExecutorConfig struct {
	RepoRoot        string
	LogRoot         string
	ApprovalTimeout time.Duration
	// ProgressInterval is how often the reporter re-emits the current
	// phase while nothing else is being reported. Zero disables it.
	ProgressInterval time.Duration
	// AgentCommand, when set, is run inside a detached terminal session
	// for the duration of the implementing phase so a human can watch.
	AgentCommand []string
}

// Executor implements the RunService interface: it drives one update
// request through planning, approval, snapshot, implementation,
// validation, and health checks, rolling back on any failure past the
// snapshot point.
type Executor struct {
	queue       *queue.UpdateQueue
	lock        *lock.SystemLock
	requestRepo secondary.UpdateRequestRepository
	runRepo     secondary.RunRepository
	snapshots   secondary.SnapshotStore
	generator   secondary.CodeGenerator
	notifier    secondary.Notifier
	sessions    secondary.AgentSessionManager
	planner     *PlannerService
	approvals   *ApprovalServiceImpl
	validator   *ValidationService
	health      *HealthService
	cfg         ExecutorConfig
}

// NewExecutor creates a new Executor with injected dependencies.
func NewExecutor(
	updateQueue *queue.UpdateQueue,
	systemLock *lock.SystemLock,
	requestRepo secondary.UpdateRequestRepository,
	runRepo secondary.RunRepository,
	snapshots secondary.SnapshotStore,
	generator secondary.CodeGenerator,
	notifier secondary.Notifier,
	sessions secondary.AgentSessionManager,
	planner *PlannerService,
	approvals *ApprovalServiceImpl,
	validator *ValidationService,
	health *HealthService,
	cfg ExecutorConfig,
) *Executor {
	return &Executor{
		queue:       updateQueue,
		lock:        systemLock,
		requestRepo: requestRepo,
		runRepo:     runRepo,
		snapshots:   snapshots,
		generator:   generator,
		notifier:    notifier,
		sessions:    sessions,
		planner:     planner,
		approvals:   approvals,
		validator:   validator,
		health:      health,
		cfg:         cfg,
	}
}

// RunNext dequeues the oldest pending request and runs it end to end.
// Returns nil when the queue is empty or another update holds the lock.
func (e *Executor) RunNext(ctx context.Context) (*primary.RunResult, error) {
	request := e.queue.Dequeue()
	if request == nil {
		return nil, nil
	}

	token, holder := e.lock.TryAcquire(request.ID)
	if token == nil {
		// Put the slot back; the request stays the current one until the
		// lock frees up.
		e.queue.Complete(request.ID)
		return nil, fmt.Errorf("update %s holds the lock (held for %s): %w",
			holder.UpdateID, holder.HeldFor.Round(time.Second), errs.ErrLockBusy)
	}
	defer e.lock.Release(token)
	defer e.queue.Complete(request.ID)

	return e.execute(ctx, request)
}

// GetRun retrieves one run by ID.
func (e *Executor) GetRun(ctx context.Context, runID string) (*primary.RunView, error) {
	record, err := e.runRepo.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	return runRecordToView(record), nil
}

// ListRuns lists runs with optional filters.
func (e *Executor) ListRuns(ctx context.Context, filters primary.RunListFilters) ([]*primary.RunView, error) {
	records, err := e.runRepo.List(ctx, secondary.RunFilters{
		RequestID: filters.RequestID,
		Limit:     filters.Limit,
	})
	if err != nil {
		return nil, err
	}
	views := make([]*primary.RunView, 0, len(records))
	for _, record := range records {
		views = append(views, runRecordToView(record))
	}
	return views, nil
}

// run carries the mutable state of one execution.
type run struct {
	id         string
	request    *models.SelfUpdateRequest
	plan       *models.ImplementationPlan
	snapshotID string
	logger     *updatelog.Logger
	progress   *ProgressReporter
	startedAt  time.Time
}

func (e *Executor) execute(ctx context.Context, request *models.SelfUpdateRequest) (*primary.RunResult, error) {
	logger, err := updatelog.New(e.cfg.LogRoot, request.ID, request.Codename)
	if err != nil {
		return nil, fmt.Errorf("failed to open update log: %w", err)
	}
	defer logger.Close()

	r := &run{
		id:        uuid.New().String(),
		request:   request,
		logger:    logger,
		progress:  NewProgressReporter(e.notifier, request.ID, request.Codename),
		startedAt: time.Now().UTC(),
	}

	r.progress.Transition(models.PhaseInitializing)
	r.progress.StartPeriodic(e.cfg.ProgressInterval)
	defer r.progress.Stop()
	logger.Log("starting update %s (%s)", request.Codename, request.ID)
	if err := e.recordRunStart(ctx, r); err != nil {
		return nil, err
	}

	// Phases before the snapshot fail without rollback; phases after it
	// roll back to the snapshot.
	if failure := e.preflight(ctx, r); failure != nil {
		return e.fail(ctx, r, failure, false)
	}
	if failure := e.plan(ctx, r); failure != nil {
		return e.fail(ctx, r, failure, false)
	}
	if failure := e.awaitApproval(ctx, r); failure != nil {
		return e.fail(ctx, r, failure, false)
	}
	if failure := e.snapshot(ctx, r); failure != nil {
		return e.fail(ctx, r, failure, false)
	}
	if failure := e.implement(ctx, r); failure != nil {
		return e.fail(ctx, r, failure, true)
	}
	if failure := e.validate(ctx, r); failure != nil {
		return e.fail(ctx, r, failure, true)
	}
	return e.complete(ctx, r)
}

func (e *Executor) preflight(ctx context.Context, r *run) error {
	r.progress.Transition(models.PhasePreflightChecks)
	e.setStatus(ctx, r, models.StatusPreflightChecks, "")
	r.logger.LogPhase("preflight_checks", "verifying repository")

	if err := e.snapshots.VerifyRepository(ctx); err != nil {
		return err
	}
	dirty, err := e.snapshots.HasUncommittedChanges(ctx)
	if err != nil {
		return err
	}
	if dirty {
		r.logger.LogPhase("preflight_checks", "working tree is dirty; snapshot will include pending changes")
		e.notifier.Warn(r.request.ID, "working tree has uncommitted changes")
	}
	return nil
}

func (e *Executor) plan(ctx context.Context, r *run) error {
	r.progress.Transition(models.PhasePlanning)
	r.logger.LogPhase("planning", "creating implementation plan")

	plan, err := e.planner.CreatePlan(ctx, r.request)
	if err != nil {
		return err
	}
	r.plan = plan
	r.logger.LogPhase("planning", "plan %s: %d tasks, risk %s",
		plan.PlanID, len(plan.Tasks), plan.RiskLevel)

	if plan.RiskLevel == models.RiskDoNotImplement {
		return &errs.PlanningError{
			RequestID: r.request.ID,
			Err:       fmt.Errorf("plan assessed as do-not-implement"),
		}
	}
	return nil
}

func (e *Executor) awaitApproval(ctx context.Context, r *run) error {
	if !r.plan.RequiresHumanApproval {
		return nil
	}

	r.progress.Transition(models.PhaseAwaitingApproval)
	r.logger.LogPhase("awaiting_approval", "approval required: %s", r.plan.ApprovalReason)
	e.notifier.ApprovalRequested(r.request.ID, r.request.Codename, r.plan.ApprovalReason)

	status, reason, err := e.approvals.WaitForDecision(ctx, r.plan.PlanID, e.cfg.ApprovalTimeout)
	if err != nil {
		return err
	}
	if status != models.ApprovalApproved {
		return fmt.Errorf("plan not approved: %s", reason)
	}

	// A modification may have replaced the tasks; reload before executing.
	plan, err := e.planner.GetPlan(ctx, r.request.ID)
	if err != nil {
		return err
	}
	r.plan = plan
	r.logger.LogPhase("awaiting_approval", "plan approved")
	return nil
}

func (e *Executor) snapshot(ctx context.Context, r *run) error {
	r.progress.Transition(models.PhaseCreatingSnapshot)
	e.setStatus(ctx, r, models.StatusCreatingSnapshot, "")

	label := fmt.Sprintf("pre-update-snapshot-%s-%d", r.request.Codename, time.Now().Unix())
	snapshotID, err := e.snapshots.CreateSnapshot(ctx, label)
	if err != nil {
		return &errs.SnapshotError{Label: label, Err: err}
	}
	r.snapshotID = snapshotID
	r.logger.LogPhase("creating_snapshot", "snapshot %s created", snapshotID)
	e.updateRun(ctx, r, models.PhaseCreatingSnapshot, false, false, "")
	return nil
}

func (e *Executor) implement(ctx context.Context, r *run) error {
	r.progress.Transition(models.PhaseImplementing)
	e.setStatus(ctx, r, models.StatusExecuting, "")

	sessionName := e.startAgentSession(ctx, r)
	if sessionName != "" {
		defer e.sessions.KillSession(ctx, sessionName)
	}

	for i, task := range r.plan.Tasks {
		r.logger.LogPhase("implementing", "task %d/%d: %s", i+1, len(r.plan.Tasks), task.Description)
		e.notifier.Info(r.request.ID, fmt.Sprintf("task %d of %d: %s", i+1, len(r.plan.Tasks), task.Description))

		_, err := e.generator.Generate(ctx, &secondary.CodeGenerationRequest{
			Language:     "go",
			Description:  task.Description,
			Requirements: task.ValidationSteps,
			Context: map[string]string{
				"task_id":             task.ID,
				"codename":            r.request.Codename,
				"affected_components": strings.Join(task.AffectedComponents, ", "),
			},
			SessionID: r.request.ID,
		})
		if err != nil {
			r.logger.LogError("task %s failed: %v", task.ID, err)
			return &errs.ImplementationError{RequestID: r.request.ID, Err: err}
		}
		r.progress.TaskProgress(i+1, len(r.plan.Tasks))
	}

	r.logger.LogPhase("implementing", "all %d tasks completed", len(r.plan.Tasks))
	return nil
}

// startAgentSession opens the watchable terminal session for the agent.
// Session problems are warnings: the pipeline works without one.
func (e *Executor) startAgentSession(ctx context.Context, r *run) string {
	if e.sessions == nil || len(e.cfg.AgentCommand) == 0 {
		return ""
	}
	name := "ouro-update-" + r.request.Codename
	if err := e.sessions.StartSession(ctx, name, e.cfg.RepoRoot, e.cfg.AgentCommand...); err != nil {
		e.notifier.Warn(r.request.ID, fmt.Sprintf("could not start agent session: %v", err))
		return ""
	}
	e.notifier.Info(r.request.ID, e.sessions.AttachInstructions(name))
	return name
}

func (e *Executor) validate(ctx context.Context, r *run) error {
	r.progress.Transition(models.PhaseValidating)
	e.setStatus(ctx, r, models.StatusTesting, "")

	result, err := e.validator.RunPipeline(ctx, r.logger)
	if err != nil {
		return err
	}
	if !result.AllPassed() {
		return validationFailureError(result)
	}
	r.logger.LogPhase("validating", "all checks passed after %d iteration(s)", result.PipelineIterations)
	return nil
}

func (e *Executor) complete(ctx context.Context, r *run) (*primary.RunResult, error) {
	r.progress.Transition(models.PhaseCompleting)

	healthResult := e.health.Check(ctx)
	for _, warning := range healthResult.Warnings {
		e.notifier.Warn(r.request.ID, warning)
		r.logger.LogPhase("completing", "warning: %s", warning)
	}
	if !healthResult.Healthy {
		return e.fail(ctx, r, &errs.HealthCheckError{CriticalIssues: healthResult.CriticalIssues}, true)
	}

	changedFiles, err := e.snapshots.ListChangedFiles(ctx, r.snapshotID)
	if err != nil {
		r.logger.LogError("could not list changed files: %v", err)
	}

	message := fmt.Sprintf("self-update %s: %s", r.request.Codename, firstLine(r.plan.Summary))
	if _, err := e.snapshots.CommitValidatedChanges(ctx, message); err != nil {
		return e.fail(ctx, r, err, true)
	}

	r.progress.Transition(models.PhaseComplete)
	e.setStatus(ctx, r, models.StatusCompleted, "")
	e.updateRun(ctx, r, models.PhaseComplete, true, false, "")
	e.writeSummary(r, models.PhaseComplete, true, false, "", changedFiles)
	e.notifier.Info(r.request.ID, fmt.Sprintf("update %s completed: %d files changed", r.request.Codename, len(changedFiles)))

	return &primary.RunResult{
		RunID:        r.id,
		RequestID:    r.request.ID,
		Codename:     r.request.Codename,
		Success:      true,
		LogDir:       r.logger.Dir(),
		ChangedFiles: changedFiles,
	}, nil
}

// fail finalizes a failed run, rolling back to the snapshot when one was
// taken. A rollback failure is reported wrapped around the original
// failure so neither is lost.
func (e *Executor) fail(ctx context.Context, r *run, cause error, rollback bool) (*primary.RunResult, error) {
	r.logger.LogError("%v", cause)
	r.progress.Fail(cause.Error())

	rolledBack := false
	finalStatus := models.StatusFailed
	if rollback && r.snapshotID != "" {
		if err := e.snapshots.RollbackToSnapshot(ctx, r.snapshotID); err != nil {
			rollbackErr := &errs.RollbackError{SnapshotID: r.snapshotID, Original: cause, Err: err}
			r.logger.LogError("%v", rollbackErr)
			e.setStatus(ctx, r, models.StatusFailed, rollbackErr.Error())
			e.updateRun(ctx, r, models.PhaseFailed, false, false, rollbackErr.Error())
			e.writeSummary(r, models.PhaseFailed, false, false, rollbackErr.Error(), nil)
			return nil, rollbackErr
		}
		rolledBack = true
		finalStatus = models.StatusRolledBack
		r.logger.Log("rolled back to snapshot %s", r.snapshotID)
	}

	e.setStatus(ctx, r, finalStatus, cause.Error())
	e.updateRun(ctx, r, models.PhaseFailed, false, rolledBack, cause.Error())
	e.writeSummary(r, models.PhaseFailed, false, rolledBack, cause.Error(), nil)

	return &primary.RunResult{
		RunID:         r.id,
		RequestID:     r.request.ID,
		Codename:      r.request.Codename,
		Success:       false,
		RolledBack:    rolledBack,
		FailureReason: cause.Error(),
		LogDir:        r.logger.Dir(),
	}, nil
}

func (e *Executor) recordRunStart(ctx context.Context, r *run) error {
	err := e.runRepo.Create(ctx, &secondary.RunRecord{
		ID:        r.id,
		RequestID: r.request.ID,
		Phase:     string(models.PhaseInitializing),
		LogDir:    r.logger.Dir(),
		StartedAt: r.startedAt.Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

func (e *Executor) updateRun(ctx context.Context, r *run, phase models.UpdatePhase, success, rolledBack bool, failureReason string) {
	record := &secondary.RunRecord{
		ID:            r.id,
		RequestID:     r.request.ID,
		Phase:         string(phase),
		SnapshotID:    r.snapshotID,
		Success:       success,
		RolledBack:    rolledBack,
		FailureReason: failureReason,
		LogDir:        r.logger.Dir(),
		StartedAt:     r.startedAt.Format(time.RFC3339),
	}
	if r.plan != nil {
		record.PlanID = r.plan.PlanID
	}
	if phase.Terminal() {
		record.FinishedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if err := e.runRepo.Update(ctx, record); err != nil {
		r.logger.LogError("failed to update run record: %v", err)
	}
}

// setStatus advances the request's status in memory and in the ledger,
// honoring the forward-only transition rules.
func (e *Executor) setStatus(ctx context.Context, r *run, status models.UpdateStatus, failureReason string) {
	// Dequeue already moved the request to preflight in memory, so a
	// same-status call only needs to reach the ledger.
	if status != r.request.Status && !r.request.Status.CanTransitionTo(status) {
		r.logger.LogError("illegal status transition %s -> %s", r.request.Status, status)
		return
	}
	r.request.Status = status
	r.request.FailureReason = failureReason
	if err := e.requestRepo.UpdateStatus(ctx, r.request.ID, string(status), failureReason); err != nil {
		r.logger.LogError("failed to persist status %s: %v", status, err)
	}
}

func (e *Executor) writeSummary(r *run, phase models.UpdatePhase, success, rolledBack bool, failureReason string, changedFiles []string) {
	err := r.logger.WriteSummary(&updatelog.Summary{
		UpdateID:      r.request.ID,
		Codename:      r.request.Codename,
		StartedAt:     r.startedAt,
		FinishedAt:    time.Now().UTC(),
		FinalPhase:    string(phase),
		Success:       success,
		RolledBack:    rolledBack,
		FailureReason: failureReason,
		ChangedFiles:  changedFiles,
	})
	if err != nil {
		r.logger.LogError("failed to write summary: %v", err)
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func runRecordToView(record *secondary.RunRecord) *primary.RunView {
	return &primary.RunView{
		ID:            record.ID,
		RequestID:     record.RequestID,
		PlanID:        record.PlanID,
		Phase:         record.Phase,
		SnapshotID:    record.SnapshotID,
		Success:       record.Success,
		RolledBack:    record.RolledBack,
		FailureReason: record.FailureReason,
		LogDir:        record.LogDir,
		StartedAt:     record.StartedAt,
		FinishedAt:    record.FinishedAt,
	}
}
