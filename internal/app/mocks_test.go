package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/example/ouro/internal/ports/secondary"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// mockRequestRepo implements secondary.UpdateRequestRepository for testing.
type mockRequestRepo struct {
	mu        sync.Mutex
	requests  map[string]*secondary.UpdateRequestRecord
	createErr error
	existsErr error
	codenames map[string]bool
}

func newMockRequestRepo() *mockRequestRepo {
	return &mockRequestRepo{
		requests:  make(map[string]*secondary.UpdateRequestRecord),
		codenames: make(map[string]bool),
	}
}

func (m *mockRequestRepo) Create(ctx context.Context, request *secondary.UpdateRequestRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[request.ID] = request
	return nil
}

func (m *mockRequestRepo) GetByID(ctx context.Context, id string) (*secondary.UpdateRequestRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if request, ok := m.requests[id]; ok {
		return request, nil
	}
	return nil, errors.New("request not found")
}

func (m *mockRequestRepo) Update(ctx context.Context, request *secondary.UpdateRequestRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[request.ID] = request
	return nil
}

func (m *mockRequestRepo) UpdateStatus(ctx context.Context, id, status, failureReason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	request, ok := m.requests[id]
	if !ok {
		return errors.New("request not found")
	}
	request.Status = status
	request.FailureReason = failureReason
	return nil
}

func (m *mockRequestRepo) List(ctx context.Context, filters secondary.UpdateRequestFilters) ([]*secondary.UpdateRequestRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*secondary.UpdateRequestRecord
	for _, request := range m.requests {
		if filters.Status == "" || request.Status == filters.Status {
			result = append(result, request)
		}
	}
	return result, nil
}

func (m *mockRequestRepo) CodenameExists(ctx context.Context, codename string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codenames[codename], nil
}

func (m *mockRequestRepo) statusOf(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if request, ok := m.requests[id]; ok {
		return request.Status
	}
	return ""
}

// mockPlanRepo implements secondary.PlanRepository for testing.
type mockPlanRepo struct {
	mu        sync.Mutex
	plans     map[string]*secondary.PlanRecord
	createErr error
}

func newMockPlanRepo() *mockPlanRepo {
	return &mockPlanRepo{plans: make(map[string]*secondary.PlanRecord)}
}

func (m *mockPlanRepo) Create(ctx context.Context, plan *secondary.PlanRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if plan.ApprovalStatus == "" {
		plan.ApprovalStatus = "pending"
	}
	m.plans[plan.ID] = plan
	return nil
}

func (m *mockPlanRepo) GetByID(ctx context.Context, id string) (*secondary.PlanRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if plan, ok := m.plans[id]; ok {
		return plan, nil
	}
	return nil, errors.New("plan not found")
}

func (m *mockPlanRepo) GetByRequestID(ctx context.Context, requestID string) (*secondary.PlanRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, plan := range m.plans {
		if plan.RequestID == requestID {
			return plan, nil
		}
	}
	return nil, errors.New("no plan for request")
}

func (m *mockPlanRepo) Update(ctx context.Context, plan *secondary.PlanRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[plan.ID] = plan
	return nil
}

func (m *mockPlanRepo) UpdateApproval(ctx context.Context, id, approvalStatus, rejectionReason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	plan, ok := m.plans[id]
	if !ok {
		return errors.New("plan not found")
	}
	plan.ApprovalStatus = approvalStatus
	plan.RejectionReason = rejectionReason
	return nil
}

// mockRunRepo implements secondary.RunRepository for testing.
type mockRunRepo struct {
	mu   sync.Mutex
	runs map[string]*secondary.RunRecord
}

func newMockRunRepo() *mockRunRepo {
	return &mockRunRepo{runs: make(map[string]*secondary.RunRecord)}
}

func (m *mockRunRepo) Create(ctx context.Context, run *secondary.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run
	return nil
}

func (m *mockRunRepo) GetByID(ctx context.Context, id string) (*secondary.RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if run, ok := m.runs[id]; ok {
		return run, nil
	}
	return nil, errors.New("run not found")
}

func (m *mockRunRepo) Update(ctx context.Context, run *secondary.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run
	return nil
}

func (m *mockRunRepo) List(ctx context.Context, filters secondary.RunFilters) ([]*secondary.RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*secondary.RunRecord
	for _, run := range m.runs {
		if filters.RequestID != "" && run.RequestID != filters.RequestID {
			continue
		}
		result = append(result, run)
	}
	return result, nil
}

func (m *mockRunRepo) GetLatestByRequestID(ctx context.Context, requestID string) (*secondary.RunRecord, error) {
	runs, _ := m.List(ctx, secondary.RunFilters{RequestID: requestID})
	if len(runs) == 0 {
		return nil, errors.New("no runs for request")
	}
	return runs[len(runs)-1], nil
}

func (m *mockRunRepo) only() *secondary.RunRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, run := range m.runs {
		return run
	}
	return nil
}

// mockSnapshotStore implements secondary.SnapshotStore for testing.
type mockSnapshotStore struct {
	mu           sync.Mutex
	verifyErr    error
	snapshotErr  error
	rollbackErr  error
	commitErr    error
	dirty        bool
	changedFiles []string
	snapshots    []string
	rollbacks    []string
	commits      []string
}

func newMockSnapshotStore() *mockSnapshotStore {
	return &mockSnapshotStore{changedFiles: []string{"internal/app/service.go"}}
}

func (m *mockSnapshotStore) VerifyRepository(ctx context.Context) error {
	return m.verifyErr
}

func (m *mockSnapshotStore) CreateSnapshot(ctx context.Context, label string) (string, error) {
	if m.snapshotErr != nil {
		return "", m.snapshotErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, label)
	return label, nil
}

func (m *mockSnapshotStore) RollbackToSnapshot(ctx context.Context, snapshotID string) error {
	if m.rollbackErr != nil {
		return m.rollbackErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollbacks = append(m.rollbacks, snapshotID)
	return nil
}

func (m *mockSnapshotStore) ListChangedFiles(ctx context.Context, snapshotID string) ([]string, error) {
	return m.changedFiles, nil
}

func (m *mockSnapshotStore) CommitValidatedChanges(ctx context.Context, message string) (string, error) {
	if m.commitErr != nil {
		return "", m.commitErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commits = append(m.commits, message)
	return "abc123", nil
}

func (m *mockSnapshotStore) HasUncommittedChanges(ctx context.Context) (bool, error) {
	return m.dirty, nil
}

// mockGenerator implements secondary.CodeGenerator for testing. The
// generate hook receives the request and decides the reply.
type mockGenerator struct {
	mu       sync.Mutex
	calls    []*secondary.CodeGenerationRequest
	generate func(req *secondary.CodeGenerationRequest) (*secondary.CodeGenerationResult, error)
}

func newMockGenerator() *mockGenerator {
	return &mockGenerator{
		generate: func(req *secondary.CodeGenerationRequest) (*secondary.CodeGenerationResult, error) {
			return &secondary.CodeGenerationResult{Explanation: "done\nSTATUS: PASS"}, nil
		},
	}
}

func (m *mockGenerator) Generate(ctx context.Context, req *secondary.CodeGenerationRequest) (*secondary.CodeGenerationResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()
	return m.generate(req)
}

func (m *mockGenerator) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// mockRunner implements secondary.CommandRunner for testing. The run
// hook receives the argv and decides the result; the default passes
// everything.
type mockRunner struct {
	mu    sync.Mutex
	calls [][]string
	run   func(argv []string) (*secondary.CommandResult, error)
}

func newMockRunner() *mockRunner {
	return &mockRunner{
		run: func(argv []string) (*secondary.CommandResult, error) {
			return &secondary.CommandResult{ExitCode: 0}, nil
		},
	}
}

func (m *mockRunner) Run(ctx context.Context, dir string, timeout time.Duration, argv ...string) (*secondary.CommandResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, argv)
	m.mu.Unlock()
	return m.run(argv)
}

func (m *mockRunner) countCalls(prefix ...string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, call := range m.calls {
		if len(call) >= len(prefix) && strings.Join(call[:len(prefix)], " ") == strings.Join(prefix, " ") {
			count++
		}
	}
	return count
}

// mockNotifier implements secondary.Notifier for testing.
type mockNotifier struct {
	mu        sync.Mutex
	progress  []string
	infos     []string
	warns     []string
	errors    []string
	approvals []string
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{}
}

func (m *mockNotifier) Progress(updateID, codename, phase string, percent int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.progress = append(m.progress, fmt.Sprintf("%s:%d", phase, percent))
}

func (m *mockNotifier) progressReports() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.progress...)
}

func (m *mockNotifier) Info(updateID, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, message)
}

func (m *mockNotifier) Warn(updateID, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warns = append(m.warns, message)
}

func (m *mockNotifier) Error(updateID, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, message)
}

func (m *mockNotifier) ApprovalRequested(updateID, codename, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.approvals = append(m.approvals, reason)
}

// mockSessions implements secondary.AgentSessionManager for testing.
type mockSessions struct {
	mu       sync.Mutex
	started  []string
	killed   []string
	startErr error
}

func newMockSessions() *mockSessions {
	return &mockSessions{}
}

func (m *mockSessions) StartSession(ctx context.Context, name, dir string, argv ...string) error {
	if m.startErr != nil {
		return m.startErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = append(m.started, name)
	return nil
}

func (m *mockSessions) SessionExists(ctx context.Context, name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.started {
		if s == name {
			return true
		}
	}
	return false
}

func (m *mockSessions) KillSession(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.killed = append(m.killed, name)
	return nil
}

func (m *mockSessions) ListSessions(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.started...), nil
}

func (m *mockSessions) AttachInstructions(name string) string {
	return "tmux attach -t " + name
}
