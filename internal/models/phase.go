package models

// UpdatePhase is the executor's progress phase, reported to observers.
type UpdatePhase string

// Executor phases in order of progression.
const (
	PhaseInitializing     UpdatePhase = "initializing"
	PhasePreflightChecks  UpdatePhase = "preflight_checks"
	PhasePlanning         UpdatePhase = "planning"
	PhaseAwaitingApproval UpdatePhase = "awaiting_approval"
	PhaseCreatingSnapshot UpdatePhase = "creating_snapshot"
	PhaseImplementing     UpdatePhase = "implementing"
	PhaseValidating       UpdatePhase = "validating"
	PhaseCompleting       UpdatePhase = "completing"
	PhaseComplete         UpdatePhase = "complete"
	PhaseFailed           UpdatePhase = "failed"
)

// Percent maps a phase to its base percent-complete value. The Failed
// phase has no percent of its own: the reporter keeps the last value so
// progress never regresses.
func (p UpdatePhase) Percent() (int, bool) {
	switch p {
	case PhaseInitializing:
		return 0, true
	case PhasePreflightChecks:
		return 10, true
	case PhasePlanning:
		return 20, true
	case PhaseAwaitingApproval:
		return 30, true
	case PhaseCreatingSnapshot:
		return 40, true
	case PhaseImplementing:
		return 50, true
	case PhaseValidating:
		return 80, true
	case PhaseCompleting:
		return 95, true
	case PhaseComplete:
		return 100, true
	}
	return 0, false
}

// Terminal reports whether the phase ends progress reporting.
func (p UpdatePhase) Terminal() bool {
	return p == PhaseComplete || p == PhaseFailed
}

// DisplayName returns the human-readable phase name for status output.
func (p UpdatePhase) DisplayName() string {
	switch p {
	case PhaseInitializing:
		return "Initializing"
	case PhasePreflightChecks:
		return "Running Preflight Checks"
	case PhasePlanning:
		return "Creating Plan"
	case PhaseAwaitingApproval:
		return "Awaiting Approval"
	case PhaseCreatingSnapshot:
		return "Creating Git Snapshot"
	case PhaseImplementing:
		return "Implementing Changes"
	case PhaseValidating:
		return "Validating Changes"
	case PhaseCompleting:
		return "Completing Update"
	case PhaseComplete:
		return "Complete"
	case PhaseFailed:
		return "Failed"
	}
	return string(p)
}
