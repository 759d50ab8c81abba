package primary

import "context"

// RunService defines the primary port for executing update requests
// through the full pipeline.
type RunService interface {
	// RunNext dequeues the oldest pending request and runs it end to end.
	// Returns nil result when the queue is empty or another run holds the lock.
	RunNext(ctx context.Context) (*RunResult, error)

	// GetRun retrieves one run by ID.
	GetRun(ctx context.Context, runID string) (*RunView, error)

	// ListRuns lists runs with optional filters.
	ListRuns(ctx context.Context, filters RunListFilters) ([]*RunView, error)
}

// RunResult summarizes a finished (or aborted) run.
type RunResult struct {
	RunID         string
	RequestID     string
	Codename      string
	Success       bool
	RolledBack    bool
	FailureReason string
	LogDir        string
	ChangedFiles  []string
}

// RunView represents a run at the port boundary.
type RunView struct {
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

// RunListFilters contains filter options for listing runs.
type RunListFilters struct {
	RequestID string
	Limit     int
}
