package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/ouro/internal/ports/secondary"
)

// RunRepository implements secondary.RunRepository with SQLite.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new SQLite run repository.
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create persists a new run.
func (r *RunRepository) Create(ctx context.Context, run *secondary.RunRecord) error {
	if run.ID == "" {
		return fmt.Errorf("run ID must be pre-populated by service layer")
	}
	if run.StartedAt == "" {
		return fmt.Errorf("run StartedAt must be pre-populated by service layer")
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO update_runs
		 (id, request_id, plan_id, phase, snapshot_id, success, rolled_back, failure_reason, log_dir, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.RequestID, nullable(run.PlanID), run.Phase, nullable(run.SnapshotID),
		run.Success, run.RolledBack, nullable(run.FailureReason), nullable(run.LogDir),
		run.StartedAt, nullable(run.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	return nil
}

// GetByID retrieves a run by its ID.
func (r *RunRepository) GetByID(ctx context.Context, id string) (*secondary.RunRecord, error) {
	record, err := scanRun(r.db.QueryRowContext(ctx,
		selectRunColumns+" FROM update_runs WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return record, nil
}

// Update updates an existing run.
func (r *RunRepository) Update(ctx context.Context, run *secondary.RunRecord) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE update_runs SET
		 plan_id = ?, phase = ?, snapshot_id = ?, success = ?, rolled_back = ?,
		 failure_reason = ?, log_dir = ?, finished_at = ?
		 WHERE id = ?`,
		nullable(run.PlanID), run.Phase, nullable(run.SnapshotID), run.Success, run.RolledBack,
		nullable(run.FailureReason), nullable(run.LogDir), nullable(run.FinishedAt), run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return requireOneRow(result, "run", run.ID)
}

// List retrieves runs matching the given filters.
func (r *RunRepository) List(ctx context.Context, filters secondary.RunFilters) ([]*secondary.RunRecord, error) {
	query := selectRunColumns + " FROM update_runs"
	args := []any{}

	where := ""
	if filters.RequestID != "" {
		where = " WHERE request_id = ?"
		args = append(args, filters.RequestID)
	}
	if filters.Phase != "" {
		if where == "" {
			where = " WHERE phase = ?"
		} else {
			where += " AND phase = ?"
		}
		args = append(args, filters.Phase)
	}
	query += where + " ORDER BY started_at DESC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*secondary.RunRecord
	for rows.Next() {
		record, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, record)
	}

	return runs, rows.Err()
}

// GetLatestByRequestID retrieves the most recent run for a request.
func (r *RunRepository) GetLatestByRequestID(ctx context.Context, requestID string) (*secondary.RunRecord, error) {
	record, err := scanRun(r.db.QueryRowContext(ctx,
		selectRunColumns+" FROM update_runs WHERE request_id = ? ORDER BY started_at DESC LIMIT 1", requestID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no runs found for request %s", requestID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return record, nil
}

const selectRunColumns = `SELECT id, request_id, plan_id, phase, snapshot_id, success,
 rolled_back, failure_reason, log_dir, started_at, finished_at`

func scanRun(row rowScanner) (*secondary.RunRecord, error) {
	var (
		planID        sql.NullString
		snapshotID    sql.NullString
		failureReason sql.NullString
		logDir        sql.NullString
		startedAt     time.Time
		finishedAt    sql.NullTime
	)

	record := &secondary.RunRecord{}
	err := row.Scan(&record.ID, &record.RequestID, &planID, &record.Phase, &snapshotID,
		&record.Success, &record.RolledBack, &failureReason, &logDir, &startedAt, &finishedAt)
	if err != nil {
		return nil, err
	}

	record.PlanID = planID.String
	record.SnapshotID = snapshotID.String
	record.FailureReason = failureReason.String
	record.LogDir = logDir.String
	record.StartedAt = startedAt.Format(time.RFC3339)
	if finishedAt.Valid {
		record.FinishedAt = finishedAt.Time.Format(time.RFC3339)
	}
	return record, nil
}
