// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/ouro/internal/ports/secondary"
)

// UpdateRequestRepository implements secondary.UpdateRequestRepository with SQLite.
type UpdateRequestRepository struct {
	db *sql.DB
}

// NewUpdateRequestRepository creates a new SQLite update request repository.
func NewUpdateRequestRepository(db *sql.DB) *UpdateRequestRepository {
	return &UpdateRequestRepository{db: db}
}

// Create persists a new update request.
// The record must have ID and Status pre-populated by the service layer.
func (r *UpdateRequestRepository) Create(ctx context.Context, request *secondary.UpdateRequestRecord) error {
	if request.ID == "" {
		return fmt.Errorf("request ID must be pre-populated by service layer")
	}
	if request.Status == "" {
		return fmt.Errorf("request Status must be pre-populated by service layer")
	}

	contextMessages := request.ContextMessages
	if contextMessages == "" {
		contextMessages = "[]"
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO update_requests
		 (id, codename, timestamp, requester_id, channel_id, message_id, description, context_messages, retry_count, status, failure_reason)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		request.ID, request.Codename, request.Timestamp, nullable(request.RequesterID),
		nullable(request.ChannelID), nullable(request.MessageID), request.Description,
		contextMessages, request.RetryCount, request.Status, nullable(request.FailureReason),
	)
	if err != nil {
		return fmt.Errorf("failed to create update request: %w", err)
	}

	return nil
}

// GetByID retrieves an update request by its ID.
func (r *UpdateRequestRepository) GetByID(ctx context.Context, id string) (*secondary.UpdateRequestRecord, error) {
	record, err := scanRequest(r.db.QueryRowContext(ctx,
		selectRequestColumns+" FROM update_requests WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("update request %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get update request: %w", err)
	}
	return record, nil
}

// Update updates an existing update request.
func (r *UpdateRequestRepository) Update(ctx context.Context, request *secondary.UpdateRequestRecord) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE update_requests SET
		 retry_count = ?, status = ?, failure_reason = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		request.RetryCount, request.Status, nullable(request.FailureReason), request.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update request: %w", err)
	}
	return requireOneRow(result, "update request", request.ID)
}

// UpdateStatus updates the status and optional failure reason.
func (r *UpdateRequestRepository) UpdateStatus(ctx context.Context, id, status, failureReason string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE update_requests SET status = ?, failure_reason = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		status, nullable(failureReason), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}
	return requireOneRow(result, "update request", id)
}

// List retrieves update requests matching the given filters.
func (r *UpdateRequestRepository) List(ctx context.Context, filters secondary.UpdateRequestFilters) ([]*secondary.UpdateRequestRecord, error) {
	query := selectRequestColumns + " FROM update_requests"
	args := []any{}

	if filters.Status != "" {
		query += " WHERE status = ?"
		args = append(args, filters.Status)
	}

	query += " ORDER BY timestamp DESC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list update requests: %w", err)
	}
	defer rows.Close()

	var requests []*secondary.UpdateRequestRecord
	for rows.Next() {
		record, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan update request: %w", err)
		}
		requests = append(requests, record)
	}

	return requests, rows.Err()
}

// CodenameExists checks whether any non-terminal request uses the codename.
func (r *UpdateRequestRepository) CodenameExists(ctx context.Context, codename string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM update_requests
		 WHERE codename = ? AND status NOT IN ('completed', 'failed', 'rolled_back')`,
		codename,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check codename: %w", err)
	}
	return count > 0, nil
}

const selectRequestColumns = `SELECT id, codename, timestamp, requester_id, channel_id, message_id,
 description, context_messages, retry_count, status, failure_reason`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*secondary.UpdateRequestRecord, error) {
	var (
		timestamp     time.Time
		requesterID   sql.NullString
		channelID     sql.NullString
		messageID     sql.NullString
		failureReason sql.NullString
	)

	record := &secondary.UpdateRequestRecord{}
	err := row.Scan(&record.ID, &record.Codename, &timestamp, &requesterID, &channelID,
		&messageID, &record.Description, &record.ContextMessages, &record.RetryCount,
		&record.Status, &failureReason)
	if err != nil {
		return nil, err
	}

	record.Timestamp = timestamp.Format(time.RFC3339)
	record.RequesterID = requesterID.String
	record.ChannelID = channelID.String
	record.MessageID = messageID.String
	record.FailureReason = failureReason.String
	return record, nil
}

func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func requireOneRow(result sql.Result, entity, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %s not found", entity, id)
	}
	return nil
}
