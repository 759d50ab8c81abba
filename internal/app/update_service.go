package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/ouro/internal/core/lock"
	"github.com/example/ouro/internal/core/queue"
	"github.com/example/ouro/internal/errs"
	"github.com/example/ouro/internal/models"
	"github.com/example/ouro/internal/ports/primary"
	"github.com/example/ouro/internal/ports/secondary"
)

// UpdateServiceImpl implements the UpdateService interface.
type UpdateServiceImpl struct {
	requestRepo secondary.UpdateRequestRepository
	queue       *queue.UpdateQueue
	lock        *lock.SystemLock
}

// NewUpdateService creates a new UpdateService with injected dependencies.
func NewUpdateService(
	requestRepo secondary.UpdateRequestRepository,
	updateQueue *queue.UpdateQueue,
	systemLock *lock.SystemLock,
) *UpdateServiceImpl {
	return &UpdateServiceImpl{
		requestRepo: requestRepo,
		queue:       updateQueue,
		lock:        systemLock,
	}
}

// SubmitRequest validates and enqueues a new update request.
func (s *UpdateServiceImpl) SubmitRequest(ctx context.Context, req primary.SubmitRequestInput) (*primary.SubmitRequestResult, error) {
	codename := strings.TrimSpace(req.Codename)
	if codename == "" {
		return nil, fmt.Errorf("codename must not be empty")
	}
	// The codename names the snapshot label, the tmux session, and the
	// log directory, so it has to be shell- and path-safe.
	if !validCodename(codename) {
		return nil, fmt.Errorf("codename %q may only contain letters, digits, dashes, and underscores", codename)
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, fmt.Errorf("description must not be empty")
	}

	// The queue rejects codenames it is already holding; the ledger check
	// additionally covers the request currently being processed.
	exists, err := s.requestRepo.CodenameExists(ctx, codename)
	if err != nil {
		return nil, fmt.Errorf("failed to check codename: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("codename %q: %w", codename, errs.ErrDuplicateCodename)
	}

	request := &models.SelfUpdateRequest{
		ID:              uuid.New().String(),
		Codename:        codename,
		Timestamp:       time.Now().UTC(),
		RequesterID:     req.RequesterID,
		ChannelID:       req.ChannelID,
		MessageID:       req.MessageID,
		Description:     req.Description,
		ContextMessages: req.ContextMessages,
		Status:          models.StatusQueued,
	}

	if err := s.queue.Enqueue(request); err != nil {
		return nil, err
	}

	record, err := requestToRecord(request)
	if err != nil {
		return nil, err
	}
	if err := s.requestRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist request: %w", err)
	}

	return &primary.SubmitRequestResult{
		RequestID:     request.ID,
		QueuePosition: s.queue.Len(),
	}, nil
}

// RestoreQueue reloads persisted queued requests into the in-memory
// queue, oldest first. Used after a process restart; requests the queue
// cannot take back (full, duplicate) are left queued in the ledger.
func (s *UpdateServiceImpl) RestoreQueue(ctx context.Context) (int, error) {
	records, err := s.requestRepo.List(ctx, secondary.UpdateRequestFilters{
		Status: string(models.StatusQueued),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list queued requests: %w", err)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp < records[j].Timestamp
	})

	restored := 0
	for _, record := range records {
		request, err := recordToRequest(record)
		if err != nil {
			return restored, err
		}
		if err := s.queue.Enqueue(request); err != nil {
			continue
		}
		restored++
	}
	return restored, nil
}

// GetRequest retrieves one request by ID.
func (s *UpdateServiceImpl) GetRequest(ctx context.Context, requestID string) (*primary.UpdateRequestView, error) {
	record, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return recordToView(record), nil
}

// ListRequests lists requests with optional filters.
func (s *UpdateServiceImpl) ListRequests(ctx context.Context, filters primary.RequestFilters) ([]*primary.UpdateRequestView, error) {
	records, err := s.requestRepo.List(ctx, secondary.UpdateRequestFilters{
		Status: filters.Status,
		Limit:  filters.Limit,
	})
	if err != nil {
		return nil, err
	}

	views := make([]*primary.UpdateRequestView, 0, len(records))
	for _, record := range records {
		views = append(views, recordToView(record))
	}
	return views, nil
}

// QueueStatus returns a snapshot of the pending queue.
func (s *UpdateServiceImpl) QueueStatus(ctx context.Context) (*primary.QueueStatusView, error) {
	status := s.queue.Status()
	view := &primary.QueueStatusView{
		QueueSize:      status.QueueSize,
		MaxSize:        status.MaxSize,
		RejectedCount:  status.RejectedCount,
		Processing:     status.Processing,
		CurrentRequest: status.CurrentRequest,
	}
	for _, entry := range status.Pending {
		view.Pending = append(view.Pending, primary.QueuedRequestView{
			ID:       entry.ID,
			Codename: entry.Codename,
			Position: entry.Position,
		})
	}
	return view, nil
}

// ClearQueue drops all pending requests.
func (s *UpdateServiceImpl) ClearQueue(ctx context.Context) (int, error) {
	return s.queue.Clear(), nil
}

// LockStatus reports who holds the global update lock.
func (s *UpdateServiceImpl) LockStatus(ctx context.Context) (*primary.LockStatusView, error) {
	holder := s.lock.Holder()
	if holder == nil {
		return &primary.LockStatusView{}, nil
	}
	return &primary.LockStatusView{
		Locked:   true,
		UpdateID: holder.UpdateID,
		HeldFor:  holder.HeldFor,
		Stale:    holder.Stale,
	}, nil
}

// ForceReleaseLock releases the lock regardless of holder.
func (s *UpdateServiceImpl) ForceReleaseLock(ctx context.Context) (string, error) {
	return s.lock.ForceRelease(), nil
}

func validCodename(codename string) bool {
	for _, r := range codename {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

func requestToRecord(request *models.SelfUpdateRequest) (*secondary.UpdateRequestRecord, error) {
	contextJSON, err := json.Marshal(request.ContextMessages)
	if err != nil {
		return nil, fmt.Errorf("failed to encode context messages: %w", err)
	}
	return &secondary.UpdateRequestRecord{
		ID:              request.ID,
		Codename:        request.Codename,
		Timestamp:       request.Timestamp.Format(time.RFC3339),
		RequesterID:     request.RequesterID,
		ChannelID:       request.ChannelID,
		MessageID:       request.MessageID,
		Description:     request.Description,
		ContextMessages: string(contextJSON),
		RetryCount:      request.RetryCount,
		Status:          string(request.Status),
		FailureReason:   request.FailureReason,
	}, nil
}

func recordToRequest(record *secondary.UpdateRequestRecord) (*models.SelfUpdateRequest, error) {
	var contextMessages []string
	if record.ContextMessages != "" {
		if err := json.Unmarshal([]byte(record.ContextMessages), &contextMessages); err != nil {
			return nil, fmt.Errorf("failed to decode context messages for %s: %w", record.ID, err)
		}
	}
	timestamp, _ := time.Parse(time.RFC3339, record.Timestamp)
	return &models.SelfUpdateRequest{
		ID:              record.ID,
		Codename:        record.Codename,
		Timestamp:       timestamp,
		RequesterID:     record.RequesterID,
		ChannelID:       record.ChannelID,
		MessageID:       record.MessageID,
		Description:     record.Description,
		ContextMessages: contextMessages,
		RetryCount:      record.RetryCount,
		Status:          models.UpdateStatus(record.Status),
		FailureReason:   record.FailureReason,
	}, nil
}

func recordToView(record *secondary.UpdateRequestRecord) *primary.UpdateRequestView {
	submittedAt, _ := time.Parse(time.RFC3339, record.Timestamp)
	return &primary.UpdateRequestView{
		ID:            record.ID,
		Codename:      record.Codename,
		Description:   record.Description,
		RequesterID:   record.RequesterID,
		Status:        record.Status,
		FailureReason: record.FailureReason,
		RetryCount:    record.RetryCount,
		SubmittedAt:   submittedAt,
	}
}
