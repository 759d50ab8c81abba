// Package queue provides the bounded FIFO of pending update requests.
// Enqueue fails fast when caps are exceeded; nothing is silently dropped.
package queue

import (
	"fmt"
	"sync"

	"github.com/example/ouro/internal/errs"
	"github.com/example/ouro/internal/models"
)

// UpdateQueue is a bounded, thread-safe FIFO of update requests. At most
// one request is in the processing slot at a time; the executor marks it
// complete before the next dequeue yields anything.
type UpdateQueue struct {
	mu              sync.Mutex
	maxSize         int
	maxContentBytes int
	pending         []*models.SelfUpdateRequest
	processing      bool
	currentID       string
	rejectedCount   uint64
}

// Status is a point-in-time snapshot of the queue for observability.
type Status struct {
	QueueSize      int
	MaxSize        int
	RejectedCount  uint64
	Processing     bool
	CurrentRequest string
	Pending        []PendingEntry
}

// PendingEntry summarizes one queued request.
type PendingEntry struct {
	ID       string
	Codename string
	Position int
}

// New creates a queue with the given size and per-request content caps.
func New(maxSize, maxContentBytes int) *UpdateQueue {
	return &UpdateQueue{
		maxSize:         maxSize,
		maxContentBytes: maxContentBytes,
	}
}

// Enqueue adds a request to the back of the queue. It fails with
// errs.ErrQueueFull at the size cap, errs.ErrContentTooLarge over the
// byte cap, and errs.ErrDuplicateCodename when the codename is already
// queued.
func (q *UpdateQueue) Enqueue(request *models.SelfUpdateRequest) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) >= q.maxSize {
		q.rejectedCount++
		return fmt.Errorf("queue at capacity (%d): %w", q.maxSize, errs.ErrQueueFull)
	}

	if size := request.ContentSize(); size > q.maxContentBytes {
		q.rejectedCount++
		return fmt.Errorf("request is %d bytes (max %d): %w", size, q.maxContentBytes, errs.ErrContentTooLarge)
	}

	for _, pending := range q.pending {
		if pending.Codename == request.Codename {
			q.rejectedCount++
			return fmt.Errorf("codename %q: %w", request.Codename, errs.ErrDuplicateCodename)
		}
	}

	q.pending = append(q.pending, request)
	return nil
}

// Dequeue returns the oldest request and marks it as the in-flight
// request, or nil when the queue is empty or a request is already being
// processed.
func (q *UpdateQueue) Dequeue() *models.SelfUpdateRequest {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.processing || len(q.pending) == 0 {
		return nil
	}

	request := q.pending[0]
	q.pending = q.pending[1:]
	q.processing = true
	q.currentID = request.ID
	request.Status = models.StatusPreflightChecks
	return request
}

// Complete clears the processing slot if requestID is the in-flight
// request. Completion of an unknown request is a no-op.
func (q *UpdateQueue) Complete(requestID string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.currentID == requestID {
		q.processing = false
		q.currentID = ""
	}
}

// Len returns the number of pending requests.
func (q *UpdateQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Status returns a snapshot of the queue contents.
func (q *UpdateQueue) Status() Status {
	q.mu.Lock()
	defer q.mu.Unlock()

	status := Status{
		QueueSize:      len(q.pending),
		MaxSize:        q.maxSize,
		RejectedCount:  q.rejectedCount,
		Processing:     q.processing,
		CurrentRequest: q.currentID,
	}
	for i, request := range q.pending {
		status.Pending = append(status.Pending, PendingEntry{
			ID:       request.ID,
			Codename: request.Codename,
			Position: i + 1,
		})
	}
	return status
}

// Clear drops all pending requests and frees the processing slot.
// Operator recovery only.
func (q *UpdateQueue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	dropped := len(q.pending)
	q.pending = nil
	q.processing = false
	q.currentID = ""
	return dropped
}
