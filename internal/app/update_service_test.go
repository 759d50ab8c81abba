package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/ouro/internal/core/lock"
	"github.com/example/ouro/internal/core/queue"
	"github.com/example/ouro/internal/errs"
	"github.com/example/ouro/internal/ports/primary"
	"github.com/example/ouro/internal/ports/secondary"
)

func newUpdateService(repo *mockRequestRepo) (*UpdateServiceImpl, *queue.UpdateQueue, *lock.SystemLock) {
	q := queue.New(10, 64*1024)
	l := lock.New(30 * time.Minute)
	return NewUpdateService(repo, q, l), q, l
}

func TestSubmitRequest(t *testing.T) {
	repo := newMockRequestRepo()
	service, q, _ := newUpdateService(repo)

	result, err := service.SubmitRequest(context.Background(), primary.SubmitRequestInput{
		Codename:    "fix-leak",
		Description: "fix the memory leak",
		RequesterID: "user-1",
	})
	if err != nil {
		t.Fatalf("SubmitRequest failed: %v", err)
	}
	if result.RequestID == "" {
		t.Error("submission should assign a request ID")
	}
	if result.QueuePosition != 1 {
		t.Errorf("first submission should be position 1, got %d", result.QueuePosition)
	}
	if q.Len() != 1 {
		t.Errorf("queue should hold the request, got %d", q.Len())
	}
	if _, ok := repo.requests[result.RequestID]; !ok {
		t.Error("request should be persisted")
	}
}

func TestSubmitRequestValidation(t *testing.T) {
	repo := newMockRequestRepo()
	service, _, _ := newUpdateService(repo)
	ctx := context.Background()

	if _, err := service.SubmitRequest(ctx, primary.SubmitRequestInput{Description: "x"}); err == nil {
		t.Error("empty codename should be rejected")
	}
	if _, err := service.SubmitRequest(ctx, primary.SubmitRequestInput{Codename: "x"}); err == nil {
		t.Error("empty description should be rejected")
	}
	for _, codename := range []string{"fix leak", "fix/leak", "fix;rm -rf", "fix.leak"} {
		if _, err := service.SubmitRequest(ctx, primary.SubmitRequestInput{Codename: codename, Description: "x"}); err == nil {
			t.Errorf("codename %q should be rejected", codename)
		}
	}
}

func TestSubmitRequestRejectsLedgerDuplicate(t *testing.T) {
	repo := newMockRequestRepo()
	repo.codenames["fix-leak"] = true
	service, _, _ := newUpdateService(repo)

	_, err := service.SubmitRequest(context.Background(), primary.SubmitRequestInput{
		Codename:    "fix-leak",
		Description: "again",
	})
	if !errors.Is(err, errs.ErrDuplicateCodename) {
		t.Errorf("expected ErrDuplicateCodename, got %v", err)
	}
}

func TestSubmitRequestPropagatesQueueFull(t *testing.T) {
	repo := newMockRequestRepo()
	q := queue.New(1, 64*1024)
	service := NewUpdateService(repo, q, lock.New(30*time.Minute))
	ctx := context.Background()

	if _, err := service.SubmitRequest(ctx, primary.SubmitRequestInput{Codename: "a", Description: "a"}); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	_, err := service.SubmitRequest(ctx, primary.SubmitRequestInput{Codename: "b", Description: "b"})
	if !errors.Is(err, errs.ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
}

func TestRestoreQueue(t *testing.T) {
	repo := newMockRequestRepo()
	repo.requests["r-2"] = &secondary.UpdateRequestRecord{
		ID: "r-2", Codename: "second", Description: "b",
		Timestamp: "2026-08-25T11:00:00Z", Status: "queued",
		ContextMessages: `["follow-up"]`,
	}
	repo.requests["r-1"] = &secondary.UpdateRequestRecord{
		ID: "r-1", Codename: "first", Description: "a",
		Timestamp: "2026-08-25T10:00:00Z", Status: "queued",
	}
	repo.requests["r-3"] = &secondary.UpdateRequestRecord{
		ID: "r-3", Codename: "done", Description: "c",
		Timestamp: "2026-08-25T09:00:00Z", Status: "completed",
	}
	service, q, _ := newUpdateService(repo)

	restored, err := service.RestoreQueue(context.Background())
	if err != nil {
		t.Fatalf("RestoreQueue failed: %v", err)
	}
	if restored != 2 {
		t.Errorf("expected 2 restored, got %d", restored)
	}
	first := q.Dequeue()
	if first == nil || first.ID != "r-1" {
		t.Errorf("oldest request should come back first, got %+v", first)
	}
}

func TestQueueStatusAndClear(t *testing.T) {
	repo := newMockRequestRepo()
	service, _, _ := newUpdateService(repo)
	ctx := context.Background()

	service.SubmitRequest(ctx, primary.SubmitRequestInput{Codename: "a", Description: "a"})
	service.SubmitRequest(ctx, primary.SubmitRequestInput{Codename: "b", Description: "b"})

	status, err := service.QueueStatus(ctx)
	if err != nil {
		t.Fatalf("QueueStatus failed: %v", err)
	}
	if status.QueueSize != 2 || len(status.Pending) != 2 {
		t.Errorf("unexpected status: %+v", status)
	}

	dropped, err := service.ClearQueue(ctx)
	if err != nil {
		t.Fatalf("ClearQueue failed: %v", err)
	}
	if dropped != 2 {
		t.Errorf("expected 2 dropped, got %d", dropped)
	}
}

func TestLockStatusAndForceRelease(t *testing.T) {
	repo := newMockRequestRepo()
	service, _, l := newUpdateService(repo)
	ctx := context.Background()

	status, err := service.LockStatus(ctx)
	if err != nil {
		t.Fatalf("LockStatus failed: %v", err)
	}
	if status.Locked {
		t.Error("fresh lock should be free")
	}

	token, _ := l.TryAcquire("update-1")
	if token == nil {
		t.Fatal("acquire failed")
	}

	status, _ = service.LockStatus(ctx)
	if !status.Locked || status.UpdateID != "update-1" {
		t.Errorf("unexpected lock status: %+v", status)
	}

	prior, err := service.ForceReleaseLock(ctx)
	if err != nil {
		t.Fatalf("ForceReleaseLock failed: %v", err)
	}
	if prior != "update-1" {
		t.Errorf("expected prior holder update-1, got %q", prior)
	}
	if status, _ := service.LockStatus(ctx); status.Locked {
		t.Error("lock should be free after force release")
	}
}
