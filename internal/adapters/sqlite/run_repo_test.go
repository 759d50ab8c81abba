package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/example/ouro/internal/adapters/sqlite"
	"github.com/example/ouro/internal/ports/secondary"
)

func seedRun(t *testing.T, repo *sqlite.RunRepository, id, requestID, startedAt string) {
	t.Helper()
	err := repo.Create(context.Background(), &secondary.RunRecord{
		ID:        id,
		RequestID: requestID,
		Phase:     "initializing",
		StartedAt: startedAt,
	})
	if err != nil {
		t.Fatalf("failed to seed run %s: %v", id, err)
	}
}

func TestRunRepository_CreateAndGet(t *testing.T) {
	conn := setupTestDB(t)
	repo := sqlite.NewRunRepository(conn)
	ctx := context.Background()

	requestID := seedRequest(t, conn, "", "")
	planID := seedPlan(t, conn, "", requestID)

	record := &secondary.RunRecord{
		ID:         "run-001",
		RequestID:  requestID,
		PlanID:     planID,
		Phase:      "implementing",
		SnapshotID: "pre-update-snapshot-test-123",
		LogDir:     "/tmp/logs/test",
		StartedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	if err := repo.Create(ctx, record); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "run-001")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Phase != "implementing" || got.SnapshotID != "pre-update-snapshot-test-123" {
		t.Errorf("got phase=%q snapshot=%q", got.Phase, got.SnapshotID)
	}
	if got.Success || got.RolledBack {
		t.Error("fresh run should not be successful or rolled back")
	}
}

func TestRunRepository_UpdateRecordsOutcome(t *testing.T) {
	conn := setupTestDB(t)
	repo := sqlite.NewRunRepository(conn)
	ctx := context.Background()

	requestID := seedRequest(t, conn, "", "")
	seedRun(t, repo, "run-001", requestID, time.Now().UTC().Format(time.RFC3339))

	err := repo.Update(ctx, &secondary.RunRecord{
		ID:            "run-001",
		RequestID:     requestID,
		Phase:         "failed",
		RolledBack:    true,
		FailureReason: "validation exhausted retries",
		FinishedAt:    time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "run-001")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !got.RolledBack || got.FailureReason != "validation exhausted retries" {
		t.Errorf("got rolledBack=%v reason=%q", got.RolledBack, got.FailureReason)
	}
	if got.FinishedAt == "" {
		t.Error("finished_at should be recorded")
	}
}

func TestRunRepository_GetLatestByRequestID(t *testing.T) {
	conn := setupTestDB(t)
	repo := sqlite.NewRunRepository(conn)
	ctx := context.Background()

	requestID := seedRequest(t, conn, "", "")
	base := time.Now().UTC()
	seedRun(t, repo, "run-001", requestID, base.Add(-time.Hour).Format(time.RFC3339))
	seedRun(t, repo, "run-002", requestID, base.Format(time.RFC3339))

	got, err := repo.GetLatestByRequestID(ctx, requestID)
	if err != nil {
		t.Fatalf("GetLatestByRequestID failed: %v", err)
	}
	if got.ID != "run-002" {
		t.Errorf("expected run-002, got %s", got.ID)
	}
}

func TestRunRepository_ListFilters(t *testing.T) {
	conn := setupTestDB(t)
	repo := sqlite.NewRunRepository(conn)
	ctx := context.Background()

	first := seedRequest(t, conn, "req-001", "first")
	second := seedRequest(t, conn, "req-002", "second")
	now := time.Now().UTC().Format(time.RFC3339)
	seedRun(t, repo, "run-001", first, now)
	seedRun(t, repo, "run-002", second, now)

	runs, err := repo.List(ctx, secondary.RunFilters{RequestID: first})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "run-001" {
		t.Errorf("unexpected filtered list: %+v", runs)
	}

	limited, err := repo.List(ctx, secondary.RunFilters{Limit: 1})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limit 1 should yield one run, got %d", len(limited))
	}
}
