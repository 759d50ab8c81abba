// Package sqlite_test contains integration tests for SQLite repositories.
//
// This file is the single point where the schema is loaded for tests. All
// test setup uses db.SchemaSQL so a repository referencing a missing
// column fails immediately instead of drifting.
package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/ouro/internal/adapters/sqlite"
	"github.com/example/ouro/internal/db"
	"github.com/example/ouro/internal/ports/secondary"
)

// setupTestDB creates an in-memory database with the authoritative schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	if _, err := testDB.Exec(db.SchemaSQL); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedRequest inserts a test update request and returns its ID.
func seedRequest(t *testing.T, conn *sql.DB, id, codename string) string {
	t.Helper()
	if id == "" {
		id = "req-001"
	}
	if codename == "" {
		codename = "test-update"
	}

	repo := sqlite.NewUpdateRequestRepository(conn)
	err := repo.Create(context.Background(), &secondary.UpdateRequestRecord{
		ID:          id,
		Codename:    codename,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Description: "test description",
		Status:      "queued",
	})
	if err != nil {
		t.Fatalf("failed to seed request: %v", err)
	}
	return id
}

// seedPlan inserts a test plan for a request and returns its ID.
func seedPlan(t *testing.T, conn *sql.DB, id, requestID string) string {
	t.Helper()
	if id == "" {
		id = "plan-001"
	}

	repo := sqlite.NewPlanRepository(conn)
	err := repo.Create(context.Background(), &secondary.PlanRecord{
		ID:        id,
		RequestID: requestID,
		RiskLevel: "Low",
		Body:      `{"plan_id":"` + id + `"}`,
	})
	if err != nil {
		t.Fatalf("failed to seed plan: %v", err)
	}
	return id
}
