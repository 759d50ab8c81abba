package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/ouro/internal/updatelog"
)

func seedLogDir(t *testing.T, root, codename string) string {
	t.Helper()
	logger, err := updatelog.New(root, "update-"+codename, codename)
	if err != nil {
		t.Fatalf("failed to create log dir: %v", err)
	}
	logger.Log("seeded")
	logger.Close()
	return filepath.Base(logger.Dir())
}

func TestListUpdateLogs(t *testing.T) {
	root := t.TempDir()
	oldDir := seedLogDir(t, root, "older")
	newDir := seedLogDir(t, root, "newer")
	// Separate the modification times regardless of filesystem resolution.
	past := time.Now().Add(-time.Hour)
	os.Chtimes(filepath.Join(root, oldDir), past, past)

	service := NewLogService(root)
	logs, err := service.ListUpdateLogs(context.Background())
	if err != nil {
		t.Fatalf("ListUpdateLogs failed: %v", err)
	}

	if len(logs) != 2 {
		t.Fatalf("expected 2 log dirs, got %d", len(logs))
	}
	if logs[0].DirName != newDir {
		t.Errorf("newest dir should come first, got %s", logs[0].DirName)
	}
	if logs[0].Codename != "newer" {
		t.Errorf("codename should be parsed from the dir name, got %q", logs[0].Codename)
	}
	if len(logs[0].Files) == 0 {
		t.Error("file listing should include main.log")
	}
}

func TestListUpdateLogsMissingRoot(t *testing.T) {
	service := NewLogService(filepath.Join(t.TempDir(), "nope"))
	logs, err := service.ListUpdateLogs(context.Background())
	if err != nil {
		t.Fatalf("a missing root is not an error: %v", err)
	}
	if len(logs) != 0 {
		t.Errorf("expected no logs, got %v", logs)
	}
}

func TestArchiveUpdateLogs(t *testing.T) {
	root := t.TempDir()
	dirName := seedLogDir(t, root, "done")

	service := NewLogService(root)
	archivePath, err := service.ArchiveUpdateLogs(context.Background(), dirName)
	if err != nil {
		t.Fatalf("ArchiveUpdateLogs failed: %v", err)
	}
	if _, err := os.Stat(archivePath); err != nil {
		t.Errorf("archive should exist: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, dirName)); err != nil {
		t.Errorf("original dir should be left in place: %v", err)
	}
}

func TestArchiveUpdateLogsRejectsTraversal(t *testing.T) {
	service := NewLogService(t.TempDir())
	for _, name := range []string{"../escape", "a/b"} {
		if _, err := service.ArchiveUpdateLogs(context.Background(), name); err == nil {
			t.Errorf("%q should be rejected", name)
		}
	}
}
