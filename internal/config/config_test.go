package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := LoadConfig(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfig failed on missing config: %v", err)
	}

	if cfg.MaxQueueSize != DefaultMaxQueueSize {
		t.Errorf("MaxQueueSize = %d, want %d", cfg.MaxQueueSize, DefaultMaxQueueSize)
	}
	if cfg.MaxContentBytes != DefaultMaxContentBytes {
		t.Errorf("MaxContentBytes = %d, want %d", cfg.MaxContentBytes, DefaultMaxContentBytes)
	}
	if cfg.LockStaleAfter() != 30*time.Minute {
		t.Errorf("LockStaleAfter = %s, want 30m", cfg.LockStaleAfter())
	}
	if len(cfg.BinaryProbe) == 0 {
		t.Error("defaults should carry a binary probe command")
	}
}

func TestLoadConfig_OverridesMergeWithDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	ouroDir := filepath.Join(tmpDir, ".ouro")
	if err := os.MkdirAll(ouroDir, 0755); err != nil {
		t.Fatalf("failed to create .ouro dir: %v", err)
	}

	partial := `{"version":"1","max_queue_size":3,"max_content_bytes":1024,"max_iterations":2,"lock_stale_minutes":30,"max_check_retries":3,"check_timeout_secs":120,"probe_timeout_secs":60,"approval_timeout_secs":3600,"progress_interval_secs":5,"doc_check_enabled":false}`
	if err := os.WriteFile(filepath.Join(ouroDir, "config.json"), []byte(partial), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadConfig(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.MaxQueueSize != 3 {
		t.Errorf("MaxQueueSize = %d, want 3", cfg.MaxQueueSize)
	}
	if cfg.MaxIterations != 2 {
		t.Errorf("MaxIterations = %d, want 2", cfg.MaxIterations)
	}
	if cfg.DocCheckEnabled {
		t.Error("doc check should be disabled by the override")
	}
}

func TestLoadConfig_RejectsInvalidValues(t *testing.T) {
	tmpDir := t.TempDir()
	ouroDir := filepath.Join(tmpDir, ".ouro")
	if err := os.MkdirAll(ouroDir, 0755); err != nil {
		t.Fatalf("failed to create .ouro dir: %v", err)
	}

	bad := `{"version":"1","max_queue_size":0}`
	if err := os.WriteFile(filepath.Join(ouroDir, "config.json"), []byte(bad), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := LoadConfig(tmpDir); err == nil {
		t.Error("zero queue size should fail validation")
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := DefaultConfig()
	cfg.MaxQueueSize = 7
	cfg.CriticalPaths = []string{"go.mod"}

	if err := SaveConfig(tmpDir, cfg); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.MaxQueueSize != 7 {
		t.Errorf("MaxQueueSize = %d, want 7", loaded.MaxQueueSize)
	}
	if len(loaded.CriticalPaths) != 1 || loaded.CriticalPaths[0] != "go.mod" {
		t.Errorf("CriticalPaths = %v, want [go.mod]", loaded.CriticalPaths)
	}
}

func TestResolveLogRootDefaultsUnderRepoRoot(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RepoRoot = "/tmp/repo"

	got, err := cfg.ResolveLogRoot()
	if err != nil {
		t.Fatalf("ResolveLogRoot failed: %v", err)
	}
	want := filepath.Join("/tmp/repo", "logs", "updates")
	if got != want {
		t.Errorf("ResolveLogRoot = %s, want %s", got, want)
	}
}
