package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Defaults for the update pipeline. Timeouts are JSON-configurable but
// these values are the ones the pipeline was tuned with.
const (
	DefaultMaxQueueSize     = 10
	DefaultMaxContentBytes  = 64 * 1024
	DefaultMaxCheckRetries  = 3
	DefaultMaxIterations    = 3
	DefaultLockStaleMinutes = 30
	DefaultCheckTimeoutSecs = 120
	DefaultProbeTimeoutSecs = 60
	DefaultApprovalTimeout  = 3600
	DefaultProgressInterval = 5
)

// Config represents the flat ouro configuration.
type Config struct {
	Version string `json:"version"`

	// RepoRoot is the working tree the pipeline modifies. Empty means cwd.
	RepoRoot string `json:"repo_root,omitempty"`

	// LogRoot is where per-update log directories go. Empty means
	// <repo_root>/logs/updates.
	LogRoot string `json:"log_root,omitempty"`

	// Queue caps.
	MaxQueueSize    int `json:"max_queue_size"`
	MaxContentBytes int `json:"max_content_bytes"`

	// Pipeline limits.
	MaxCheckRetries int `json:"max_check_retries"`
	MaxIterations   int `json:"max_iterations"`

	// Timeouts, in seconds.
	CheckTimeoutSecs     int `json:"check_timeout_secs"`
	ProbeTimeoutSecs     int `json:"probe_timeout_secs"`
	ApprovalTimeoutSecs  int `json:"approval_timeout_secs"`
	LockStaleMinutes     int `json:"lock_stale_minutes"`
	ProgressIntervalSecs int `json:"progress_interval_secs"`

	// CriticalPaths are path fragments whose modification always requires
	// human approval.
	CriticalPaths []string `json:"critical_paths,omitempty"`

	// AgentCommand is the argv used to launch the implementation agent.
	AgentCommand []string `json:"agent_command,omitempty"`

	// BinaryProbe is the argv the health check runs to prove the built
	// binary still starts.
	BinaryProbe []string `json:"binary_probe,omitempty"`

	// DocCheckEnabled toggles the documentation check in the mechanical
	// validation phase.
	DocCheckEnabled bool `json:"doc_check_enabled"`
}

// DefaultConfig returns a config populated with the tuned defaults.
func DefaultConfig() *Config {
	return &Config{
		Version:              "1",
		MaxQueueSize:         DefaultMaxQueueSize,
		MaxContentBytes:      DefaultMaxContentBytes,
		MaxCheckRetries:      DefaultMaxCheckRetries,
		MaxIterations:        DefaultMaxIterations,
		CheckTimeoutSecs:     DefaultCheckTimeoutSecs,
		ProbeTimeoutSecs:     DefaultProbeTimeoutSecs,
		ApprovalTimeoutSecs:  DefaultApprovalTimeout,
		LockStaleMinutes:     DefaultLockStaleMinutes,
		ProgressIntervalSecs: DefaultProgressInterval,
		CriticalPaths:        []string{"go.mod", ".env", "internal/wire"},
		BinaryProbe:          []string{"go", "run", "./cmd/ouro", "version"},
		DocCheckEnabled:      true,
	}
}

// LoadConfig reads .ouro/config.json from the specified directory.
// Resolution order: cwd only (no home fallback). Missing config returns
// the defaults rather than an error; a present but malformed config is
// an error.
func LoadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, ".ouro", "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig writes config.json to directory.
func SaveConfig(dir string, cfg *Config) error {
	ouroDir := filepath.Join(dir, ".ouro")
	if err := os.MkdirAll(ouroDir, 0755); err != nil {
		return fmt.Errorf("failed to create .ouro dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(ouroDir, "config.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate rejects configs that would wedge the pipeline.
func (c *Config) Validate() error {
	if c.MaxQueueSize <= 0 {
		return fmt.Errorf("max_queue_size must be positive, got %d", c.MaxQueueSize)
	}
	if c.MaxContentBytes <= 0 {
		return fmt.Errorf("max_content_bytes must be positive, got %d", c.MaxContentBytes)
	}
	if c.MaxCheckRetries < 0 {
		return fmt.Errorf("max_check_retries must not be negative, got %d", c.MaxCheckRetries)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive, got %d", c.MaxIterations)
	}
	if c.LockStaleMinutes <= 0 {
		return fmt.Errorf("lock_stale_minutes must be positive, got %d", c.LockStaleMinutes)
	}
	return nil
}

// CheckTimeout returns the per-check deadline.
func (c *Config) CheckTimeout() time.Duration {
	return time.Duration(c.CheckTimeoutSecs) * time.Second
}

// ProbeTimeout returns the per-health-probe deadline.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSecs) * time.Second
}

// ApprovalTimeout returns how long a run waits on human approval.
func (c *Config) ApprovalTimeout() time.Duration {
	return time.Duration(c.ApprovalTimeoutSecs) * time.Second
}

// LockStaleAfter returns the lock staleness threshold.
func (c *Config) LockStaleAfter() time.Duration {
	return time.Duration(c.LockStaleMinutes) * time.Minute
}

// ProgressInterval returns the periodic progress reporting interval.
func (c *Config) ProgressInterval() time.Duration {
	return time.Duration(c.ProgressIntervalSecs) * time.Second
}

// ResolveRepoRoot returns the configured repo root or cwd.
func (c *Config) ResolveRepoRoot() (string, error) {
	if c.RepoRoot != "" {
		return c.RepoRoot, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return cwd, nil
}

// ResolveLogRoot returns the configured log root or the default under
// the repo root.
func (c *Config) ResolveLogRoot() (string, error) {
	if c.LogRoot != "" {
		return c.LogRoot, nil
	}
	root, err := c.ResolveRepoRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "logs", "updates"), nil
}
