package app

import (
	"context"
	"fmt"
	"time"

	"github.com/example/ouro/internal/models"
	"github.com/example/ouro/internal/ports/secondary"
)

// HealthConfig tunes the post-update health probes.
type HealthConfig struct {
	RepoRoot     string
	ProbeTimeout time.Duration
	// BinaryProbe is the argv used to prove the built binary still starts.
	BinaryProbe []string
}

// HealthService verifies system health after an update has been applied.
// Critical probe failures mean the update must be rolled back; warning
// probes degrade the report without failing it.
type HealthService struct {
	runner secondary.CommandRunner
	git    secondary.SnapshotStore
	cfg    HealthConfig
}

// NewHealthService creates a new HealthService with injected dependencies.
func NewHealthService(
	runner secondary.CommandRunner,
	git secondary.SnapshotStore,
	cfg HealthConfig,
) *HealthService {
	return &HealthService{
		runner: runner,
		git:    git,
		cfg:    cfg,
	}
}

// Check runs all probes and aggregates the verdict. Healthy means every
// critical probe passed.
func (s *HealthService) Check(ctx context.Context) *models.HealthCheckResult {
	start := time.Now()

	probes := []struct {
		name     string
		category models.HealthCategory
		run      func(context.Context) (bool, string, string)
	}{
		{"compilation", models.HealthCompilation, s.probeCommand("go", "build", "./...")},
		{"tests", models.HealthTests, s.probeCommand("go", "test", "./...")},
		{"binary_execution", models.HealthBinaryExecution, s.probeBinary},
		{"dependencies", models.HealthDependencies, s.probeCommand("go", "mod", "verify")},
		{"documentation", models.HealthDocumentation, s.probeCommand("go", "doc", ".")},
		{"git_status", models.HealthGitStatus, s.probeGitStatus},
	}

	result := &models.HealthCheckResult{Healthy: true}
	for _, probe := range probes {
		probeStart := time.Now()
		passed, errMsg, details := probe.run(ctx)

		check := models.HealthCheck{
			Name:     probe.name,
			Category: probe.category,
			Passed:   passed,
			Duration: time.Since(probeStart),
			Error:    errMsg,
			Details:  details,
		}
		result.Checks = append(result.Checks, check)

		if passed {
			continue
		}
		switch {
		case probe.category.Critical():
			result.Healthy = false
			result.CriticalIssues = append(result.CriticalIssues,
				fmt.Sprintf("%s: %s", probe.name, errMsg))
		case probe.category.Informational():
			// Recorded in the check, never counted against health.
		default:
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s: %s", probe.name, errMsg))
		}
	}

	result.Duration = time.Since(start)
	return result
}

func (s *HealthService) probeCommand(argv ...string) func(context.Context) (bool, string, string) {
	return func(ctx context.Context) (bool, string, string) {
		result, err := s.runner.Run(ctx, s.cfg.RepoRoot, s.cfg.ProbeTimeout, argv...)
		if err != nil {
			return false, err.Error(), ""
		}
		if result.TimedOut {
			return false, fmt.Sprintf("timed out after %s", s.cfg.ProbeTimeout), result.CombinedOutput()
		}
		if !result.Succeeded() {
			return false, fmt.Sprintf("exit status %d", result.ExitCode), result.CombinedOutput()
		}
		return true, "", ""
	}
}

func (s *HealthService) probeBinary(ctx context.Context) (bool, string, string) {
	if len(s.cfg.BinaryProbe) == 0 {
		return false, "binary_probe is not configured", ""
	}
	return s.probeCommand(s.cfg.BinaryProbe...)(ctx)
}

// probeGitStatus is informational: a dirty tree after completion is
// worth noting but never a failure.
func (s *HealthService) probeGitStatus(ctx context.Context) (bool, string, string) {
	dirty, err := s.git.HasUncommittedChanges(ctx)
	if err != nil {
		return false, err.Error(), ""
	}
	if dirty {
		return false, "working tree has uncommitted changes", ""
	}
	return true, "", ""
}
