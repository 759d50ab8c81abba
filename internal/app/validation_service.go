package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/ouro/internal/errs"
	"github.com/example/ouro/internal/models"
	"github.com/example/ouro/internal/ports/secondary"
	"github.com/example/ouro/internal/updatelog"
)

// PhaseEngineeringReview and PhaseAssemblyChecklist name the two
// validation phases in check results and logs.
const (
	PhaseEngineeringReview = "engineering_review"
	PhaseAssemblyChecklist = "assembly_checklist"
)

// ValidationConfig tunes the pipeline.
type ValidationConfig struct {
	RepoRoot        string
	MaxIterations   int
	MaxCheckRetries int
	CheckTimeout    time.Duration
	DocCheckEnabled bool
}

// ValidationService runs the two-phase validation pipeline: a review
// phase driven by the code-generation collaborator, then a mechanical
// checklist driven by the toolchain. A checklist check that needed a
// retry to pass sends the pipeline back to the review phase, up to
// MaxIterations times.
type ValidationService struct {
	generator secondary.CodeGenerator
	runner    secondary.CommandRunner
	cfg       ValidationConfig
}

// NewValidationService creates a new ValidationService with injected dependencies.
func NewValidationService(
	generator secondary.CodeGenerator,
	runner secondary.CommandRunner,
	cfg ValidationConfig,
) *ValidationService {
	return &ValidationService{
		generator: generator,
		runner:    runner,
		cfg:       cfg,
	}
}

// reviewChecks are the collaborator-driven review topics, in order.
// Each carries a deterministic toolchain fallback that stands in when
// the collaborator is unreachable.
var reviewChecks = []struct {
	name         string
	prompt       string
	fallbackArgv []string
}{
	{"code-standards", "Review the most recent changes in this repository for code standard violations: naming, error handling, dead code, and obvious smells.", []string{"go", "vet", "./..."}},
	{"test-coverage", "Review the most recent changes in this repository for test coverage: does every behavioral change have a corresponding test?", []string{"go", "test", "./..."}},
	{"security", "Review the most recent changes in this repository for security problems: injection, path traversal, secrets in code, unsafe subprocess use.", []string{"go", "vet", "./..."}},
	{"integration", "Review the most recent changes in this repository for integration hazards: broken callers, changed interfaces, incompatible data formats.", []string{"go", "build", "./..."}},
}

// RunPipeline validates the working tree after an implementation pass.
// Results are appended to the update's log as the pipeline goes.
func (s *ValidationService) RunPipeline(ctx context.Context, logger *updatelog.Logger) (*models.PreValidationResult, error) {
	result := &models.PreValidationResult{}

	for iteration := 1; iteration <= s.cfg.MaxIterations; iteration++ {
		result.PipelineIterations = iteration
		logger.LogPhase("validating", "pipeline iteration %d of %d", iteration, s.cfg.MaxIterations)

		reviewResults := s.runEngineeringReview(ctx, logger)
		tally(result, reviewResults)
		if failed := failedChecks(reviewResults); len(failed) > 0 {
			result.EngineeringReviewPassed = false
			s.recordFailures(result, PhaseEngineeringReview, failed)
			if iteration == s.cfg.MaxIterations {
				return result, nil
			}
			continue
		}
		result.EngineeringReviewPassed = true

		checklistResults, neededRetry := s.runAssemblyChecklist(ctx, logger)
		tally(result, checklistResults)
		if failed := failedChecks(checklistResults); len(failed) > 0 {
			result.AssemblyChecklistPassed = false
			s.recordFailures(result, PhaseAssemblyChecklist, failed)
			if iteration == s.cfg.MaxIterations {
				return result, nil
			}
			continue
		}
		result.AssemblyChecklistPassed = true

		// A check that needed retries passed only after intervention, so
		// the review phase gets another look at the tree.
		if neededRetry && iteration < s.cfg.MaxIterations {
			logger.LogPhase("validating", "checklist needed retries, looping back to review")
			result.AssemblyChecklistPassed = false
			continue
		}

		return result, nil
	}

	return result, nil
}

// runEngineeringReview runs the collaborator-driven review checks. A
// check passes when the reply carries a "STATUS: PASS" marker. When the
// collaborator is unreachable the check falls back to its deterministic
// toolchain probe, so an outage never waves a broken tree through.
func (s *ValidationService) runEngineeringReview(ctx context.Context, logger *updatelog.Logger) []models.CheckResult {
	results := make([]models.CheckResult, 0, len(reviewChecks))

	for _, check := range reviewChecks {
		reply, err := s.generator.Generate(ctx, &secondary.CodeGenerationRequest{
			Description: check.prompt + "\nEnd your reply with exactly one line: STATUS: PASS or STATUS: FAIL.",
			Context:     map[string]string{"check": check.name},
		})

		var outcome models.CheckResult
		switch {
		case err != nil:
			outcome = s.runFallbackReview(ctx, check.name, check.fallbackArgv, err)
		case hasPassMarker(reply.Explanation):
			outcome = models.CheckResult{Name: check.name, Passed: true, Output: reply.Explanation}
		default:
			outcome = models.CheckResult{Name: check.name, Passed: false, Output: reply.Explanation}
		}

		logger.LogValidation(outcome.Name, outcome.Passed, truncateOutput(outcome.Output))
		results = append(results, outcome)
	}

	return results
}

// runFallbackReview runs a review check's deterministic probe when the
// collaborator could not answer.
func (s *ValidationService) runFallbackReview(ctx context.Context, name string, argv []string, reviewErr error) models.CheckResult {
	note := fmt.Sprintf("review collaborator unavailable (%v); ran fallback %s",
		reviewErr, strings.Join(argv, " "))

	cmdResult, err := s.runner.Run(ctx, s.cfg.RepoRoot, s.cfg.CheckTimeout, argv...)
	if err != nil {
		return models.CheckResult{Name: name, Passed: false, Output: note + "\n" + err.Error()}
	}
	return models.CheckResult{
		Name:   name,
		Passed: cmdResult.Succeeded(),
		Output: note + "\n" + cmdResult.CombinedOutput(),
	}
}

// runAssemblyChecklist runs the mechanical toolchain checks. Each check
// is retried up to MaxCheckRetries; the format check auto-fixes between
// attempts. Returns the results and whether any check needed a retry.
func (s *ValidationService) runAssemblyChecklist(ctx context.Context, logger *updatelog.Logger) ([]models.CheckResult, bool) {
	checks := []struct {
		name    string
		argv    []string
		fixArgv []string
		enabled bool
	}{
		{"compile", []string{"go", "build", "./..."}, nil, true},
		{"test", []string{"go", "test", "./..."}, nil, true},
		{"format", []string{"gofmt", "-l", "."}, []string{"gofmt", "-w", "."}, true},
		{"lint", []string{"go", "vet", "./..."}, nil, true},
		{"doc", []string{"go", "doc", "-all", "."}, nil, s.cfg.DocCheckEnabled},
	}

	var results []models.CheckResult
	neededRetry := false

	for _, check := range checks {
		if !check.enabled {
			continue
		}
		outcome := s.runCheckWithRetries(ctx, check.name, check.argv, check.fixArgv)
		if outcome.RetriesUsed > 0 {
			neededRetry = true
		}
		logger.LogValidation(outcome.Name, outcome.Passed, truncateOutput(outcome.Output))
		results = append(results, outcome)
	}

	return results, neededRetry
}

func (s *ValidationService) runCheckWithRetries(ctx context.Context, name string, argv, fixArgv []string) models.CheckResult {
	var lastOutput string

	for attempt := 0; attempt <= s.cfg.MaxCheckRetries; attempt++ {
		cmdResult, err := s.runner.Run(ctx, s.cfg.RepoRoot, s.cfg.CheckTimeout, argv...)
		if err != nil {
			lastOutput = err.Error()
		} else {
			lastOutput = cmdResult.CombinedOutput()
			if checkPassed(name, cmdResult) {
				return models.CheckResult{
					Name:        name,
					Passed:      true,
					Output:      lastOutput,
					RetriesUsed: attempt,
				}
			}
		}

		if attempt < s.cfg.MaxCheckRetries && len(fixArgv) > 0 {
			s.runner.Run(ctx, s.cfg.RepoRoot, s.cfg.CheckTimeout, fixArgv...)
		}
	}

	return models.CheckResult{
		Name:        name,
		Passed:      false,
		Output:      lastOutput,
		RetriesUsed: s.cfg.MaxCheckRetries,
	}
}

// checkPassed interprets a command result for one check. The format
// check passes only when gofmt reports no files, not merely exit 0.
func checkPassed(name string, result *secondary.CommandResult) bool {
	if !result.Succeeded() {
		return false
	}
	if name == "format" {
		return strings.TrimSpace(result.Stdout) == ""
	}
	return true
}

// validationFailureError converts a failed pipeline result into its
// taxonomy error, naming the phase and the last check that failed.
func validationFailureError(result *models.PreValidationResult) *errs.ValidationError {
	phase := PhaseAssemblyChecklist
	if !result.EngineeringReviewPassed {
		phase = PhaseEngineeringReview
	}
	check := ""
	if n := len(result.ChecksFailed); n > 0 {
		check = result.ChecksFailed[n-1]
	}
	details := result.ErrorDetails
	if details == "" {
		details = fmt.Sprintf("%d of %d checks failed", len(result.ChecksFailed), result.TotalChecksRun)
	}
	return &errs.ValidationError{
		Phase: phase,
		Check: check,
		Err:   fmt.Errorf("after %d iteration(s): %s", result.PipelineIterations, details),
	}
}

func (s *ValidationService) recordFailures(result *models.PreValidationResult, phase string, failed []models.CheckResult) {
	var details []string
	for _, check := range failed {
		err := &errs.ValidationError{
			Phase: phase,
			Check: check.Name,
			Err:   fmt.Errorf("%s", truncateOutput(check.Output)),
		}
		details = append(details, err.Error())
	}
	if result.ErrorDetails != "" {
		details = append([]string{result.ErrorDetails}, details...)
	}
	result.ErrorDetails = strings.Join(details, "; ")
}

func tally(result *models.PreValidationResult, checks []models.CheckResult) {
	for _, check := range checks {
		result.TotalChecksRun++
		if check.Passed {
			result.ChecksPassed = append(result.ChecksPassed, check.Name)
		} else {
			result.ChecksFailed = append(result.ChecksFailed, check.Name)
		}
	}
}

func failedChecks(checks []models.CheckResult) []models.CheckResult {
	var failed []models.CheckResult
	for _, check := range checks {
		if !check.Passed {
			failed = append(failed, check)
		}
	}
	return failed
}

func hasPassMarker(output string) bool {
	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) == "STATUS: PASS" {
			return true
		}
	}
	return false
}

func truncateOutput(output string) string {
	const max = 4096
	if len(output) > max {
		return output[:max] + "\n... (truncated)"
	}
	return output
}
