package models

import "time"

// HealthCategory classifies a post-update health probe.
type HealthCategory string

// Health check categories. Compilation and BinaryExecution failures are
// critical; Tests, Dependencies, and Documentation failures are warnings;
// GitStatus is informational only.
const (
	HealthCompilation     HealthCategory = "compilation"
	HealthTests           HealthCategory = "tests"
	HealthBinaryExecution HealthCategory = "binary_execution"
	HealthDependencies    HealthCategory = "dependencies"
	HealthDocumentation   HealthCategory = "documentation"
	HealthGitStatus       HealthCategory = "git_status"
)

// Critical reports whether a failed probe in this category blocks
// declaring the system healthy.
func (c HealthCategory) Critical() bool {
	return c == HealthCompilation || c == HealthBinaryExecution
}

// Informational reports whether the category never affects health.
func (c HealthCategory) Informational() bool {
	return c == HealthGitStatus
}

// HealthCheck is the outcome of a single probe.
type HealthCheck struct {
	Name     string
	Category HealthCategory
	Passed   bool
	Duration time.Duration
	Error    string
	Details  string
}

// HealthCheckResult aggregates all post-update probes.
type HealthCheckResult struct {
	Healthy        bool
	Checks         []HealthCheck
	Duration       time.Duration
	CriticalIssues []string
	Warnings       []string
}
