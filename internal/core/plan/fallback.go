// Package plan contains the deterministic fallback planning logic used
// when the code-generation collaborator is unavailable or returns an
// unparseable plan. The heuristics are keyword-based and guarantee the
// pipeline always has a valid plan to work with.
package plan

import (
	"fmt"
	"strings"

	"github.com/example/ouro/internal/models"
)

// Intent is the detected primary intent of an update request.
type Intent string

// Detected intents
const (
	IntentBugFix          Intent = "bug_fix"
	IntentFeatureAddition Intent = "feature_addition"
	IntentImprovement     Intent = "improvement"
	IntentUpdate          Intent = "update"
	IntentUnknown         Intent = "unknown"
)

// Scope is the detected blast radius of an update request.
type Scope string

// Detected scopes
const (
	ScopeCritical Scope = "critical"
	ScopePublic   Scope = "public"
	ScopeInternal Scope = "internal"
	ScopeUnknown  Scope = "unknown"
)

// Analysis is the result of analyzing a request's text.
type Analysis struct {
	PrimaryIntent     Intent
	Scope             Scope
	AffectedAreas     []string
	ComplexityFactors []string
}

// Analyze inspects the request's description and conversation context.
func Analyze(request *models.SelfUpdateRequest) Analysis {
	text := strings.ToLower(request.Description + "\n" + strings.Join(request.ContextMessages, "\n"))
	return Analysis{
		PrimaryIntent:     detectIntent(text),
		Scope:             detectScope(text),
		AffectedAreas:     detectAffectedAreas(text),
		ComplexityFactors: detectComplexityFactors(text),
	}
}

func detectIntent(text string) Intent {
	switch {
	case containsAny(text, "fix", "bug", "error"):
		return IntentBugFix
	case containsAny(text, "add", "implement", "create"):
		return IntentFeatureAddition
	case containsAny(text, "improve", "enhance", "optimize"):
		return IntentImprovement
	case containsAny(text, "update", "change"):
		return IntentUpdate
	default:
		return IntentUnknown
	}
}

func detectScope(text string) Scope {
	switch {
	case containsAny(text, "security", "auth", "critical"):
		return ScopeCritical
	case containsAny(text, "api", "interface", "public"):
		return ScopePublic
	case containsAny(text, "internal", "private"):
		return ScopeInternal
	default:
		return ScopeUnknown
	}
}

// areaKeywords maps mention keywords to component names. Order matters
// only for output stability, so iteration uses the fixed slice.
var areaKeywords = []struct {
	keyword string
	area    string
}{
	{"queue", "queue"},
	{"lock", "lock"},
	{"plan", "planner"},
	{"valid", "validation"},
	{"health", "health"},
	{"log", "logging"},
	{"config", "configuration"},
	{"cli", "cli"},
	{"test", "tests"},
	{"doc", "docs"},
}

func detectAffectedAreas(text string) []string {
	var areas []string
	for _, entry := range areaKeywords {
		if strings.Contains(text, entry.keyword) {
			areas = append(areas, entry.area)
		}
	}
	if len(areas) == 0 {
		areas = append(areas, "unknown")
	}
	return areas
}

func detectComplexityFactors(text string) []string {
	var factors []string
	if strings.Contains(text, "refactor") {
		factors = append(factors, "refactoring required")
	}
	if containsAny(text, "multiple", "several") {
		factors = append(factors, "multiple components affected")
	}
	if containsAny(text, "concurrent", "goroutine", "race") {
		factors = append(factors, "concurrent code")
	}
	if strings.Contains(text, "breaking") {
		factors = append(factors, "breaking changes")
	}
	return factors
}

func containsAny(text string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// DecomposeTasks produces an ordered task list for the detected intent.
func DecomposeTasks(analysis Analysis, request *models.SelfUpdateRequest) []models.PlannedTask {
	var tasks []models.PlannedTask

	switch analysis.PrimaryIntent {
	case IntentBugFix:
		tasks = append(tasks, models.PlannedTask{
			ID:                 "task-1",
			Description:        fmt.Sprintf("Identify and fix the bug: %s", request.Description),
			Category:           models.CategoryBugFix,
			Complexity:         3,
			AffectedComponents: analysis.AffectedAreas,
			ValidationSteps: []string{
				"Run existing tests to verify fix",
				"Add regression test for the bug",
			},
		}, models.PlannedTask{
			ID:                 "task-2",
			Description:        "Add tests to prevent regression",
			Category:           models.CategoryTestAddition,
			Complexity:         2,
			Dependencies:       []string{"task-1"},
			AffectedComponents: []string{"tests"},
			ValidationSteps:    []string{"Ensure new tests pass"},
		})

	case IntentFeatureAddition:
		tasks = append(tasks, models.PlannedTask{
			ID:                 "task-1",
			Description:        fmt.Sprintf("Implement new feature: %s", request.Description),
			Category:           models.CategoryFeatureAddition,
			Complexity:         5,
			AffectedComponents: analysis.AffectedAreas,
			ValidationSteps: []string{
				"Feature works as described",
				"Integration with existing code verified",
			},
		}, models.PlannedTask{
			ID:                 "task-2",
			Description:        "Add tests for new feature",
			Category:           models.CategoryTestAddition,
			Complexity:         3,
			Dependencies:       []string{"task-1"},
			AffectedComponents: []string{"tests"},
			ValidationSteps:    []string{"All tests pass"},
		}, models.PlannedTask{
			ID:                 "task-3",
			Description:        "Update documentation",
			Category:           models.CategoryDocumentation,
			Complexity:         1,
			Dependencies:       []string{"task-1"},
			AffectedComponents: []string{"docs"},
			ValidationSteps:    []string{"Documentation is accurate"},
		})

	case IntentImprovement:
		tasks = append(tasks, models.PlannedTask{
			ID:                 "task-1",
			Description:        fmt.Sprintf("Improve: %s", request.Description),
			Category:           models.CategoryRefactoring,
			Complexity:         3,
			AffectedComponents: analysis.AffectedAreas,
			ValidationSteps: []string{
				"Functionality unchanged",
				"Performance or quality improved",
			},
		})

	default:
		tasks = append(tasks, models.PlannedTask{
			ID:                 "task-1",
			Description:        request.Description,
			Category:           models.CategoryCodeChange,
			Complexity:         3,
			AffectedComponents: []string{"unknown"},
			ValidationSteps: []string{
				"Changes implemented as requested",
				"No regressions introduced",
			},
		})
	}

	return tasks
}

// IdentifyRisks lists specific concerns for the task set.
func IdentifyRisks(tasks []models.PlannedTask, analysis Analysis) []string {
	var risks []string

	for _, task := range tasks {
		if task.Complexity >= 5 {
			risks = append(risks, "High complexity changes may introduce bugs")
			break
		}
	}
	if analysis.Scope == ScopeCritical {
		risks = append(risks, "Changes affect critical system components")
	}
	hasTests := false
	for _, task := range tasks {
		if task.Category == models.CategoryTestAddition {
			hasTests = true
			break
		}
	}
	if !hasTests {
		risks = append(risks, "No tests planned - may miss regressions")
	}
	if len(analysis.AffectedAreas) > 3 {
		risks = append(risks, "Changes affect multiple components")
	}

	if len(risks) == 0 {
		risks = append(risks, "Low risk - straightforward changes")
	}
	return risks
}

// SuccessCriteria builds the success checklist: baseline toolchain gates
// plus every task's own validation steps.
func SuccessCriteria(tasks []models.PlannedTask) []string {
	criteria := []string{
		"All compilation checks pass",
		"All existing tests continue to pass",
	}
	for _, task := range tasks {
		criteria = append(criteria, task.ValidationSteps...)
	}
	criteria = append(criteria,
		"No performance regressions",
		"Code follows project standards",
	)
	return criteria
}

// Summarize produces the plan summary line plus a task digest.
func Summarize(tasks []models.PlannedTask, request *models.SelfUpdateRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Plan to address: %s\n\nTasks:\n", request.Description)
	for _, task := range tasks {
		fmt.Fprintf(&b, "- %s\n", task.Description)
	}
	return b.String()
}
