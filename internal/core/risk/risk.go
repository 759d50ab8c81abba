// Package risk contains the pure business logic for risk scoring and the
// human-approval rule set. Functions here evaluate plans without side
// effects so the rules stay independently testable.
package risk

import (
	"fmt"
	"strings"

	"github.com/example/ouro/internal/models"
)

// UnknownComponent is the marker the planner uses when it cannot tell
// what a change touches. Its presence forces Unknown risk.
const UnknownComponent = "unknown"

// Approval thresholds. Complexity 21 is one full 13+8 Fibonacci pair; a
// plan above it is too large to trust unreviewed.
const (
	MaxUnreviewedComplexity = 21
	MaxUnreviewedTasks      = 10
)

// Assess scores overall risk for a set of planned tasks. Risk escalates
// monotonically with the maximum single-task complexity and the number of
// distinct affected components; critical-scope changes start one rung
// higher. Any task touching an unknown component forces Unknown.
func Assess(tasks []models.PlannedTask, critical bool) models.RiskLevel {
	maxComplexity := 1
	components := make(map[string]bool)
	for _, task := range tasks {
		if task.Complexity > maxComplexity {
			maxComplexity = task.Complexity
		}
		for _, c := range task.AffectedComponents {
			if c == UnknownComponent {
				return models.RiskUnknown
			}
			components[c] = true
		}
	}
	totalComponents := len(components)

	if critical {
		switch {
		case maxComplexity >= 8:
			return models.RiskNuclear
		case maxComplexity >= 5:
			return models.RiskHigh
		default:
			return models.RiskCertain
		}
	}

	switch {
	case maxComplexity >= 13:
		return models.RiskNuclear
	case maxComplexity >= 8 || totalComponents > 8:
		return models.RiskHigh
	case maxComplexity >= 5 || totalComponents > 5:
		return models.RiskCertain
	case maxComplexity >= 3 || totalComponents > 3:
		return models.RiskMedium
	case maxComplexity == 2 || totalComponents == 2:
		return models.RiskPotential
	default:
		return models.RiskLow
	}
}

// Decision is the outcome of the approval-rule evaluation.
type Decision struct {
	Required bool
	Reason   string
}

// ApprovalDecision applies the human-approval rule set to a plan:
//   - risk level High, Nuclear, or DoNotImplement
//   - any Security or Configuration task
//   - any task touching a designated critical path
//   - total complexity above MaxUnreviewedComplexity
//   - task count above MaxUnreviewedTasks
//
// Rules are evaluated in that order; the first match supplies the reason.
func ApprovalDecision(plan *models.ImplementationPlan, criticalPaths []string) Decision {
	if plan.RiskLevel >= models.RiskHigh {
		return Decision{
			Required: true,
			Reason:   fmt.Sprintf("high risk level (%s) requires human review", plan.RiskLevel),
		}
	}

	for _, task := range plan.Tasks {
		if task.Category == models.CategorySecurity || task.Category == models.CategoryConfiguration {
			return Decision{
				Required: true,
				Reason:   "security or configuration changes require human review",
			}
		}
	}

	for _, task := range plan.Tasks {
		for _, component := range task.AffectedComponents {
			for _, critical := range criticalPaths {
				if strings.Contains(component, critical) {
					return Decision{
						Required: true,
						Reason:   fmt.Sprintf("changes to critical path %q require human review", critical),
					}
				}
			}
		}
	}

	if total := plan.TotalComplexity(); total > MaxUnreviewedComplexity {
		return Decision{
			Required: true,
			Reason:   fmt.Sprintf("high total complexity (%d) requires human review", total),
		}
	}

	if len(plan.Tasks) > MaxUnreviewedTasks {
		return Decision{
			Required: true,
			Reason:   fmt.Sprintf("large number of tasks (%d) requires human review", len(plan.Tasks)),
		}
	}

	return Decision{}
}
