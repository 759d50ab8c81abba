package models

// ImplementationPlan is the planner's decomposition of an update request
// into tasks plus a risk assessment. Plans with RequiresHumanApproval set
// block the executor until the approval gate resolves.
//
// JSON tags match the structure the code-generation collaborator is asked
// to produce, so a collaborator response parses directly into this type.
type ImplementationPlan struct {
	PlanID                string               `json:"plan_id"`
	RequestID             string               `json:"request_id"`
	Summary               string               `json:"summary"`
	RiskLevel             RiskLevel            `json:"risk_level"`
	RequiresHumanApproval bool                 `json:"requires_human_approval"`
	ApprovalReason        string               `json:"approval_reason,omitempty"`
	Tasks                 []PlannedTask        `json:"tasks"`
	IdentifiedRisks       []string             `json:"identified_risks"`
	RollbackStrategy      string               `json:"rollback_strategy"`
	SuccessCriteria       []string             `json:"success_criteria"`
	ResourceRequirements  ResourceRequirements `json:"resource_requirements"`
	ApprovalStatus        ApprovalStatus       `json:"approval_status"`
	RejectionReason       string               `json:"rejection_reason,omitempty"`
}

// TotalComplexity sums the complexity of all planned tasks.
func (p *ImplementationPlan) TotalComplexity() int {
	total := 0
	for _, t := range p.Tasks {
		total += t.Complexity
	}
	return total
}

// MaxComplexity returns the largest single-task complexity, or 1 for an
// empty plan.
func (p *ImplementationPlan) MaxComplexity() int {
	max := 1
	for _, t := range p.Tasks {
		if t.Complexity > max {
			max = t.Complexity
		}
	}
	return max
}

// AffectedComponents returns the distinct components touched by any task.
func (p *ImplementationPlan) AffectedComponents() []string {
	seen := make(map[string]bool)
	var components []string
	for _, t := range p.Tasks {
		for _, c := range t.AffectedComponents {
			if !seen[c] {
				seen[c] = true
				components = append(components, c)
			}
		}
	}
	return components
}

// PlannedTask is a single unit of work within a plan.
type PlannedTask struct {
	ID          string       `json:"id"`
	Description string       `json:"description"`
	Category    TaskCategory `json:"category"`
	// Complexity uses the Fibonacci scale: 1, 2, 3, 5, 8, 13.
	Complexity         int      `json:"complexity"`
	Dependencies       []string `json:"dependencies"`
	AffectedComponents []string `json:"affected_components"`
	ValidationSteps    []string `json:"validation_steps"`
}

// ValidComplexity reports whether the task's complexity is one of the
// allowed Fibonacci values.
func (t *PlannedTask) ValidComplexity() bool {
	switch t.Complexity {
	case 1, 2, 3, 5, 8, 13:
		return true
	}
	return false
}

// TaskCategory classifies a planned task.
type TaskCategory string

// Task category constants
const (
	CategoryCodeChange      TaskCategory = "CodeChange"
	CategoryTestAddition    TaskCategory = "TestAddition"
	CategoryDocumentation   TaskCategory = "Documentation"
	CategoryConfiguration   TaskCategory = "Configuration"
	CategoryRefactoring     TaskCategory = "Refactoring"
	CategoryBugFix          TaskCategory = "BugFix"
	CategoryFeatureAddition TaskCategory = "FeatureAddition"
	CategorySecurity        TaskCategory = "Security"
	CategoryPerformance     TaskCategory = "Performance"
)

// RiskLevel is an ordered 8-point risk scale following the Fibonacci
// ladder. The ordering is meaningful: comparisons like r >= RiskHigh are
// used by the approval rules.
type RiskLevel int

// Risk levels, lowest to highest. Unknown sorts below Low: it means the
// planner could not assess the change, which forces approval via a
// separate rule rather than by magnitude.
const (
	RiskUnknown RiskLevel = iota
	RiskLow
	RiskPotential
	RiskMedium
	RiskCertain
	RiskHigh
	RiskNuclear
	RiskDoNotImplement
)

var riskNames = map[RiskLevel]string{
	RiskUnknown:        "Unknown",
	RiskLow:            "Low",
	RiskPotential:      "Potential",
	RiskMedium:         "Medium",
	RiskCertain:        "Certain",
	RiskHigh:           "High",
	RiskNuclear:        "Nuclear",
	RiskDoNotImplement: "DoNotImplement",
}

func (r RiskLevel) String() string {
	if name, ok := riskNames[r]; ok {
		return name
	}
	return "Unknown"
}

// ParseRiskLevel maps a risk name (as produced by the code-generation
// collaborator) back to its level. Unrecognized names map to Unknown so a
// malformed response degrades to the most conservative assessment.
func ParseRiskLevel(name string) RiskLevel {
	for level, n := range riskNames {
		if n == name {
			return level
		}
	}
	return RiskUnknown
}

// MarshalJSON encodes the risk level by name.
func (r RiskLevel) MarshalJSON() ([]byte, error) {
	return []byte(`"` + r.String() + `"`), nil
}

// UnmarshalJSON decodes a risk level name, tolerating unknown values.
func (r *RiskLevel) UnmarshalJSON(data []byte) error {
	name := string(data)
	if len(name) >= 2 && name[0] == '"' {
		name = name[1 : len(name)-1]
	}
	*r = ParseRiskLevel(name)
	return nil
}

// Describe returns the risk level with its ladder annotation for display.
func (r RiskLevel) Describe() string {
	switch r {
	case RiskUnknown:
		return "Unknown (?) - needs investigation"
	case RiskLow:
		return "Low (1) - minimal risk"
	case RiskPotential:
		return "Potential (2) - some manageable risk"
	case RiskMedium:
		return "Medium (3) - requires attention"
	case RiskCertain:
		return "Certain (5) - high probability of issues"
	case RiskHigh:
		return "High (8) - serious risk"
	case RiskNuclear:
		return "Nuclear (13) - critical risk"
	case RiskDoNotImplement:
		return "Do Not Implement - unacceptable risk"
	}
	return r.String()
}

// ResourceRequirements lists what the plan needs to execute.
type ResourceRequirements struct {
	RequiredAgents      []string `json:"required_agents"`
	SpecialRequirements []string `json:"special_requirements"`
}

// ApprovalStatus tracks the human-approval outcome of a plan.
type ApprovalStatus string

// Approval status constants
const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
	ApprovalModified ApprovalStatus = "modified"
	ApprovalTimedOut ApprovalStatus = "timed_out"
)
