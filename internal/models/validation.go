package models

// CheckResult is the outcome of a single validation check.
type CheckResult struct {
	Name   string
	Passed bool
	Output string
	// RetriesUsed counts retries of this one check within one pipeline
	// iteration. A non-zero value forces the pipeline to loop back to
	// Phase 1 even when the check ultimately passed.
	RetriesUsed int
}

// PreValidationResult is the aggregate outcome of the two-phase
// validation pipeline.
type PreValidationResult struct {
	EngineeringReviewPassed bool
	AssemblyChecklistPassed bool
	PipelineIterations      int
	TotalChecksRun          int
	ChecksFailed            []string
	ChecksPassed            []string
	ErrorDetails            string
}

// AllPassed reports whether both pipeline phases passed.
func (r *PreValidationResult) AllPassed() bool {
	return r.EngineeringReviewPassed && r.AssemblyChecklistPassed
}
