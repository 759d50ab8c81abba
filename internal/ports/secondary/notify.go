package secondary

// Notifier defines the secondary port for progress and status messages
// surfaced to whoever is watching an update run.
type Notifier interface {
	// Progress reports a phase transition with its completion percentage.
	Progress(updateID, codename, phase string, percent int)

	// Info reports a general status message.
	Info(updateID, message string)

	// Warn reports a non-fatal problem.
	Warn(updateID, message string)

	// Error reports a failure.
	Error(updateID, message string)

	// ApprovalRequested announces that a plan is waiting on a human.
	ApprovalRequested(updateID, codename, reason string)
}
