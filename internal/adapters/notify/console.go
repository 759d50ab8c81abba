// Package notify surfaces update progress on the terminal.
package notify

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// ConsoleNotifier implements secondary.Notifier by writing colored
// status lines to a writer (normally stdout).
type ConsoleNotifier struct {
	out io.Writer
}

// NewConsoleNotifier creates a notifier writing to out.
func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{out: out}
}

// Progress reports a phase transition with its completion percentage.
func (n *ConsoleNotifier) Progress(updateID, codename, phase string, percent int) {
	cyan := color.New(color.FgCyan).SprintFunc()
	fmt.Fprintf(n.out, "%s %s: %s (%d%%) %s\n",
		cyan("▶"), codename, phase, percent, progressBar(percent))
}

// Info reports a general status message.
func (n *ConsoleNotifier) Info(updateID, message string) {
	fmt.Fprintf(n.out, "  %s\n", message)
}

// Warn reports a non-fatal problem.
func (n *ConsoleNotifier) Warn(updateID, message string) {
	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Fprintf(n.out, "%s %s\n", yellow("⚠"), message)
}

// Error reports a failure.
func (n *ConsoleNotifier) Error(updateID, message string) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(n.out, "%s %s\n", red("✗"), message)
}

// ApprovalRequested announces that a plan is waiting on a human.
func (n *ConsoleNotifier) ApprovalRequested(updateID, codename, reason string) {
	magenta := color.New(color.FgMagenta, color.Bold).SprintFunc()
	fmt.Fprintf(n.out, "%s %s needs approval: %s\n", magenta("⏸"), codename, reason)
	fmt.Fprintf(n.out, "  Approve with: ouro plan approve %s\n", updateID)
}

// progressBar renders a 20-cell bar for the given percentage.
func progressBar(percent int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent / 5
	bar := ""
	for i := 0; i < 20; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return "[" + bar + "]"
}
