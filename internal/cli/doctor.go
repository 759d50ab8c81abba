package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/ouro/internal/config"
	"github.com/example/ouro/internal/db"
)

// CheckResult represents the outcome of a single check
type CheckResult struct {
	Name    string
	Status  string // "✓", "⚠", "✗"
	Details string // Only shown if Status != "✓"
}

// DoctorCmd returns the doctor command for environment validation
func DoctorCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Validate the ouro environment",
		Long: `Comprehensive environment health check for ouro.

Validates:
- Git installation and repository
- Go toolchain (go, gofmt)
- TMux availability
- Database path and schema
- Configuration
- Log directory

Examples:
  ouro doctor              # Run full health check
  ouro doctor --quiet      # Exit code only (0=healthy, 1=issues)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			results := []CheckResult{
				checkGit(),
				checkGoToolchain(),
				checkTmux(),
				checkDatabase(),
				checkConfig(),
				checkLogDir(),
			}

			hasErrors := false
			for _, r := range results {
				if r.Status == "✗" {
					hasErrors = true
					break
				}
			}

			if !quiet {
				fmt.Println()
				fmt.Println("Check              Status")
				fmt.Println("─────────────────────────")
				for _, r := range results {
					fmt.Printf("%-18s %s\n", r.Name, r.Status)
				}
				fmt.Println()

				hasDetails := false
				for _, r := range results {
					if r.Status != "✓" && r.Details != "" {
						if !hasDetails {
							fmt.Println("Details:")
							hasDetails = true
						}
						fmt.Printf("\n%s:\n%s\n", r.Name, r.Details)
					}
				}

				if hasErrors {
					fmt.Println("\n⚠ Issues found. Updates cannot run until they are fixed.")
				} else {
					fmt.Println("All checks passed.")
				}
			}

			if hasErrors {
				return fmt.Errorf("environment validation failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode - exit code only")

	return cmd
}

// checkGit validates git installation and that cwd is a repository
func checkGit() CheckResult {
	if _, err := exec.LookPath("git"); err != nil {
		return CheckResult{
			Name:    "Git",
			Status:  "✗",
			Details: "  'git' not found in PATH",
		}
	}

	out, err := exec.Command("git", "rev-parse", "--git-dir").CombinedOutput()
	if err != nil {
		return CheckResult{
			Name:    "Git",
			Status:  "✗",
			Details: "  Not inside a git repository: " + strings.TrimSpace(string(out)),
		}
	}

	return CheckResult{Name: "Git", Status: "✓"}
}

// checkGoToolchain validates the tools the validation pipeline shells out to
func checkGoToolchain() CheckResult {
	missing := []string{}
	for _, tool := range []string{"go", "gofmt"} {
		if _, err := exec.LookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}

	if len(missing) > 0 {
		return CheckResult{
			Name:    "Go Toolchain",
			Status:  "✗",
			Details: "  Missing: " + strings.Join(missing, ", "),
		}
	}

	return CheckResult{Name: "Go Toolchain", Status: "✓"}
}

// checkTmux validates tmux availability (optional, for agent sessions)
func checkTmux() CheckResult {
	if _, err := exec.LookPath("tmux"); err != nil {
		return CheckResult{
			Name:    "TMux",
			Status:  "⚠",
			Details: "  'tmux' not found in PATH; updates run without a watchable session",
		}
	}

	if err := exec.Command("tmux", "has-session").Run(); err != nil {
		return CheckResult{
			Name:    "TMux",
			Status:  "⚠",
			Details: "  No tmux server running; 'ouro attach' will not work",
		}
	}

	return CheckResult{Name: "TMux", Status: "✓"}
}

// checkDatabase validates the ledger can be opened and migrated
func checkDatabase() CheckResult {
	path, err := db.DefaultPath()
	if err != nil {
		return CheckResult{
			Name:    "Database",
			Status:  "✗",
			Details: "  " + err.Error(),
		}
	}

	database, err := db.Open(path)
	if err != nil {
		return CheckResult{
			Name:    "Database",
			Status:  "✗",
			Details: "  Cannot open " + path + ": " + err.Error(),
		}
	}
	database.Close()

	return CheckResult{Name: "Database", Status: "✓"}
}

// checkConfig validates the configuration file
func checkConfig() CheckResult {
	cwd, err := os.Getwd()
	if err != nil {
		return CheckResult{Name: "Config", Status: "✗", Details: "  " + err.Error()}
	}

	cfg, err := config.LoadConfig(cwd)
	if err != nil {
		return CheckResult{
			Name:    "Config",
			Status:  "✗",
			Details: "  " + err.Error(),
		}
	}

	if len(cfg.AgentCommand) == 0 {
		return CheckResult{
			Name:    "Config",
			Status:  "⚠",
			Details: "  agent_command not set; the default agent will be used\n  Run: ouro init",
		}
	}

	return CheckResult{Name: "Config", Status: "✓"}
}

// checkLogDir validates the log root is writable
func checkLogDir() CheckResult {
	cwd, err := os.Getwd()
	if err != nil {
		return CheckResult{Name: "Log Directory", Status: "✗", Details: "  " + err.Error()}
	}

	cfg, err := config.LoadConfig(cwd)
	if err != nil {
		return CheckResult{Name: "Log Directory", Status: "✗", Details: "  " + err.Error()}
	}

	logRoot, err := cfg.ResolveLogRoot()
	if err != nil {
		return CheckResult{Name: "Log Directory", Status: "✗", Details: "  " + err.Error()}
	}

	if err := os.MkdirAll(logRoot, 0755); err != nil {
		return CheckResult{
			Name:    "Log Directory",
			Status:  "✗",
			Details: "  Cannot create " + logRoot + ": " + err.Error(),
		}
	}

	probe := filepath.Join(logRoot, ".doctor-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		return CheckResult{
			Name:    "Log Directory",
			Status:  "✗",
			Details: "  " + logRoot + " is not writable: " + err.Error(),
		}
	}
	os.Remove(probe)

	return CheckResult{Name: "Log Directory", Status: "✓"}
}
