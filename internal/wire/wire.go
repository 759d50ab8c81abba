// Package wire is the composition root for the ouro application. It
// builds the full service graph explicitly; nothing here is lazy or
// global, so tests and alternate entry points can build their own graph
// the same way.
package wire

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/example/ouro/internal/adapters/codegen"
	"github.com/example/ouro/internal/adapters/gitops"
	"github.com/example/ouro/internal/adapters/notify"
	"github.com/example/ouro/internal/adapters/sqlite"
	tmuxadapter "github.com/example/ouro/internal/adapters/tmux"
	"github.com/example/ouro/internal/adapters/toolchain"
	"github.com/example/ouro/internal/app"
	"github.com/example/ouro/internal/config"
	"github.com/example/ouro/internal/core/lock"
	"github.com/example/ouro/internal/core/queue"
	"github.com/example/ouro/internal/db"
	"github.com/example/ouro/internal/ports/primary"
	"github.com/example/ouro/internal/ports/secondary"
)

// defaultAgentCommand is used when the config does not name an agent.
var defaultAgentCommand = []string{"claude", "--print"}

// App holds the wired application: every primary port plus the shared
// resources the CLI needs to reach directly.
type App struct {
	Config   *config.Config
	RepoRoot string
	LogRoot  string

	Updates   primary.UpdateService
	Runs      primary.RunService
	Approvals primary.ApprovalService
	Logs      primary.LogService

	// Sessions is nil when no tmux server is reachable; session features
	// degrade gracefully in that case.
	Sessions secondary.AgentSessionManager

	database *sql.DB
}

// New loads configuration from the current directory and wires the
// application against the default database path.
func New() (*App, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg, err := config.LoadConfig(cwd)
	if err != nil {
		return nil, err
	}
	dbPath, err := db.DefaultPath()
	if err != nil {
		return nil, err
	}
	return NewWithConfig(cfg, dbPath)
}

// NewWithConfig wires the application from an explicit config and
// database path.
func NewWithConfig(cfg *config.Config, dbPath string) (*App, error) {
	repoRoot, err := cfg.ResolveRepoRoot()
	if err != nil {
		return nil, err
	}
	logRoot, err := cfg.ResolveLogRoot()
	if err != nil {
		return nil, err
	}

	database, err := db.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	requestRepo := sqlite.NewUpdateRequestRepository(database)
	planRepo := sqlite.NewPlanRepository(database)
	runRepo := sqlite.NewRunRepository(database)

	updateQueue := queue.New(cfg.MaxQueueSize, cfg.MaxContentBytes)
	systemLock := lock.New(cfg.LockStaleAfter())

	runner := toolchain.NewRunner()
	snapshots := gitops.NewSnapshotStore(repoRoot)
	notifier := notify.NewConsoleNotifier(os.Stdout)

	agentCommand := cfg.AgentCommand
	if len(agentCommand) == 0 {
		agentCommand = defaultAgentCommand
	}
	generator, err := codegen.NewAgentGenerator(agentCommand, repoRoot)
	if err != nil {
		database.Close()
		return nil, err
	}

	// The session manager needs a running tmux server. Its absence is not
	// fatal: the executor runs without a watchable session.
	var sessions secondary.AgentSessionManager
	if manager, err := tmuxadapter.NewSessionManager(); err == nil {
		sessions = manager
	}

	planner := app.NewPlannerService(generator, planRepo, cfg.CriticalPaths)
	approvals := app.NewApprovalService(planRepo, requestRepo, cfg.CriticalPaths)
	validator := app.NewValidationService(generator, runner, app.ValidationConfig{
		RepoRoot:        repoRoot,
		MaxIterations:   cfg.MaxIterations,
		MaxCheckRetries: cfg.MaxCheckRetries,
		CheckTimeout:    cfg.CheckTimeout(),
		DocCheckEnabled: cfg.DocCheckEnabled,
	})
	health := app.NewHealthService(runner, snapshots, app.HealthConfig{
		RepoRoot:     repoRoot,
		ProbeTimeout: cfg.ProbeTimeout(),
		BinaryProbe:  cfg.BinaryProbe,
	})
	executor := app.NewExecutor(
		updateQueue,
		systemLock,
		requestRepo,
		runRepo,
		snapshots,
		generator,
		notifier,
		sessions,
		planner,
		approvals,
		validator,
		health,
		app.ExecutorConfig{
			RepoRoot:         repoRoot,
			LogRoot:          logRoot,
			ApprovalTimeout:  cfg.ApprovalTimeout(),
			ProgressInterval: cfg.ProgressInterval(),
			AgentCommand:     agentCommand,
		},
	)

	return &App{
		Config:    cfg,
		RepoRoot:  repoRoot,
		LogRoot:   logRoot,
		Updates:   app.NewUpdateService(requestRepo, updateQueue, systemLock),
		Runs:      executor,
		Approvals: approvals,
		Logs:      app.NewLogService(logRoot),
		Sessions:  sessions,
		database:  database,
	}, nil
}

// Close releases the application's shared resources.
func (a *App) Close() error {
	if a.database != nil {
		return a.database.Close()
	}
	return nil
}
