// Package updatelog writes the per-update log directory: a main log,
// one log per pipeline phase, an error log, the validation transcript,
// and a machine-readable summary. Directories can be compressed into
// tar.gz archives once a run is finished.
package updatelog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Logger writes all logs for one update run. Safe for concurrent use.
type Logger struct {
	mu         sync.Mutex
	dir        string
	mainFile   *os.File
	phaseFiles map[string]*os.File
	now        func() time.Time
}

// Summary is the machine-readable record written as summary.json.
type Summary struct {
	UpdateID      string    `json:"update_id"`
	Codename      string    `json:"codename"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	FinalPhase    string    `json:"final_phase"`
	Success       bool      `json:"success"`
	RolledBack    bool      `json:"rolled_back"`
	FailureReason string    `json:"failure_reason,omitempty"`
	ChangedFiles  []string  `json:"changed_files,omitempty"`
}

// New creates the log directory for an update and opens main.log. The
// directory is named <codename>_<timestamp>_<short id> under root.
func New(root, updateID, codename string) (*Logger, error) {
	shortID := updateID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	dirName := fmt.Sprintf("%s_%s_%s",
		sanitizeFilename(codename),
		time.Now().UTC().Format("20060102_150405"),
		shortID,
	)
	dir := filepath.Join(root, dirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	mainFile, err := os.OpenFile(filepath.Join(dir, "main.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open main log: %w", err)
	}

	return &Logger{
		dir:        dir,
		mainFile:   mainFile,
		phaseFiles: make(map[string]*os.File),
		now:        time.Now,
	}, nil
}

// Dir returns the log directory path.
func (l *Logger) Dir() string {
	return l.dir
}

// Log appends a timestamped line to main.log.
func (l *Logger) Log(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.write(l.mainFile, format, args...)
}

// LogPhase appends a timestamped line to both main.log and the phase's
// own log file, creating it on first use.
func (l *Logger) LogPhase(phase, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.write(l.mainFile, "["+phase+"] "+format, args...)

	file, ok := l.phaseFiles[phase]
	if !ok {
		name := fmt.Sprintf("phase_%s.log", sanitizeFilename(phase))
		opened, err := os.OpenFile(filepath.Join(l.dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return
		}
		l.phaseFiles[phase] = opened
		file = opened
	}
	l.write(file, format, args...)
}

// LogError appends to errors.log and mirrors the line into main.log.
func (l *Logger) LogError(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.write(l.mainFile, "ERROR: "+format, args...)

	file, err := os.OpenFile(filepath.Join(l.dir, "errors.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer file.Close()
	l.write(file, format, args...)
}

// LogValidation appends a check outcome to validation_results.log.
func (l *Logger) LogValidation(checkName string, passed bool, output string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.OpenFile(filepath.Join(l.dir, "validation_results.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer file.Close()

	verdict := "PASS"
	if !passed {
		verdict = "FAIL"
	}
	l.write(file, "%s: %s", checkName, verdict)
	if output != "" {
		fmt.Fprintln(file, output)
	}
}

// WriteSummary writes summary.json.
func (l *Logger) WriteSummary(summary *Summary) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if err := os.WriteFile(filepath.Join(l.dir, "summary.json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

// Close flushes and closes all open log files.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var firstErr error
	if err := l.mainFile.Close(); err != nil {
		firstErr = err
	}
	for _, file := range l.phaseFiles {
		if err := file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.phaseFiles = make(map[string]*os.File)
	return firstErr
}

func (l *Logger) write(file *os.File, format string, args ...any) {
	fmt.Fprintf(file, "[%s] %s\n", l.now().UTC().Format(time.RFC3339), fmt.Sprintf(format, args...))
}

// sanitizeFilename keeps letters, digits, dashes, and underscores, and
// caps the result at 50 characters so directory names stay portable.
func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	s := b.String()
	if len(s) > 50 {
		s = s[:50]
	}
	if s == "" {
		s = "update"
	}
	return s
}
