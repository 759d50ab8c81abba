package primary

import "context"

// LogService defines the primary port for browsing and archiving the
// per-update log directories.
type LogService interface {
	// ListUpdateLogs lists log directories, newest first.
	ListUpdateLogs(ctx context.Context) ([]*UpdateLogView, error)

	// ArchiveUpdateLogs compresses a log directory and returns the archive path.
	ArchiveUpdateLogs(ctx context.Context, dirName string) (string, error)
}

// UpdateLogView summarizes one update's log directory.
type UpdateLogView struct {
	DirName  string
	Codename string
	Path     string
	Files    []string
}
