package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/example/ouro/internal/ports/primary"
	"github.com/example/ouro/internal/updatelog"
)

// LogServiceImpl implements the LogService interface over the log root
// directory layout that updatelog writes.
type LogServiceImpl struct {
	logRoot string
}

// NewLogService creates a new LogService rooted at logRoot.
func NewLogService(logRoot string) *LogServiceImpl {
	return &LogServiceImpl{logRoot: logRoot}
}

// ListUpdateLogs lists log directories, newest first. Directory names
// are <codename>_<timestamp>_<id>, so a reverse lexical sort on the
// timestamp portion is not reliable; modification time is.
func (s *LogServiceImpl) ListUpdateLogs(ctx context.Context) ([]*primary.UpdateLogView, error) {
	entries, err := os.ReadDir(s.logRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read log root: %w", err)
	}

	type dirWithTime struct {
		view    *primary.UpdateLogView
		modTime int64
	}
	var dirs []dirWithTime

	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == updatelog.ArchiveDirName {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		path := filepath.Join(s.logRoot, entry.Name())
		files, err := listFileNames(path)
		if err != nil {
			continue
		}

		codename := entry.Name()
		if i := strings.Index(codename, "_"); i > 0 {
			codename = codename[:i]
		}

		dirs = append(dirs, dirWithTime{
			view: &primary.UpdateLogView{
				DirName:  entry.Name(),
				Codename: codename,
				Path:     path,
				Files:    files,
			},
			modTime: info.ModTime().UnixNano(),
		})
	}

	sort.Slice(dirs, func(i, j int) bool {
		return dirs[i].modTime > dirs[j].modTime
	})

	views := make([]*primary.UpdateLogView, 0, len(dirs))
	for _, d := range dirs {
		views = append(views, d.view)
	}
	return views, nil
}

// ArchiveUpdateLogs compresses a log directory and returns the archive path.
func (s *LogServiceImpl) ArchiveUpdateLogs(ctx context.Context, dirName string) (string, error) {
	if strings.Contains(dirName, "/") || strings.Contains(dirName, "..") {
		return "", fmt.Errorf("invalid log directory name %q", dirName)
	}
	return updatelog.Archive(s.logRoot, dirName)
}

func listFileNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
