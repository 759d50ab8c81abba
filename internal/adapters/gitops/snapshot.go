// Package gitops implements repository snapshots and rollback on top of
// git. A snapshot is a commit whose message carries the snapshot label,
// so rollback works even after further commits land on top of it.
package gitops

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// SnapshotStore implements secondary.SnapshotStore against a git
// working tree.
type SnapshotStore struct {
	repoRoot string
}

// NewSnapshotStore creates a snapshot store rooted at repoRoot.
func NewSnapshotStore(repoRoot string) *SnapshotStore {
	return &SnapshotStore{repoRoot: repoRoot}
}

// VerifyRepository checks that the root is a usable git repository.
func (s *SnapshotStore) VerifyRepository(ctx context.Context) error {
	if _, err := s.git(ctx, "rev-parse", "--git-dir"); err != nil {
		return fmt.Errorf("not a git repository at %s: %w", s.repoRoot, err)
	}
	return nil
}

// CreateSnapshot stages everything and commits under the label. The
// commit may be empty when the tree is clean; the label is still
// recorded so rollback has an anchor. Returns the label.
func (s *SnapshotStore) CreateSnapshot(ctx context.Context, label string) (string, error) {
	if _, err := s.git(ctx, "add", "-A"); err != nil {
		return "", fmt.Errorf("failed to stage snapshot: %w", err)
	}
	if _, err := s.git(ctx, "commit", "--allow-empty", "-m", label); err != nil {
		return "", fmt.Errorf("failed to create snapshot commit: %w", err)
	}
	return label, nil
}

// RollbackToSnapshot discards every change made after the snapshot,
// including uncommitted ones.
func (s *SnapshotStore) RollbackToSnapshot(ctx context.Context, snapshotID string) error {
	hash, err := s.findSnapshotCommit(ctx, snapshotID)
	if err != nil {
		return err
	}
	if _, err := s.git(ctx, "reset", "--hard", hash); err != nil {
		return fmt.Errorf("failed to reset to snapshot %s: %w", snapshotID, err)
	}
	if _, err := s.git(ctx, "clean", "-fd"); err != nil {
		return fmt.Errorf("failed to clean working tree: %w", err)
	}
	return nil
}

// ListChangedFiles returns paths modified since the snapshot, including
// uncommitted changes.
func (s *SnapshotStore) ListChangedFiles(ctx context.Context, snapshotID string) ([]string, error) {
	hash, err := s.findSnapshotCommit(ctx, snapshotID)
	if err != nil {
		return nil, err
	}
	out, err := s.git(ctx, "diff", "--name-only", hash)
	if err != nil {
		return nil, fmt.Errorf("failed to diff against snapshot: %w", err)
	}

	var files []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}

// CommitValidatedChanges commits the working tree and returns the new
// commit hash.
func (s *SnapshotStore) CommitValidatedChanges(ctx context.Context, message string) (string, error) {
	if _, err := s.git(ctx, "add", "-A"); err != nil {
		return "", fmt.Errorf("failed to stage changes: %w", err)
	}
	if _, err := s.git(ctx, "commit", "-m", message); err != nil {
		return "", fmt.Errorf("failed to commit changes: %w", err)
	}
	hash, err := s.git(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to resolve new commit: %w", err)
	}
	return strings.TrimSpace(hash), nil
}

// HasUncommittedChanges reports whether the working tree is dirty.
func (s *SnapshotStore) HasUncommittedChanges(ctx context.Context) (bool, error) {
	out, err := s.git(ctx, "status", "--porcelain")
	if err != nil {
		return false, fmt.Errorf("failed to check working tree: %w", err)
	}
	return strings.TrimSpace(out) != "", nil
}

// findSnapshotCommit resolves a snapshot label to the commit that
// recorded it. Fixed-string matching keeps labels with regex
// metacharacters safe.
func (s *SnapshotStore) findSnapshotCommit(ctx context.Context, snapshotID string) (string, error) {
	out, err := s.git(ctx, "log", "--fixed-strings", "--grep", snapshotID, "--format=%H", "-n", "1")
	if err != nil {
		return "", fmt.Errorf("failed to search for snapshot: %w", err)
	}
	hash := strings.TrimSpace(out)
	if hash == "" {
		return "", fmt.Errorf("snapshot %s not found in history", snapshotID)
	}
	return hash, nil
}

func (s *SnapshotStore) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = s.repoRoot
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s failed: %w: %s", args[0], err, strings.TrimSpace(string(output)))
	}
	return string(output), nil
}
