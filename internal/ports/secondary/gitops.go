package secondary

import "context"

// SnapshotStore defines the secondary port for repository snapshot and
// rollback operations.
type SnapshotStore interface {
	// VerifyRepository checks that the working tree is a usable git repository.
	VerifyRepository(ctx context.Context) error

	// CreateSnapshot records the current tree state under a label and
	// returns the snapshot identifier.
	CreateSnapshot(ctx context.Context, label string) (string, error)

	// RollbackToSnapshot restores the tree to a previously created snapshot,
	// discarding everything after it.
	RollbackToSnapshot(ctx context.Context, snapshotID string) error

	// ListChangedFiles returns paths modified since the snapshot.
	ListChangedFiles(ctx context.Context, snapshotID string) ([]string, error)

	// CommitValidatedChanges commits the working tree with the given message.
	// Returns the new commit hash.
	CommitValidatedChanges(ctx context.Context, message string) (string, error)

	// HasUncommittedChanges reports whether the working tree is dirty.
	HasUncommittedChanges(ctx context.Context) (bool, error)
}
