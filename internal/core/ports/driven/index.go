package driven

import (
	"context"

	"github.com/strannick-ru/article-backup/internal/core/domain"
)

// Index is the persistent store of committed posts and per-author sync
// checkpoints. Writes are serialized and crash-safe: a record is either
// fully present or absent, never partial.
type Index interface {
	// Exists reports whether a post has been committed.
	Exists(ctx context.Context, platform domain.Platform, author, postID string) (bool, error)

	// Commit writes an index record. Idempotent; it is the last step of
	// a post's unit of work.
	Commit(ctx context.Context, rec domain.IndexRecord) error

	// Get retrieves one committed record. Returns domain.ErrNotFound
	// when the post is not committed.
	Get(ctx context.Context, platform domain.Platform, author, postID string) (*domain.IndexRecord, error)

	// ByAuthor returns every committed record for one (platform, author).
	ByAuthor(ctx context.Context, platform domain.Platform, author string) ([]domain.IndexRecord, error)

	// GetSyncState retrieves the sync checkpoint for one
	// (platform, author). Returns domain.ErrNotFound on first run.
	GetSyncState(ctx context.Context, platform domain.Platform, author string) (*domain.SyncState, error)

	// SetSyncState stores or updates the sync checkpoint.
	SetSyncState(ctx context.Context, state domain.SyncState) error
}
