package driving

import (
	"context"

	"github.com/strannick-ru/article-backup/internal/core/domain"
)

// Stats summarises one author's sync run.
type Stats struct {
	// Fetched is the number of posts processed and committed.
	Fetched int

	// Skipped is the number of listed posts already in the index.
	Skipped int
}

// SourceResult is the outcome of one source within a SyncAll run.
type SourceResult struct {
	Source domain.Source
	Stats  Stats
	Err    error
}

// SyncRunner orchestrates archive runs.
type SyncRunner interface {
	// Sync runs one author's full or incremental pass.
	Sync(ctx context.Context, source domain.Source) (Stats, error)

	// SyncAll runs every configured source in order. A source's fatal
	// error does not prevent the remaining sources from being attempted.
	SyncAll(ctx context.Context) []SourceResult

	// DownloadSingle archives one post by URL, bypassing pagination and
	// leaving sync state untouched.
	DownloadSingle(ctx context.Context, url string) error
}

// LinkFixer rewrites internal cross-references after a batch commits.
type LinkFixer interface {
	// FixLinks rewrites same-platform same-author post links in every
	// committed post of (platform, author) to relative local paths.
	// Returns the number of files changed.
	FixLinks(ctx context.Context, platform domain.Platform, author string) (int, error)
}
