package domain

import "time"

// SyncState is the persisted sync checkpoint for one (platform, author).
// It selects the controller's mode: incremental once a full pass has
// completed, full otherwise.
type SyncState struct {
	Platform Platform
	Author   string

	// FullSyncComplete is set after the first successful full pass.
	FullSyncComplete bool

	// LastSyncAt is when the last successful run finished.
	LastSyncAt time.Time
}

// IndexRecord is the committed proof that a post's files exist on disk.
// A record is written exactly once, as the last step of a post's unit of
// work; a post is either absent from the index or fully present with all
// files already written.
type IndexRecord struct {
	Platform Platform
	Author   string
	PostID   string

	Title     string
	Slug      string
	PostDate  time.Time
	SourceURL string

	// RelPath is the post directory relative to the archive root.
	RelPath string

	Tags []string

	// CommittedAt is when the record was written.
	CommittedAt time.Time
}
