package domain

// Source is one configured (platform, author) pair to archive.
type Source struct {
	// Platform the author publishes on.
	Platform Platform

	// Author is the platform-native author identifier.
	Author string

	// DisplayName is the human-readable author name used in the
	// navigation index files. Falls back to Author when empty.
	DisplayName string

	// DownloadAssets controls whether referenced media is fetched.
	DownloadAssets bool
}

// Name returns DisplayName, falling back to the author identifier.
func (s Source) Name() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.Author
}
