package driven

import "github.com/strannick-ru/article-backup/internal/core/domain"

// ArchiveWriter persists rendered posts in the on-disk layout
// {platform}/{author}/posts/{date-slug}/.
type ArchiveWriter interface {
	// Prepare creates the post directory and returns its absolute path,
	// the post slug and the path relative to the archive root.
	Prepare(post *domain.Post) (dir, slug, relPath string, err error)

	// WriteBody writes index.md: the structured metadata header followed
	// by the rendered body.
	WriteBody(dir string, post *domain.Post, body string) error

	// EnsureSectionIndexes writes the navigation _index.md files for the
	// platform, author and posts directories.
	EnsureSectionIndexes(source domain.Source) error
}
