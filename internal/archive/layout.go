// Package archive writes rendered posts into the on-disk tree
// {root}/{platform}/{author}/posts/{date-slug}/index.md with assets
// alongside, plus the section _index.md files static site generators
// expect.
package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"

	"github.com/strannick-ru/article-backup/internal/core/domain"
	"github.com/strannick-ru/article-backup/internal/core/ports/driven"
)

// Ensure Writer implements the interface.
var _ driven.ArchiveWriter = (*Writer)(nil)

// maxTitleSlugLen caps the title part of a post slug.
const maxTitleSlugLen = 60

// Writer persists posts under a single archive root.
type Writer struct {
	root string
}

// NewWriter creates an archive writer rooted at dir.
func NewWriter(root string) *Writer {
	return &Writer{root: root}
}

// Prepare creates the post directory and returns its absolute path, the
// post slug and the archive-relative path.
func (w *Writer) Prepare(post *domain.Post) (string, string, string, error) {
	postSlug := PostSlug(post)
	relPath := filepath.ToSlash(filepath.Join(string(post.Platform), post.Author, "posts", postSlug))
	dir := filepath.Join(w.root, string(post.Platform), post.Author, "posts", postSlug)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", "", fmt.Errorf("create post dir: %w", err)
	}
	return dir, postSlug, relPath, nil
}

// WriteBody writes index.md: the metadata header followed by the body.
func (w *Writer) WriteBody(dir string, post *domain.Post, body string) error {
	content := FrontMatter(post) + body
	if err := os.WriteFile(filepath.Join(dir, "index.md"), []byte(content), 0o644); err != nil {
		return fmt.Errorf("write post body: %w", err)
	}
	return nil
}

// EnsureSectionIndexes writes the navigation _index.md files. The
// platform index is only created once; author and posts indexes are
// rewritten so a changed display name propagates.
func (w *Writer) EnsureSectionIndexes(source domain.Source) error {
	platformDir := filepath.Join(w.root, string(source.Platform))
	authorDir := filepath.Join(platformDir, source.Author)
	postsDir := filepath.Join(authorDir, "posts")
	if err := os.MkdirAll(postsDir, 0o755); err != nil {
		return fmt.Errorf("create section dirs: %w", err)
	}

	platformIndex := filepath.Join(platformDir, "_index.md")
	if _, err := os.Stat(platformIndex); os.IsNotExist(err) {
		title := strings.ToUpper(string(source.Platform)[:1]) + string(source.Platform)[1:]
		if err := writeSectionIndex(platformIndex, title); err != nil {
			return err
		}
	}

	if err := writeSectionIndex(filepath.Join(authorDir, "_index.md"), source.Name()); err != nil {
		return err
	}
	return writeSectionIndex(filepath.Join(postsDir, "_index.md"), source.Name())
}

func writeSectionIndex(path, title string) error {
	content := fmt.Sprintf("---\ntitle: %q\n---\n", title)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write section index: %w", err)
	}
	return nil
}

// PostSlug derives the stable directory name for a post: the publication
// date followed by the transliterated title.
func PostSlug(post *domain.Post) string {
	date := post.PublishedAt.Format("2006-01-02")
	title := slug.Make(post.Title)
	if len(title) > maxTitleSlugLen {
		title = strings.Trim(title[:maxTitleSlugLen], "-")
	}
	if title == "" {
		title = "post-" + slug.Make(post.ID)
	}
	return date + "-" + title
}

// FrontMatter renders the metadata header. Tags are serialized as JSON
// so titles with quotes or commas survive round trips.
func FrontMatter(post *domain.Post) string {
	tags := post.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, _ := json.Marshal(tags)

	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: %q\n", post.Title)
	fmt.Fprintf(&b, "date: %s\n", post.PublishedAt.Format("2006-01-02T15:04:05Z07:00"))
	fmt.Fprintf(&b, "source: %s\n", post.SourceURL)
	fmt.Fprintf(&b, "author: %s\n", post.Author)
	fmt.Fprintf(&b, "platform: %s\n", post.Platform)
	fmt.Fprintf(&b, "post_id: %s\n", post.ID)
	fmt.Fprintf(&b, "tags: %s\n", tagsJSON)
	b.WriteString("---\n\n")
	return b.String()
}
