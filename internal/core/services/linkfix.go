package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/strannick-ru/article-backup/internal/core/domain"
	"github.com/strannick-ru/article-backup/internal/core/ports/driven"
	"github.com/strannick-ru/article-backup/internal/core/ports/driving"
	"github.com/strannick-ru/article-backup/internal/logger"
)

// Ensure LinkFixService implements the interface.
var _ driving.LinkFixer = (*LinkFixService)(nil)

// LinkFixService rewrites absolute links between one author's archived
// posts into relative local paths, so the archive browses offline.
type LinkFixService struct {
	index driven.Index
	root  string
}

// NewLinkFixService creates a link fixer over the archive root.
func NewLinkFixService(index driven.Index, root string) *LinkFixService {
	return &LinkFixService{index: index, root: root}
}

// FixLinks rewrites matching links in every committed post of
// (platform, author). Only the body is touched; the metadata header is
// preserved byte for byte. Returns the number of files changed.
func (s *LinkFixService) FixLinks(ctx context.Context, platform domain.Platform, author string) (int, error) {
	recs, err := s.index.ByAuthor(ctx, platform, author)
	if err != nil {
		return 0, fmt.Errorf("listing %s/%s: %w", platform, author, err)
	}
	if len(recs) == 0 {
		return 0, nil
	}

	slugByID := make(map[string]string, len(recs))
	for _, rec := range recs {
		slugByID[rec.PostID] = rec.Slug
	}

	var re *regexp.Regexp
	switch platform {
	case domain.PlatformSponsr:
		re = domain.SponsrPostURL
	case domain.PlatformBoosty:
		re = domain.BoostyPostURL
	default:
		return 0, fmt.Errorf("%w: %q", domain.ErrUnsupportedPlatform, platform)
	}

	changed := 0
	for _, rec := range recs {
		path := filepath.Join(s.root, filepath.FromSlash(rec.RelPath), "index.md")
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("link fix: cannot read %s: %v", path, err)
			continue
		}

		header, body := splitHeader(string(data))
		newBody := re.ReplaceAllStringFunc(body, func(match string) string {
			m := re.FindStringSubmatch(match)
			if m == nil || m[1] != author {
				return match
			}
			slug, ok := slugByID[m[2]]
			if !ok || slug == rec.Slug {
				return match
			}
			return "../" + slug + "/"
		})
		if newBody == body {
			continue
		}

		if err := os.WriteFile(path, []byte(header+newBody), 0o644); err != nil {
			return changed, fmt.Errorf("rewriting %s: %w", path, err)
		}
		changed++
	}
	return changed, nil
}

// splitHeader separates the metadata header (both fences included) from
// the body. Files without a header are all body.
func splitHeader(content string) (header, body string) {
	if !strings.HasPrefix(content, "---") {
		return "", content
	}
	parts := strings.SplitN(content, "---", 3)
	if len(parts) < 3 {
		return "", content
	}
	return "---" + parts[1] + "---", parts[2]
}
