package assets

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/gosimple/slug"

	"github.com/strannick-ru/article-backup/internal/core/domain"
)

// maxBaseLen caps the descriptive part of an asset filename.
const maxBaseLen = 50

// Extensions recovered from the response content type when the URL
// itself carries none.
var contentTypeExt = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"image/svg+xml":   ".svg",
	"audio/mpeg":      ".mp3",
	"audio/ogg":       ".ogg",
	"audio/mp4":       ".m4a",
	"audio/x-wav":     ".wav",
	"video/mp4":       ".mp4",
	"application/pdf": ".pdf",
}

// namespace reserves filenames within one post's asset directory.
// Reserving the same name for the same URL is idempotent; a collision
// with a different URL yields a hash-suffixed variant.
type namespace struct {
	mu     sync.Mutex
	byName map[string]string
}

func newNamespace() *namespace {
	return &namespace{byName: make(map[string]string)}
}

// reserve claims name for url and returns the name to use. The claim
// happens before any bytes are written, so concurrent workers can never
// hand the same filename to two different URLs.
func (ns *namespace) reserve(name, url string) string {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if owner, taken := ns.byName[name]; !taken || owner == url {
		ns.byName[name] = url
		return name
	}

	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	name = base + "-" + urlHash(url) + ext
	ns.byName[name] = url
	return name
}

func urlHash(url string) string {
	sum := md5.Sum([]byte(url))
	return hex.EncodeToString(sum[:])[:8]
}

// baseName derives the descriptive filename part from the alt text, or
// from the URL path stem, or from the URL hash when neither slugs to
// anything usable.
func baseName(a *domain.Asset) string {
	if base := truncate(slug.Make(a.Alt), maxBaseLen); base != "" {
		return base
	}
	if u, err := url.Parse(a.URL); err == nil {
		stem := strings.TrimSuffix(path.Base(u.Path), path.Ext(u.Path))
		if base := truncate(slug.Make(stem), maxBaseLen); base != "" {
			return base
		}
	}
	return urlHash(a.URL)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return strings.Trim(s, "-")
	}
	return strings.Trim(s[:n], "-")
}

// urlExt extracts a plausible file extension from the URL path.
func urlExt(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	ext := strings.ToLower(path.Ext(u.Path))
	// Reject query-ish leftovers and overlong tokens.
	if len(ext) < 2 || len(ext) > 6 || strings.ContainsAny(ext, "&=?") {
		return ""
	}
	return ext
}
