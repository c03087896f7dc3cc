package domain

import (
	"fmt"
	"regexp"
)

// Post URL shapes of the supported platforms. The patterns deliberately
// stop before whitespace, quotes and markup delimiters so they can also
// scan rendered markup bodies.
var (
	// SponsrPostURL matches https://sponsr.ru/{author}/{numeric id}/...
	SponsrPostURL = regexp.MustCompile(`https?://sponsr\.ru/([^/\s)\]"'<>]+)/(\d+)(?:/[^\s)\]"'<>]*)?`)

	// BoostyPostURL matches https://boosty.to/{author}/posts/{uuid}.
	BoostyPostURL = regexp.MustCompile(`https?://boosty\.to/([^/\s)\]"'<>]+)/posts/([a-f0-9-]+)(?:[^\s)\]"'<>]*)?`)
)

// ParsePostURL extracts (platform, author, post id) from a post URL.
func ParsePostURL(url string) (Platform, string, string, error) {
	if m := SponsrPostURL.FindStringSubmatch(url); m != nil && m[0] == url {
		return PlatformSponsr, m[1], m[2], nil
	}
	if m := BoostyPostURL.FindStringSubmatch(url); m != nil && m[0] == url {
		return PlatformBoosty, m[1], m[2], nil
	}
	return "", "", "", fmt.Errorf("%w: not a post URL: %s", ErrInvalidInput, url)
}

// IsPostURL reports whether s is a post URL of a supported platform.
func IsPostURL(s string) bool {
	_, _, _, err := ParsePostURL(s)
	return err == nil
}
