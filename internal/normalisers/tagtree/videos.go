package tagtree

import "regexp"

// Hosting-specific embed URL shapes and their watchable equivalents.
var videoEmbedPatterns = []struct {
	re    *regexp.Regexp
	watch func(m []string) string
}{
	{
		regexp.MustCompile(`rutube\.ru/play/embed/([A-Za-z0-9]+)`),
		func(m []string) string { return "https://rutube.ru/video/" + m[1] + "/" },
	},
	{
		regexp.MustCompile(`youtube\.com/embed/([A-Za-z0-9_-]+)`),
		func(m []string) string { return "https://www.youtube.com/watch?v=" + m[1] },
	},
	{
		regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]+)`),
		func(m []string) string { return "https://www.youtube.com/watch?v=" + m[1] },
	},
	{
		regexp.MustCompile(`player\.vimeo\.com/video/(\d+)`),
		func(m []string) string { return "https://vimeo.com/" + m[1] },
	},
	{
		regexp.MustCompile(`ok\.ru/videoembed/(\d+)`),
		func(m []string) string { return "https://ok.ru/video/" + m[1] },
	},
	{
		regexp.MustCompile(`vk\.com/video_ext\.php\?(?:[^"'\s]*?&)?oid=(-?\d+)(?:[^"'\s]*?)&id=(\d+)`),
		func(m []string) string { return "https://vk.com/video" + m[1] + "_" + m[2] },
	},
}

// resolveVideoURL maps an iframe source to the hosting's watch URL.
// Unrecognised players fall back to the raw source so the reference is
// preserved; an empty source resolves to nothing.
func resolveVideoURL(src string) string {
	if src == "" {
		return ""
	}
	for _, p := range videoEmbedPatterns {
		if m := p.re.FindStringSubmatch(src); m != nil {
			return p.watch(m)
		}
	}
	return src
}
