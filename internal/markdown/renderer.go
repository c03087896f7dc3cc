// Package markdown renders the canonical rich-text model to markdown
// text. Rendering is deterministic: the same model always produces
// byte-identical output.
package markdown

import (
	"strings"

	"github.com/strannick-ru/article-backup/internal/core/domain"
	"github.com/strannick-ru/article-backup/internal/core/ports/driven"
)

// Ensure Renderer implements the interface.
var _ driven.Renderer = (*Renderer)(nil)

// Renderer converts RichText to markdown. The post title is never part of
// the body; presenting it is the metadata header's job.
type Renderer struct{}

// NewRenderer creates a markdown renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render produces the markdown body: one markdown paragraph per model
// paragraph, separated by blank lines, followed by the fixed
// post-processing pass.
func (r *Renderer) Render(body domain.RichText) string {
	var paras []string
	for _, p := range body.Paragraphs {
		text := renderParagraph(p)
		if strings.TrimSpace(text) == "" {
			continue
		}
		paras = append(paras, text)
	}
	if len(paras) == 0 {
		return ""
	}
	return PostProcess(strings.Join(paras, "\n\n")) + "\n"
}

// renderParagraph coalesces identical-style runs and renders each span.
func renderParagraph(p domain.Paragraph) string {
	var b strings.Builder
	for _, s := range coalesce(p.Spans) {
		b.WriteString(renderSpan(s))
	}
	return b.String()
}

// coalesce merges adjacent non-embed spans that carry the same marker
// set, so no duplicate delimiter pairs are emitted.
func coalesce(spans []domain.Span) []domain.Span {
	var out []domain.Span
	for _, s := range spans {
		if len(out) > 0 {
			last := &out[len(out)-1]
			if s.Embed == nil && last.Embed == nil &&
				last.Bold == s.Bold && last.Italic == s.Italic && last.Link == s.Link {
				last.Text = last.Text + last.Trailing + s.Leading + s.Text
				last.Trailing = s.Trailing
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

// renderSpan emits one span. Edge whitespace always lands outside the
// emphasis delimiters; whitespace-only spans are emitted verbatim and
// never wrapped.
func renderSpan(s domain.Span) string {
	if s.Embed != nil {
		return renderEmbed(s.Embed)
	}

	full := s.Leading + s.Text + s.Trailing
	lead, core, trail := domain.SplitEdgeWhitespace(full)
	if core == "" {
		return full
	}

	marker := emphasisMarker(s)
	inner := marker + core + marker
	if s.Link != "" {
		inner = "[" + inner + "](" + s.Link + ")"
	}
	return lead + inner + trail
}

func emphasisMarker(s domain.Span) string {
	switch {
	case s.Bold && s.Italic:
		return "***"
	case s.Bold:
		return "**"
	case s.Italic:
		return "*"
	default:
		return ""
	}
}

func renderEmbed(e *domain.Embed) string {
	switch e.Kind {
	case domain.AssetImage:
		return "![" + e.Alt + "](" + e.URL + ")"
	case domain.AssetAudio:
		title := e.Title
		if title == "" {
			title = "audio"
		}
		label := "слушать"
		if strings.HasPrefix(e.URL, "assets/") {
			label = "скачать"
		}
		return "🎵 **" + title + "**: [" + label + "](" + e.URL + ")"
	case domain.AssetVideo:
		return "📹 Видео: " + e.URL
	default:
		return "[" + e.Alt + "](" + e.URL + ")"
	}
}
