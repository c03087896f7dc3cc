package normalisers

import (
	"strings"

	"github.com/strannick-ru/article-backup/internal/core/domain"
)

// Style is the marker set active over a run of text.
type Style struct {
	Bold   bool
	Italic bool
	Link   string
}

type run struct {
	text  string
	style Style
	embed *domain.Embed
}

// Builder assembles the canonical rich-text model. Adjacent runs with the
// same style are merged, edge whitespace is hoisted out of styled spans,
// and whitespace-only runs lose their markers. Both normalisers build
// their output through it so the invariants hold for every format.
type Builder struct {
	paras []domain.Paragraph
	runs  []run
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Text appends a run of text with the given style to the open paragraph.
// Empty text is ignored.
func (b *Builder) Text(text string, style Style) {
	if text == "" {
		return
	}
	if n := len(b.runs); n > 0 && b.runs[n-1].embed == nil && b.runs[n-1].style == style {
		b.runs[n-1].text += text
		return
	}
	b.runs = append(b.runs, run{text: text, style: style})
}

// Embed appends a media embed to the open paragraph.
func (b *Builder) Embed(e domain.Embed) {
	b.runs = append(b.runs, run{embed: &e})
}

// EndParagraph closes the open paragraph. Paragraphs with no visible
// content are dropped.
func (b *Builder) EndParagraph() {
	runs := b.runs
	b.runs = nil

	spans := spansFromRuns(runs)
	if len(spans) == 0 {
		return
	}
	b.paras = append(b.paras, domain.Paragraph{Spans: spans})
}

// Build closes the open paragraph and returns the assembled model.
func (b *Builder) Build() domain.RichText {
	b.EndParagraph()
	return domain.RichText{Paragraphs: b.paras}
}

func spansFromRuns(runs []run) []domain.Span {
	var spans []domain.Span
	visible := false
	for _, r := range runs {
		if r.embed != nil {
			spans = append(spans, domain.Span{Embed: r.embed})
			visible = true
			continue
		}
		lead, core, trail := domain.SplitEdgeWhitespace(r.text)
		if core == "" {
			// Whitespace carries no style.
			spans = append(spans, domain.Span{Text: r.text})
			continue
		}
		visible = true
		spans = append(spans, domain.Span{
			Text:     core,
			Leading:  lead,
			Trailing: trail,
			Bold:     r.style.Bold,
			Italic:   r.style.Italic,
			Link:     r.style.Link,
		})
	}
	if !visible {
		return nil
	}
	return trimEdgeSpans(spans)
}

// trimEdgeSpans drops whitespace-only spans at the paragraph edges.
func trimEdgeSpans(spans []domain.Span) []domain.Span {
	isBlank := func(s domain.Span) bool {
		return s.Embed == nil && strings.TrimSpace(s.Text) == ""
	}
	for len(spans) > 0 && isBlank(spans[0]) {
		spans = spans[1:]
	}
	for len(spans) > 0 && isBlank(spans[len(spans)-1]) {
		spans = spans[:len(spans)-1]
	}
	return spans
}

// CollectAssets walks the model and returns the downloadable embeds as
// pending assets, deduplicated by URL in first-seen order. Video embeds
// stay external and are never collected.
func CollectAssets(rt domain.RichText) []*domain.Asset {
	var assets []*domain.Asset
	seen := make(map[string]bool)
	rt.EachSpan(func(s *domain.Span) {
		e := s.Embed
		if e == nil || e.Kind == domain.AssetVideo || e.URL == "" || seen[e.URL] {
			return
		}
		seen[e.URL] = true
		alt := e.Alt
		if alt == "" {
			alt = e.Title
		}
		assets = append(assets, &domain.Asset{
			URL:   e.URL,
			Alt:   alt,
			Kind:  e.Kind,
			State: domain.AssetPending,
		})
	})
	return assets
}
