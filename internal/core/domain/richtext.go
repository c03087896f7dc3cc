package domain

import "strings"

// RichText is the platform-agnostic canonical body model: an ordered
// sequence of paragraphs, each an ordered sequence of spans. Paragraph
// boundaries are fixed at creation and map one-to-one onto markup
// paragraph breaks.
type RichText struct {
	Paragraphs []Paragraph
}

// Paragraph is one paragraph of spans.
type Paragraph struct {
	Spans []Span
}

// Embed is a media reference carried by a span.
type Embed struct {
	// Kind is the media kind of the reference.
	Kind AssetKind

	// URL is the reference target. The asset pipeline rewrites it to a
	// relative local path once the bytes are on disk.
	URL string

	// Alt is the alternative text for image embeds.
	Alt string

	// Title is the display title for audio embeds.
	Title string
}

// Span is a run of text with one consistent set of style markers.
//
// Invariants: Text is never empty except for whitespace-only spans, and
// whitespace-only spans carry no style markers. Edge whitespace of styled
// text lives in Leading/Trailing so markers never wrap a space.
type Span struct {
	// Text is the visible text of the span.
	Text string

	// Leading is whitespace hoisted off the front of styled text.
	Leading string

	// Trailing is whitespace hoisted off the end of styled text.
	Trailing string

	// Bold and Italic are emphasis markers.
	Bold   bool
	Italic bool

	// Link is the link target, empty for non-link spans.
	Link string

	// Embed is a media reference; nil for plain text spans.
	Embed *Embed
}

// Styled reports whether the span carries any style marker.
func (s *Span) Styled() bool {
	return s.Bold || s.Italic || s.Link != ""
}

// EachSpan calls fn for every span in document order. The pointer is into
// the document, so fn may mutate spans in place.
func (rt *RichText) EachSpan(fn func(*Span)) {
	for pi := range rt.Paragraphs {
		for si := range rt.Paragraphs[pi].Spans {
			fn(&rt.Paragraphs[pi].Spans[si])
		}
	}
}

// SplitEdgeWhitespace splits s into its leading whitespace, visible core
// and trailing whitespace. A whitespace-only string comes back entirely in
// lead.
func SplitEdgeWhitespace(s string) (lead, core, trail string) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s, "", ""
	}
	start := strings.Index(s, trimmed)
	return s[:start], trimmed, s[start+len(trimmed):]
}
