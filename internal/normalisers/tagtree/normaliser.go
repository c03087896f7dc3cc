// Package tagtree normalises the tag-tree content model: an HTML
// fragment where styling is element nesting and paragraph structure is
// block-level markup. The markup is editor output, so a cleanup pass
// repairs empty and misnested style elements before extraction.
package tagtree

import (
	"bytes"
	"context"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/strannick-ru/article-backup/internal/core/domain"
	"github.com/strannick-ru/article-backup/internal/core/ports/driven"
	"github.com/strannick-ru/article-backup/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// defaultBase resolves site-relative media URLs.
const defaultBase = "https://sponsr.ru"

var whitespaceRun = regexp.MustCompile(`\s+`)

// Normaliser handles tag-tree payloads.
type Normaliser struct {
	base *url.URL
}

// New creates a tag-tree normaliser resolving relative URLs against the
// platform origin.
func New() *Normaliser {
	base, _ := url.Parse(defaultBase)
	return &Normaliser{base: base}
}

// Format returns the content format this normaliser handles.
func (n *Normaliser) Format() domain.ContentFormat {
	return domain.FormatTagTree
}

// Normalise converts a tag-tree raw post to the canonical model.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawPost) (*domain.Post, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	doc, err := html.Parse(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, domain.ErrMalformedPayload
	}
	cleanup(doc)

	w := &walker{b: normalisers.NewBuilder(), base: n.base}
	w.walk(doc)

	body := w.b.Build()
	return &domain.Post{
		Platform:    raw.Platform,
		Author:      raw.Author,
		ID:          raw.ID,
		Title:       raw.Title,
		Body:        body,
		PublishedAt: raw.PublishedAt,
		SourceURL:   raw.SourceURL,
		Tags:        raw.Tags,
		Assets:      normalisers.CollectAssets(body),
	}, nil
}

// walker extracts spans from the cleaned tree. Style state is tracked
// as nesting depth so duplicated markup does not double the markers.
type walker struct {
	b      *normalisers.Builder
	base   *url.URL
	bold   int
	italic int
	link   string
}

func (w *walker) style() normalisers.Style {
	return normalisers.Style{
		Bold:   w.bold > 0,
		Italic: w.italic > 0,
		Link:   w.link,
	}
}

func (w *walker) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.text(n.Data)
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "template", "svg", "head", "title":
			return
		case "br", "hr":
			w.b.EndParagraph()
			return
		case "img":
			w.image(n)
			return
		case "iframe", "embed":
			w.video(n)
			return
		case "b", "strong":
			w.bold++
			w.walkChildren(n)
			w.bold--
			return
		case "em", "i":
			w.italic++
			w.walkChildren(n)
			w.italic--
			return
		case "a":
			w.anchor(n)
			return
		}
		if isBlockTag(n.Data) {
			w.b.EndParagraph()
			w.walkChildren(n)
			w.b.EndParagraph()
			return
		}
	}
	w.walkChildren(n)
}

func (w *walker) walkChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

// text collapses whitespace runs to single spaces; paragraph breaks come
// from markup, never from source formatting.
func (w *walker) text(data string) {
	collapsed := whitespaceRun.ReplaceAllString(data, " ")
	if collapsed == "" {
		return
	}
	w.b.Text(collapsed, w.style())
}

func (w *walker) anchor(n *html.Node) {
	href := strings.TrimSpace(attr(n, "href"))
	if href == "" || strings.HasPrefix(href, "javascript:") {
		w.walkChildren(n)
		return
	}
	prev := w.link
	w.link = w.absolutise(href)
	w.walkChildren(n)
	w.link = prev
}

func (w *walker) image(n *html.Node) {
	src := attr(n, "src")
	if src == "" {
		src = attr(n, "data-src")
	}
	if src == "" {
		return
	}
	alt := attr(n, "alt")
	if alt == "" {
		alt = parentImageAlt(n)
	}
	w.b.Embed(domain.Embed{
		Kind: domain.AssetImage,
		URL:  w.absolutise(src),
		Alt:  alt,
	})
}

// video replaces a player embed with a link to the hosting's watch page.
func (w *walker) video(n *html.Node) {
	src := attr(n, "src")
	if src == "" {
		src = attr(n, "data-src")
	}
	watch := resolveVideoURL(src)
	if watch == "" {
		return
	}
	w.b.EndParagraph()
	w.b.Embed(domain.Embed{Kind: domain.AssetVideo, URL: watch})
	w.b.EndParagraph()
}

func (w *walker) absolutise(ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return w.base.ResolveReference(u).String()
}

// parentImageAlt looks for the caption the gallery wrapper carries when
// the img element itself has no alt text.
func parentImageAlt(n *html.Node) string {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type != html.ElementNode || p.Data != "div" {
			continue
		}
		if !strings.Contains(attr(p, "class"), "post-image") {
			continue
		}
		if alt := attr(p, "data-alt"); alt != "" {
			return alt
		}
	}
	return ""
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func isBlockTag(tag string) bool {
	switch tag {
	case "p", "div", "section", "article", "blockquote", "figure", "figcaption",
		"ul", "ol", "li", "table", "thead", "tbody", "tr",
		"h1", "h2", "h3", "h4", "h5", "h6", "pre", "header", "footer":
		return true
	}
	return false
}
