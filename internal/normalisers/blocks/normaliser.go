// Package blocks normalises the block-array content model: a JSON array
// of typed blocks where text styling is expressed as block-local rune
// ranges and paragraph breaks are explicit terminator blocks.
package blocks

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/strannick-ru/article-backup/internal/core/domain"
	"github.com/strannick-ru/article-backup/internal/core/ports/driven"
	"github.com/strannick-ru/article-backup/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Style range types used inside text block payloads.
const (
	styleBold   = 1
	styleItalic = 2
	styleLink   = 4
)

// blockEnd terminates the open paragraph.
const blockEnd = "BLOCK_END"

// Normaliser handles block-array payloads.
type Normaliser struct{}

// New creates a block-array normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Format returns the content format this normaliser handles.
func (n *Normaliser) Format() domain.ContentFormat {
	return domain.FormatBlocks
}

// block is one entry of the payload array. Fields not used by a given
// block type are simply absent.
type block struct {
	Type        string      `json:"type"`
	Modificator string      `json:"modificator"`
	Content     string      `json:"content"`
	URL         string      `json:"url"`
	Title       string      `json:"title"`
	ID          flexString  `json:"id"`
	Explicit    bool        `json:"explicit"`
	Preview     string      `json:"preview"`
	Width       json.Number `json:"width"`
	Height      json.Number `json:"height"`
}

// flexString accepts both JSON strings and numbers.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// Normalise converts a block-array raw post to the canonical model.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawPost) (*domain.Post, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	var blks []block
	if err := json.Unmarshal(raw.Content, &blks); err != nil {
		return nil, fmt.Errorf("%w: block array: %v", domain.ErrMalformedPayload, err)
	}

	b := normalisers.NewBuilder()
	acc := &paragraphAccum{}

	for _, blk := range blks {
		if blk.Modificator == blockEnd {
			acc.flush(b)
			b.EndParagraph()
			continue
		}

		switch blk.Type {
		case "text":
			acc.addText(blk.Content, "")
		case "link":
			acc.addText(blk.Content, blk.URL)
		case "image":
			if blk.URL == "" {
				continue
			}
			acc.flush(b)
			b.EndParagraph()
			b.Embed(domain.Embed{Kind: domain.AssetImage, URL: blk.URL, Alt: string(blk.ID)})
			b.EndParagraph()
		case "audio_file":
			if blk.URL == "" {
				continue
			}
			acc.flush(b)
			b.EndParagraph()
			b.Embed(domain.Embed{Kind: domain.AssetAudio, URL: blk.URL, Title: blk.Title})
			b.EndParagraph()
		case "ok_video":
			if blk.ID == "" {
				continue
			}
			acc.flush(b)
			b.EndParagraph()
			b.Embed(domain.Embed{
				Kind: domain.AssetVideo,
				URL:  "https://ok.ru/video/" + string(blk.ID),
			})
			b.EndParagraph()
		default:
			// Unknown block types carry nothing renderable.
		}
	}
	acc.flush(b)

	body := b.Build()
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

// mark is a style annotation over a rune range of the accumulated
// paragraph text.
type mark struct {
	start, end int
	bold       bool
	italic     bool
	link       string
}

// paragraphAccum accumulates text blocks of the open paragraph. Style
// ranges arrive block-local and are shifted by the text accumulated so
// far, so a paragraph split across blocks styles the right runes.
type paragraphAccum struct {
	text  []rune
	marks []mark
}

func (a *paragraphAccum) addText(content, linkURL string) {
	text, ranges := parseTextContent(content)
	if text == "" && linkURL == "" {
		return
	}
	if text == "" {
		text = linkURL
	}

	off := len(a.text)
	runes := []rune(text)

	if linkURL != "" {
		a.marks = append(a.marks, mark{start: off, end: off + len(runes), link: linkURL})
	}
	for _, r := range ranges {
		m := mark{start: off + r.start, end: off + r.start + r.length}
		switch r.kind {
		case styleBold:
			m.bold = true
		case styleItalic:
			m.italic = true
		case styleLink:
			// Link styling comes from link blocks; a bare range has no URL.
			continue
		default:
			continue
		}
		a.marks = append(a.marks, m)
	}
	a.text = append(a.text, runes...)
}

// flush emits the accumulated text into the builder as style-uniform
// segments. The accumulator is reset; the caller decides whether the
// paragraph ends.
func (a *paragraphAccum) flush(b *normalisers.Builder) {
	text, marks := a.text, a.marks
	a.text, a.marks = nil, nil

	if len(text) == 0 {
		return
	}

	bounds := segmentBounds(len(text), marks)
	for i := 0; i+1 < len(bounds); i++ {
		lo, hi := bounds[i], bounds[i+1]
		st := normalisers.Style{}
		for _, m := range marks {
			if m.start <= lo && hi <= m.end {
				st.Bold = st.Bold || m.bold
				st.Italic = st.Italic || m.italic
				if m.link != "" {
					st.Link = m.link
				}
			}
		}
		b.Text(string(text[lo:hi]), st)
	}
}

// segmentBounds returns the sorted unique cut points over [0, n] induced
// by the mark boundaries. Out-of-range marks are clamped.
func segmentBounds(n int, marks []mark) []int {
	set := map[int]bool{0: true, n: true}
	for i := range marks {
		if marks[i].start < 0 {
			marks[i].start = 0
		}
		if marks[i].end > n {
			marks[i].end = n
		}
		if marks[i].start >= marks[i].end {
			continue
		}
		set[marks[i].start] = true
		set[marks[i].end] = true
	}
	bounds := make([]int, 0, len(set))
	for p := range set {
		bounds = append(bounds, p)
	}
	sort.Ints(bounds)
	return bounds
}

type styleRange struct {
	kind   int
	start  int
	length int
}

// parseTextContent decodes a text block payload: a JSON triple of the
// text, a modifier string and a list of [type, start, length] ranges.
// Payloads that do not parse as the triple are treated as plain text.
func parseTextContent(content string) (string, []styleRange) {
	var arr []json.RawMessage
	if err := json.Unmarshal([]byte(content), &arr); err != nil || len(arr) == 0 {
		return content, nil
	}

	var text string
	if err := json.Unmarshal(arr[0], &text); err != nil {
		return content, nil
	}

	var ranges []styleRange
	if len(arr) >= 3 {
		var triples [][]float64
		if err := json.Unmarshal(arr[2], &triples); err == nil {
			for _, tr := range triples {
				if len(tr) < 3 {
					continue
				}
				ranges = append(ranges, styleRange{
					kind:   int(tr[0]),
					start:  int(tr[1]),
					length: int(tr[2]),
				})
			}
		}
	}
	return text, ranges
}
