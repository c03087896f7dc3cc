package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/strannick-ru/article-backup/internal/core/domain"
)

func text(s string) domain.Span {
	return domain.Span{Text: s}
}

func para(spans ...domain.Span) domain.Paragraph {
	return domain.Paragraph{Spans: spans}
}

func TestRender_PlainParagraphs(t *testing.T) {
	r := NewRenderer()

	body := domain.RichText{Paragraphs: []domain.Paragraph{
		para(text("First paragraph.")),
		para(text("Second paragraph.")),
	}}

	got := r.Render(body)
	assert.Equal(t, "First paragraph.\n\nSecond paragraph.\n", got)
}

func TestRender_EmptyBody(t *testing.T) {
	r := NewRenderer()

	assert.Equal(t, "", r.Render(domain.RichText{}))
	assert.Equal(t, "", r.Render(domain.RichText{Paragraphs: []domain.Paragraph{
		para(text("   ")),
	}}))
}

func TestRender_BoldEdgeWhitespaceStaysOutside(t *testing.T) {
	r := NewRenderer()

	body := domain.RichText{Paragraphs: []domain.Paragraph{
		para(
			text("перед"),
			domain.Span{Text: "текст", Leading: " ", Trailing: " ", Bold: true},
			text("после"),
		),
	}}

	got := r.Render(body)
	assert.Equal(t, "перед **текст** после\n", got)
}

func TestRender_WhitespaceOnlySpanNeverWrapped(t *testing.T) {
	r := NewRenderer()

	body := domain.RichText{Paragraphs: []domain.Paragraph{
		para(
			text("a"),
			domain.Span{Text: " ", Bold: true},
			text("b"),
		),
	}}

	got := r.Render(body)
	assert.Equal(t, "a b\n", got)
	assert.NotContains(t, got, "*")
}

func TestRender_BoldItalicMarkers(t *testing.T) {
	r := NewRenderer()

	body := domain.RichText{Paragraphs: []domain.Paragraph{
		para(
			domain.Span{Text: "bold", Bold: true},
			text(" "),
			domain.Span{Text: "italic", Italic: true},
			text(" "),
			domain.Span{Text: "both", Bold: true, Italic: true},
		),
	}}

	got := r.Render(body)
	assert.Equal(t, "**bold** *italic* ***both***\n", got)
}

func TestRender_LinkWithStyledText(t *testing.T) {
	r := NewRenderer()

	body := domain.RichText{Paragraphs: []domain.Paragraph{
		para(domain.Span{Text: "читать", Bold: true, Link: "https://example.com/a"}),
	}}

	got := r.Render(body)
	assert.Equal(t, "[**читать**](https://example.com/a)\n", got)
}

func TestRender_CoalescesAdjacentSameStyle(t *testing.T) {
	r := NewRenderer()

	body := domain.RichText{Paragraphs: []domain.Paragraph{
		para(
			domain.Span{Text: "два", Bold: true, Trailing: " "},
			domain.Span{Text: "слова", Bold: true},
		),
	}}

	got := r.Render(body)
	assert.Equal(t, "**два слова**\n", got)
}

func TestRender_Embeds(t *testing.T) {
	r := NewRenderer()

	body := domain.RichText{Paragraphs: []domain.Paragraph{
		para(domain.Span{Embed: &domain.Embed{Kind: domain.AssetImage, URL: "assets/pic.jpg", Alt: "pic"}}),
		para(domain.Span{Embed: &domain.Embed{Kind: domain.AssetAudio, URL: "assets/ep1.mp3", Title: "Эпизод 1"}}),
		para(domain.Span{Embed: &domain.Embed{Kind: domain.AssetAudio, URL: "https://cdn.example.com/ep2.mp3", Title: "Эпизод 2"}}),
		para(domain.Span{Embed: &domain.Embed{Kind: domain.AssetVideo, URL: "https://rutube.ru/video/abc/"}}),
	}}

	got := r.Render(body)
	assert.Equal(t,
		"![pic](assets/pic.jpg)\n\n"+
			"🎵 **Эпизод 1**: [скачать](assets/ep1.mp3)\n\n"+
			"🎵 **Эпизод 2**: [слушать](https://cdn.example.com/ep2.mp3)\n\n"+
			"📹 Видео: https://rutube.ru/video/abc/\n",
		got)
}

func TestRender_Deterministic(t *testing.T) {
	r := NewRenderer()

	body := domain.RichText{Paragraphs: []domain.Paragraph{
		para(
			text("начало "),
			domain.Span{Text: "жирный", Bold: true, Trailing: " "},
			domain.Span{Text: "ссылка", Link: "https://sponsr.ru/x/1/"},
		),
	}}

	first := r.Render(body)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, r.Render(body))
	}
}
