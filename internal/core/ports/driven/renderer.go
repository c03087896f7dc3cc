package driven

import "github.com/strannick-ru/article-backup/internal/core/domain"

// Renderer turns the canonical rich-text model into markup text.
// Rendering the same model twice produces byte-identical output.
type Renderer interface {
	Render(body domain.RichText) string
}
