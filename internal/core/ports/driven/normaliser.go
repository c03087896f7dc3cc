package driven

import (
	"context"

	"github.com/strannick-ru/article-backup/internal/core/domain"
)

// Normaliser converts one content format's raw payload into the canonical
// post model. Pure transformation; no I/O.
type Normaliser interface {
	// Format returns the content format this normaliser handles.
	Format() domain.ContentFormat

	// Normalise converts a raw post. A payload with an unexpected shape
	// fails with domain.ErrMalformedPayload.
	Normalise(ctx context.Context, raw *domain.RawPost) (*domain.Post, error)
}

// NormaliserRegistry routes raw posts to the normaliser for their format.
type NormaliserRegistry interface {
	Normalise(ctx context.Context, raw *domain.RawPost) (*domain.Post, error)
}
