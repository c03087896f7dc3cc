package normalisers

import (
	"context"
	"fmt"

	"github.com/strannick-ru/article-backup/internal/core/domain"
	"github.com/strannick-ru/article-backup/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry dispatches raw posts to the normaliser registered for their
// content format.
type Registry struct {
	byFormat map[domain.ContentFormat]driven.Normaliser
}

// NewRegistry creates a registry over the given normalisers. A later
// normaliser with the same format wins.
func NewRegistry(normalisers ...driven.Normaliser) *Registry {
	byFormat := make(map[domain.ContentFormat]driven.Normaliser, len(normalisers))
	for _, n := range normalisers {
		byFormat[n.Format()] = n
	}
	return &Registry{byFormat: byFormat}
}

// Normalise converts a raw post using the normaliser for its format.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawPost) (*domain.Post, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	n, ok := r.byFormat[raw.Format]
	if !ok {
		return nil, fmt.Errorf("no normaliser for format %q: %w", raw.Format, domain.ErrInvalidInput)
	}
	return n.Normalise(ctx, raw)
}
