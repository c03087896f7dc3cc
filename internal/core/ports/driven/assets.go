package driven

import (
	"context"
	"net/http"

	"github.com/strannick-ru/article-backup/internal/core/domain"
)

// AssetResolver downloads a post's media into dir and rewrites embed
// references to relative local paths. Individual asset failures are
// non-fatal: the failed reference keeps its original external URL.
type AssetResolver interface {
	Acquire(ctx context.Context, post *domain.Post, dir string) error
}

// AssetResolverFactory builds a resolver over an HTTP client, so asset
// downloads can reuse a connector's authenticated session.
type AssetResolverFactory func(client *http.Client) AssetResolver

// SessionProvider is implemented by connectors whose HTTP session
// carries credentials that asset downloads need too.
type SessionProvider interface {
	HTTPSession() *http.Client
}
