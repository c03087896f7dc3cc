package driven

import (
	"context"

	"github.com/strannick-ru/article-backup/internal/core/domain"
)

// Page is one chunk of a paginated listing, newest post first.
type Page struct {
	// Posts are the raw posts of this chunk.
	Posts []domain.RawPost

	// NextToken requests the following page. Opaque to the caller.
	NextToken string

	// End is set when the upstream reports no further page.
	End bool
}

// Capabilities describes platform-specific listing behaviour.
type Capabilities struct {
	// ListingComplete indicates listing payloads carry the full post
	// content. When false the controller re-fetches each new post with
	// FetchPost before processing it.
	ListingComplete bool
}

// Connector fetches raw paginated listings and raw single posts from one
// platform's API for one author. It knows the wire format but carries no
// sync policy.
type Connector interface {
	// Platform returns the platform this connector talks to.
	Platform() domain.Platform

	// Author returns the configured author identifier.
	Author() string

	// Capabilities returns the connector's listing behaviour.
	Capabilities() Capabilities

	// Validate checks that the connector is configured and authenticated
	// with a lightweight API call.
	Validate(ctx context.Context) error

	// ListPage fetches one listing page. An empty token requests the
	// newest page.
	ListPage(ctx context.Context, token string) (*Page, error)

	// FetchPost fetches one post by its platform-native identifier.
	FetchPost(ctx context.Context, postID string) (*domain.RawPost, error)

	// Close releases resources.
	Close() error
}

// ConnectorFactory creates connectors for configured sources.
type ConnectorFactory interface {
	Create(ctx context.Context, source domain.Source) (Connector, error)
}
