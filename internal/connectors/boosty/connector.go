// Package boosty implements the Connector interface for the boosty.to
// API. Listings carry full post content, so nothing is re-fetched.
package boosty

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/strannick-ru/article-backup/internal/connectors"
	"github.com/strannick-ru/article-backup/internal/core/domain"
	"github.com/strannick-ru/article-backup/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

const (
	// apiBase is the API origin.
	apiBase = "https://api.boosty.to"

	// pageLimit is the listing page size.
	pageLimit = 20
)

// Credentials is the session material read from the credential files.
type Credentials struct {
	// Cookie is the session cookie line.
	Cookie string

	// Authorization is the bearer token line.
	Authorization string
}

// Connector fetches posts for one author.
type Connector struct {
	author  string
	client  *connectors.Client
	baseURL string
}

// New creates a boosty connector for the given author.
func New(author string, creds Credentials) *Connector {
	headers := map[string]string{}
	if creds.Cookie != "" {
		headers["Cookie"] = creds.Cookie
	}
	if creds.Authorization != "" {
		headers["Authorization"] = creds.Authorization
	}
	return &Connector{
		author:  author,
		client:  connectors.NewClient(headers),
		baseURL: apiBase,
	}
}

// HTTPSession exposes the authenticated HTTP client so asset downloads
// ride the same session.
func (c *Connector) HTTPSession() *http.Client {
	return c.client.HTTPClient()
}

// Platform returns the platform identifier.
func (c *Connector) Platform() domain.Platform {
	return domain.PlatformBoosty
}

// Author returns the configured author identifier.
func (c *Connector) Author() string {
	return c.author
}

// Capabilities returns the connector's listing behaviour.
func (c *Connector) Capabilities() driven.Capabilities {
	return driven.Capabilities{ListingComplete: true}
}

// Validate fetches the first listing page to prove the author exists and
// the credentials work.
func (c *Connector) Validate(ctx context.Context) error {
	_, err := c.ListPage(ctx, "")
	return err
}

// listResponse is the listing payload envelope.
type listResponse struct {
	Data  []postPayload `json:"data"`
	Extra struct {
		IsLast bool   `json:"isLast"`
		Offset string `json:"offset"`
	} `json:"extra"`
}

// postPayload is one post as the API returns it.
type postPayload struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	CreatedAt int64           `json:"createdAt"`
	Data      json.RawMessage `json:"data"`
	Tags      []struct {
		Title string `json:"title"`
	} `json:"tags"`
	User struct {
		BlogURL string `json:"blogUrl"`
	} `json:"user"`
}

// ListPage fetches one listing page. The token is the opaque offset the
// previous page returned.
func (c *Connector) ListPage(ctx context.Context, token string) (*driven.Page, error) {
	u := fmt.Sprintf("%s/v1/blog/%s/post/?limit=%d", c.baseURL, url.PathEscape(c.author), pageLimit)
	if token != "" {
		u += "&offset=" + url.QueryEscape(token)
	}

	var resp listResponse
	if err := c.client.GetJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("listing %s: %w", c.author, err)
	}

	page := &driven.Page{
		NextToken: resp.Extra.Offset,
		End:       resp.Extra.IsLast,
	}
	for _, p := range resp.Data {
		page.Posts = append(page.Posts, c.rawPost(p))
	}
	return page, nil
}

// FetchPost fetches one post by its identifier.
func (c *Connector) FetchPost(ctx context.Context, postID string) (*domain.RawPost, error) {
	u := fmt.Sprintf("%s/v1/blog/%s/post/%s", c.baseURL, url.PathEscape(c.author), url.PathEscape(postID))

	var p postPayload
	if err := c.client.GetJSON(ctx, u, &p); err != nil {
		return nil, fmt.Errorf("fetching post %s: %w", postID, err)
	}
	raw := c.rawPost(p)
	return &raw, nil
}

// Close releases resources.
func (c *Connector) Close() error {
	return nil
}

func (c *Connector) rawPost(p postPayload) domain.RawPost {
	tags := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		if t.Title != "" {
			tags = append(tags, t.Title)
		}
	}

	blogURL := p.User.BlogURL
	if blogURL == "" {
		blogURL = c.author
	}

	content := p.Data
	if len(content) == 0 {
		content = json.RawMessage("[]")
	}

	return domain.RawPost{
		Platform:    domain.PlatformBoosty,
		Author:      c.author,
		ID:          p.ID,
		Title:       p.Title,
		PublishedAt: time.Unix(p.CreatedAt, 0).UTC(),
		SourceURL:   fmt.Sprintf("https://boosty.to/%s/posts/%s", blogURL, p.ID),
		Tags:        tags,
		Format:      domain.FormatBlocks,
		Content:     content,
	}
}
