// Package sponsr implements the Connector interface for sponsr.ru.
// The platform has no public JSON API for the project id, so it is
// scraped from the author page's __NEXT_DATA__ script; listings come
// from the paged more-posts endpoint and carry truncated bodies, so
// every new post is re-fetched from its own page.
package sponsr

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/strannick-ru/article-backup/internal/connectors"
	"github.com/strannick-ru/article-backup/internal/core/domain"
	"github.com/strannick-ru/article-backup/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// siteBase is the canonical site origin used in source URLs.
const siteBase = "https://sponsr.ru"

var nextDataRe = regexp.MustCompile(`(?s)<script id="__NEXT_DATA__"[^>]*>(.*?)</script>`)

// Date layouts the platform has been seen emitting.
var dateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// Connector fetches posts for one project.
type Connector struct {
	author  string
	client  *connectors.Client
	baseURL string

	mu        sync.Mutex
	projectID string
}

// New creates a sponsr connector for the given project name.
func New(author, cookie string) *Connector {
	headers := map[string]string{
		"X-Requested-With": "XMLHttpRequest",
	}
	if cookie != "" {
		headers["Cookie"] = cookie
	}
	return &Connector{
		author:  author,
		client:  connectors.NewClient(headers),
		baseURL: siteBase,
	}
}

// HTTPSession exposes the authenticated HTTP client so asset downloads
// ride the same session.
func (c *Connector) HTTPSession() *http.Client {
	return c.client.HTTPClient()
}

// Platform returns the platform identifier.
func (c *Connector) Platform() domain.Platform {
	return domain.PlatformSponsr
}

// Author returns the configured project name.
func (c *Connector) Author() string {
	return c.author
}

// Capabilities returns the connector's listing behaviour.
func (c *Connector) Capabilities() driven.Capabilities {
	return driven.Capabilities{ListingComplete: false}
}

// Validate resolves the project id, proving the project exists and the
// session works.
func (c *Connector) Validate(ctx context.Context) error {
	_, err := c.resolveProjectID(ctx)
	return err
}

// resolveProjectID scrapes and caches the numeric project id from the
// author page.
func (c *Connector) resolveProjectID(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.projectID != "" {
		return c.projectID, nil
	}

	body, err := c.client.GetBody(ctx, c.baseURL+"/"+c.author)
	if err != nil {
		return "", fmt.Errorf("loading project page %s: %w", c.author, err)
	}

	m := nextDataRe.FindSubmatch(body)
	if m == nil {
		return "", fmt.Errorf("%w: no __NEXT_DATA__ on project page %s", domain.ErrMalformedPayload, c.author)
	}

	var data struct {
		Props struct {
			PageProps struct {
				Project struct {
					ID json.Number `json:"id"`
				} `json:"project"`
			} `json:"pageProps"`
		} `json:"props"`
	}
	if err := json.Unmarshal(m[1], &data); err != nil {
		return "", fmt.Errorf("%w: project page data: %v", domain.ErrMalformedPayload, err)
	}
	id := data.Props.PageProps.Project.ID.String()
	if id == "" || id == "0" {
		return "", fmt.Errorf("%w: project %s", domain.ErrNotFound, c.author)
	}

	c.projectID = id
	return id, nil
}

// listEnvelope is the more-posts payload.
type listEnvelope struct {
	Response struct {
		Rows      []postRow `json:"rows"`
		RowsCount int       `json:"rows_count"`
	} `json:"response"`
}

// postRow is one post as the platform returns it, in either the listing
// or the post page shape.
type postRow struct {
	PostID    json.Number       `json:"post_id"`
	PostTitle string            `json:"post_title"`
	PostText  flexText          `json:"post_text"`
	PostDate  string            `json:"post_date"`
	PostURL   string            `json:"post_url"`
	Tags      []json.RawMessage `json:"tags"`
}

// flexText tolerates the post_text field arriving as a string, null, or
// a list of fragments.
type flexText string

func (f *flexText) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexText(s)
		return nil
	}
	var parts []string
	if err := json.Unmarshal(data, &parts); err == nil {
		*f = flexText(strings.Join(parts, "\n"))
		return nil
	}
	*f = flexText(data)
	return nil
}

// ListPage fetches one listing page. The token is the running row
// offset. Listing bodies are truncated, so every post is partial.
func (c *Connector) ListPage(ctx context.Context, token string) (*driven.Page, error) {
	offset := 0
	if token != "" {
		var err error
		if offset, err = strconv.Atoi(token); err != nil {
			return nil, fmt.Errorf("%w: bad page token %q", domain.ErrInvalidInput, token)
		}
	}

	pid, err := c.resolveProjectID(ctx)
	if err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/project/%s/more-posts/?offset=%d", c.baseURL, pid, offset)
	var env listEnvelope
	if err := c.client.GetJSON(ctx, u, &env); err != nil {
		return nil, fmt.Errorf("listing %s: %w", c.author, err)
	}

	rows := env.Response.Rows
	page := &driven.Page{
		NextToken: strconv.Itoa(offset + len(rows)),
		End:       len(rows) == 0 || offset+len(rows) >= env.Response.RowsCount,
	}
	for _, r := range rows {
		raw := c.rawPost(r)
		raw.Partial = true
		page.Posts = append(page.Posts, raw)
	}
	return page, nil
}

// FetchPost fetches one post's own page for the full body. When the page
// carries no post data the paged listing is scanned as a fallback.
func (c *Connector) FetchPost(ctx context.Context, postID string) (*domain.RawPost, error) {
	body, err := c.client.GetBody(ctx, fmt.Sprintf("%s/%s/%s/", c.baseURL, c.author, postID))
	if err == nil {
		if m := nextDataRe.FindSubmatch(body); m != nil {
			var data struct {
				Props struct {
					PageProps struct {
						Post *postRow `json:"post"`
					} `json:"pageProps"`
				} `json:"props"`
			}
			if jerr := json.Unmarshal(m[1], &data); jerr == nil && data.Props.PageProps.Post != nil {
				raw := c.rawPost(*data.Props.PageProps.Post)
				return &raw, nil
			}
		}
	}

	return c.scanForPost(ctx, postID)
}

// scanForPost pages through the listing until the post turns up.
func (c *Connector) scanForPost(ctx context.Context, postID string) (*domain.RawPost, error) {
	token := ""
	for {
		page, err := c.ListPage(ctx, token)
		if err != nil {
			return nil, err
		}
		for i := range page.Posts {
			if page.Posts[i].ID == postID {
				raw := page.Posts[i]
				raw.Partial = false
				return &raw, nil
			}
		}
		if page.End {
			return nil, fmt.Errorf("%w: post %s", domain.ErrNotFound, postID)
		}
		token = page.NextToken
	}
}

// Close releases resources.
func (c *Connector) Close() error {
	return nil
}

func (c *Connector) rawPost(r postRow) domain.RawPost {
	id := r.PostID.String()

	sourceURL := fmt.Sprintf("%s/%s/%s/", siteBase, c.author, id)
	if strings.HasPrefix(r.PostURL, "/") {
		sourceURL = siteBase + r.PostURL
	}

	return domain.RawPost{
		Platform:    domain.PlatformSponsr,
		Author:      c.author,
		ID:          id,
		Title:       r.PostTitle,
		PublishedAt: parseDate(r.PostDate),
		SourceURL:   sourceURL,
		Tags:        parseTags(r.Tags),
		Format:      domain.FormatTagTree,
		Content:     []byte(r.PostText),
	}
}

func parseDate(s string) time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// parseTags flattens the tag shapes seen in the wild: a bare string, an
// object with tag_name, or an object nesting it under tag.
func parseTags(raw []json.RawMessage) []string {
	var tags []string
	for _, r := range raw {
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			if s != "" {
				tags = append(tags, s)
			}
			continue
		}
		var obj struct {
			TagName string `json:"tag_name"`
			Tag     struct {
				TagName string `json:"tag_name"`
			} `json:"tag"`
		}
		if err := json.Unmarshal(r, &obj); err != nil {
			continue
		}
		switch {
		case obj.TagName != "":
			tags = append(tags, obj.TagName)
		case obj.Tag.TagName != "":
			tags = append(tags, obj.Tag.TagName)
		}
	}
	return tags
}
