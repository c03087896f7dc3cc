package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strannick-ru/article-backup/internal/core/domain"
	"github.com/strannick-ru/article-backup/internal/core/ports/driven"
	"github.com/strannick-ru/article-backup/internal/core/ports/driving"
)

// ---- fakes ----

type fakeConnector struct {
	platform  domain.Platform
	author    string
	caps      driven.Capabilities
	pages     [][]domain.RawPost
	listCalls int
	fetched   []string
	fullBody  string
}

func (f *fakeConnector) Platform() domain.Platform          { return f.platform }
func (f *fakeConnector) Author() string                     { return f.author }
func (f *fakeConnector) Capabilities() driven.Capabilities  { return f.caps }
func (f *fakeConnector) Validate(context.Context) error     { return nil }
func (f *fakeConnector) Close() error                       { return nil }

func (f *fakeConnector) ListPage(_ context.Context, token string) (*driven.Page, error) {
	f.listCalls++
	idx := 0
	if token != "" {
		idx, _ = strconv.Atoi(token)
	}
	if idx >= len(f.pages) {
		return &driven.Page{End: true}, nil
	}
	return &driven.Page{
		Posts:     append([]domain.RawPost(nil), f.pages[idx]...),
		NextToken: strconv.Itoa(idx + 1),
		End:       idx == len(f.pages)-1,
	}, nil
}

func (f *fakeConnector) FetchPost(_ context.Context, postID string) (*domain.RawPost, error) {
	f.fetched = append(f.fetched, postID)
	for _, page := range f.pages {
		for _, p := range page {
			if p.ID == postID {
				full := p
				full.Partial = false
				if f.fullBody != "" {
					full.Content = []byte(f.fullBody)
				}
				return &full, nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

type fakeFactory struct {
	conn *fakeConnector
	err  error
}

func (f *fakeFactory) Create(context.Context, domain.Source) (driven.Connector, error) {
	return f.conn, f.err
}

type fakeIndex struct {
	records map[string]domain.IndexRecord
	states  map[string]domain.SyncState
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{
		records: make(map[string]domain.IndexRecord),
		states:  make(map[string]domain.SyncState),
	}
}

func key(platform domain.Platform, author, id string) string {
	return string(platform) + "/" + author + "/" + id
}

func (f *fakeIndex) Exists(_ context.Context, p domain.Platform, a, id string) (bool, error) {
	_, ok := f.records[key(p, a, id)]
	return ok, nil
}

func (f *fakeIndex) Commit(_ context.Context, rec domain.IndexRecord) error {
	f.records[key(rec.Platform, rec.Author, rec.PostID)] = rec
	return nil
}

func (f *fakeIndex) Get(_ context.Context, p domain.Platform, a, id string) (*domain.IndexRecord, error) {
	rec, ok := f.records[key(p, a, id)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

func (f *fakeIndex) ByAuthor(_ context.Context, p domain.Platform, a string) ([]domain.IndexRecord, error) {
	var recs []domain.IndexRecord
	for _, rec := range f.records {
		if rec.Platform == p && rec.Author == a {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}

func (f *fakeIndex) GetSyncState(_ context.Context, p domain.Platform, a string) (*domain.SyncState, error) {
	state, ok := f.states[string(p)+"/"+a]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &state, nil
}

func (f *fakeIndex) SetSyncState(_ context.Context, state domain.SyncState) error {
	f.states[string(state.Platform)+"/"+state.Author] = state
	return nil
}

type fakeRegistry struct{}

func (fakeRegistry) Normalise(_ context.Context, raw *domain.RawPost) (*domain.Post, error) {
	if string(raw.Content) == "MALFORMED" {
		return nil, fmt.Errorf("%w: bad payload", domain.ErrMalformedPayload)
	}
	return &domain.Post{
		Platform:    raw.Platform,
		Author:      raw.Author,
		ID:          raw.ID,
		Title:       raw.Title,
		PublishedAt: raw.PublishedAt,
		SourceURL:   raw.SourceURL,
		Tags:        raw.Tags,
		Body: domain.RichText{Paragraphs: []domain.Paragraph{
			{Spans: []domain.Span{{Text: string(raw.Content)}}},
		}},
	}, nil
}

type fakeRenderer struct{}

func (fakeRenderer) Render(body domain.RichText) string {
	if len(body.Paragraphs) == 0 {
		return ""
	}
	return body.Paragraphs[0].Spans[0].Text
}

type fakeWriter struct {
	bodies    map[string]string
	failWrite bool
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{bodies: make(map[string]string)}
}

func (f *fakeWriter) Prepare(post *domain.Post) (string, string, string, error) {
	slug := "s-" + post.ID
	rel := string(post.Platform) + "/" + post.Author + "/posts/" + slug
	return "/tmp/fake/" + rel, slug, rel, nil
}

func (f *fakeWriter) WriteBody(dir string, post *domain.Post, body string) error {
	if f.failWrite {
		return errors.New("disk full")
	}
	f.bodies[post.ID] = body
	return nil
}

func (f *fakeWriter) EnsureSectionIndexes(domain.Source) error { return nil }

type fakeLinkFixer struct {
	calls int
}

func (f *fakeLinkFixer) FixLinks(context.Context, domain.Platform, string) (int, error) {
	f.calls++
	return 0, nil
}

// ---- helpers ----

func rawPost(id, content string) domain.RawPost {
	return domain.RawPost{
		Platform:    domain.PlatformBoosty,
		Author:      "author",
		ID:          id,
		Title:       "Post " + id,
		PublishedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		SourceURL:   "https://boosty.to/author/posts/" + id,
		Format:      domain.FormatBlocks,
		Content:     []byte(content),
	}
}

func testSource() domain.Source {
	return domain.Source{Platform: domain.PlatformBoosty, Author: "author"}
}

type fixture struct {
	conn   *fakeConnector
	index  *fakeIndex
	writer *fakeWriter
	fixer  *fakeLinkFixer
}

func newController(f *fixture, safetyChunks int) *SyncController {
	return NewSyncController(
		[]domain.Source{testSource()},
		&fakeFactory{conn: f.conn},
		fakeRegistry{},
		fakeRenderer{},
		f.writer,
		f.index,
		f.fixer,
		nil,
		safetyChunks,
	)
}

func newFixture(pages [][]domain.RawPost) *fixture {
	return &fixture{
		conn: &fakeConnector{
			platform: domain.PlatformBoosty,
			author:   "author",
			caps:     driven.Capabilities{ListingComplete: true},
			pages:    pages,
		},
		index:  newFakeIndex(),
		writer: newFakeWriter(),
		fixer:  &fakeLinkFixer{},
	}
}

// ---- tests ----

func TestSync_FullRunArchivesEverythingAndSetsCheckpoint(t *testing.T) {
	f := newFixture([][]domain.RawPost{
		{rawPost("3", "c"), rawPost("2", "b")},
		{rawPost("1", "a")},
	})
	c := newController(f, 1)

	stats, err := c.Sync(context.Background(), testSource())
	require.NoError(t, err)

	assert.Equal(t, driving.Stats{Fetched: 3, Skipped: 0}, stats)
	assert.Len(t, f.index.records, 3)

	state, err := f.index.GetSyncState(context.Background(), domain.PlatformBoosty, "author")
	require.NoError(t, err)
	assert.True(t, state.FullSyncComplete)
	assert.Equal(t, 1, f.fixer.calls)
}

func TestSync_SecondRunIsIdempotent(t *testing.T) {
	f := newFixture([][]domain.RawPost{
		{rawPost("2", "b")},
		{rawPost("1", "a")},
	})
	c := newController(f, 1)
	ctx := context.Background()

	_, err := c.Sync(ctx, testSource())
	require.NoError(t, err)

	stats, err := c.Sync(ctx, testSource())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Fetched)
	assert.Len(t, f.index.records, 2)
}

func TestSync_IncrementalStopsAfterSafetyChunks(t *testing.T) {
	pages := [][]domain.RawPost{
		{rawPost("10", "new"), rawPost("9", "new")},
		{rawPost("2", "old")},
		{rawPost("1", "old")},
	}

	run := func(safetyChunks int) *fakeConnector {
		f := newFixture(pages)
		// Previous full run archived the old posts.
		require.NoError(t, f.index.SetSyncState(context.Background(), domain.SyncState{
			Platform: domain.PlatformBoosty, Author: "author", FullSyncComplete: true,
		}))
		for _, id := range []string{"1", "2"} {
			require.NoError(t, f.index.Commit(context.Background(), domain.IndexRecord{
				Platform: domain.PlatformBoosty, Author: "author", PostID: id,
			}))
		}

		c := newController(f, safetyChunks)
		stats, err := c.Sync(context.Background(), testSource())
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Fetched)
		return f.conn
	}

	// One fully-known page ends the run: page 3 is never requested.
	assert.Equal(t, 2, run(1).listCalls)

	// A larger safety margin keeps going.
	assert.Equal(t, 3, run(2).listCalls)
}

func TestSync_NewPostResetsCleanCounter(t *testing.T) {
	pages := [][]domain.RawPost{
		{rawPost("5", "old")},
		{rawPost("6", "new")},
		{rawPost("4", "old")},
	}
	f := newFixture(pages)
	ctx := context.Background()
	require.NoError(t, f.index.SetSyncState(ctx, domain.SyncState{
		Platform: domain.PlatformBoosty, Author: "author", FullSyncComplete: true,
	}))
	for _, id := range []string{"5", "4"} {
		require.NoError(t, f.index.Commit(ctx, domain.IndexRecord{
			Platform: domain.PlatformBoosty, Author: "author", PostID: id,
		}))
	}

	c := newController(f, 1)
	stats, err := c.Sync(ctx, testSource())
	require.NoError(t, err)

	// Page 2 had a new post, so page 3 must still be checked.
	assert.Equal(t, 1, stats.Fetched)
	assert.Equal(t, 3, f.conn.listCalls)
}

func TestSync_MalformedPostSkippedRunContinues(t *testing.T) {
	f := newFixture([][]domain.RawPost{
		{rawPost("3", "ok"), rawPost("2", "MALFORMED"), rawPost("1", "ok")},
	})
	c := newController(f, 1)

	stats, err := c.Sync(context.Background(), testSource())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Fetched)
	_, err = f.index.Get(context.Background(), domain.PlatformBoosty, "author", "2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSync_WriteFailureLeavesPostUncommitted(t *testing.T) {
	f := newFixture([][]domain.RawPost{{rawPost("1", "a")}})
	f.writer.failWrite = true
	c := newController(f, 1)

	_, err := c.Sync(context.Background(), testSource())
	require.Error(t, err)

	assert.Empty(t, f.index.records)
	// No checkpoint either: the run did not finish.
	_, err = f.index.GetSyncState(context.Background(), domain.PlatformBoosty, "author")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSync_PartialPostsAreRefetched(t *testing.T) {
	truncated := rawPost("1", "truncated…")
	truncated.Partial = true
	f := newFixture([][]domain.RawPost{{truncated}})
	f.conn.caps = driven.Capabilities{ListingComplete: false}
	f.conn.fullBody = "полный текст"
	c := newController(f, 1)

	stats, err := c.Sync(context.Background(), testSource())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Fetched)
	assert.Equal(t, []string{"1"}, f.conn.fetched)
	assert.Equal(t, "полный текст", f.writer.bodies["1"])
}

func TestSync_NoNewPostsSkipsLinkFixer(t *testing.T) {
	f := newFixture([][]domain.RawPost{{rawPost("1", "a")}})
	ctx := context.Background()
	require.NoError(t, f.index.Commit(ctx, domain.IndexRecord{
		Platform: domain.PlatformBoosty, Author: "author", PostID: "1",
	}))

	c := newController(f, 1)
	stats, err := c.Sync(ctx, testSource())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 0, f.fixer.calls)
}

func TestSyncAll_ContinuesPastFailingSource(t *testing.T) {
	bad := domain.Source{Platform: domain.PlatformSponsr, Author: "broken"}
	good := testSource()

	f := newFixture([][]domain.RawPost{{rawPost("1", "a")}})
	c := NewSyncController(
		[]domain.Source{bad, good},
		&failingThenGoodFactory{good: f.conn},
		fakeRegistry{},
		fakeRenderer{},
		f.writer,
		f.index,
		f.fixer,
		nil,
		1,
	)

	results := c.SyncAll(context.Background())
	require.Len(t, results, 2)
	assert.Error(t, results[0].Err)
	assert.NoError(t, results[1].Err)
	assert.Equal(t, 1, results[1].Stats.Fetched)
}

type failingThenGoodFactory struct {
	good *fakeConnector
}

func (f *failingThenGoodFactory) Create(_ context.Context, s domain.Source) (driven.Connector, error) {
	if s.Author == "broken" {
		return nil, domain.ErrAuthRequired
	}
	return f.good, nil
}

func TestDownloadSingle(t *testing.T) {
	f := newFixture([][]domain.RawPost{{rawPost("aaaa-1111", "тело")}})
	c := newController(f, 1)
	ctx := context.Background()

	err := c.DownloadSingle(ctx, "https://boosty.to/author/posts/aaaa-1111")
	require.NoError(t, err)

	assert.Equal(t, []string{"aaaa-1111"}, f.conn.fetched)
	rec, err := f.index.Get(ctx, domain.PlatformBoosty, "author", "aaaa-1111")
	require.NoError(t, err)
	assert.Equal(t, "s-aaaa-1111", rec.Slug)

	// Single downloads never touch the checkpoint.
	_, err = f.index.GetSyncState(ctx, domain.PlatformBoosty, "author")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDownloadSingle_BadURL(t *testing.T) {
	f := newFixture(nil)
	c := newController(f, 1)

	err := c.DownloadSingle(context.Background(), "https://example.com/whatever")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
