package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strannick-ru/article-backup/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecord() domain.IndexRecord {
	return domain.IndexRecord{
		Platform:    domain.PlatformSponsr,
		Author:      "history",
		PostID:      "1234",
		Title:       "Заголовок",
		Slug:        "2024-03-07-zagolovok",
		PostDate:    time.Date(2024, 3, 7, 10, 30, 0, 0, time.UTC),
		SourceURL:   "https://sponsr.ru/history/1234/",
		RelPath:     "sponsr/history/posts/2024-03-07-zagolovok",
		Tags:        []string{"история", "наука"},
		CommittedAt: time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC),
	}
}

func TestStore_CommitAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	rec := sampleRecord()

	require.NoError(t, s.Commit(ctx, rec))

	got, err := s.Get(ctx, rec.Platform, rec.Author, rec.PostID)
	require.NoError(t, err)
	assert.Equal(t, rec, *got)
}

func TestStore_GetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), domain.PlatformBoosty, "nobody", "0")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_Exists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	rec := sampleRecord()

	ok, err := s.Exists(ctx, rec.Platform, rec.Author, rec.PostID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Commit(ctx, rec))

	ok, err = s.Exists(ctx, rec.Platform, rec.Author, rec.PostID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_CommitIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	rec := sampleRecord()

	require.NoError(t, s.Commit(ctx, rec))
	rec.Title = "Обновлённый заголовок"
	require.NoError(t, s.Commit(ctx, rec))

	got, err := s.Get(ctx, rec.Platform, rec.Author, rec.PostID)
	require.NoError(t, err)
	assert.Equal(t, "Обновлённый заголовок", got.Title)

	recs, err := s.ByAuthor(ctx, rec.Platform, rec.Author)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestStore_ByAuthorScopedAndOrdered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	older := sampleRecord()
	older.PostID = "1"
	older.PostDate = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := sampleRecord()
	newer.PostID = "2"
	newer.PostDate = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	other := sampleRecord()
	other.Author = "science"
	other.PostID = "3"

	require.NoError(t, s.Commit(ctx, older))
	require.NoError(t, s.Commit(ctx, newer))
	require.NoError(t, s.Commit(ctx, other))

	recs, err := s.ByAuthor(ctx, domain.PlatformSponsr, "history")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "2", recs[0].PostID)
	assert.Equal(t, "1", recs[1].PostID)
}

func TestStore_SyncState(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetSyncState(ctx, domain.PlatformBoosty, "author")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	state := domain.SyncState{
		Platform:         domain.PlatformBoosty,
		Author:           "author",
		FullSyncComplete: true,
		LastSyncAt:       time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.SetSyncState(ctx, state))

	got, err := s.GetSyncState(ctx, domain.PlatformBoosty, "author")
	require.NoError(t, err)
	assert.Equal(t, state, *got)

	// Update overwrites.
	state.LastSyncAt = state.LastSyncAt.Add(time.Hour)
	require.NoError(t, s.SetSyncState(ctx, state))
	got, err = s.GetSyncState(ctx, domain.PlatformBoosty, "author")
	require.NoError(t, err)
	assert.Equal(t, state.LastSyncAt, got.LastSyncAt)
}

func TestStore_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	rec := sampleRecord()

	s, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Commit(ctx, rec))
	require.NoError(t, s.Close())

	s, err = NewStore(dir)
	require.NoError(t, err)
	defer s.Close()

	ok, err := s.Exists(ctx, rec.Platform, rec.Author, rec.PostID)
	require.NoError(t, err)
	assert.True(t, ok)
}
