// Package sqlite implements the archive index on SQLite. One database
// file holds the committed posts and per-author sync checkpoints; WAL
// mode keeps readers working while the sync loop commits.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/strannick-ru/article-backup/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/strannick-ru/article-backup/internal/core/domain"
	"github.com/strannick-ru/article-backup/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.Index = (*Store)(nil)

// dbFileName is the index database file inside the archive root.
const dbFileName = "archive.db"

// Store is the SQLite-backed archive index.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the index database inside dataDir and
// applies pending migrations.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFileName)

	// WAL mode for concurrency between the sync loop and readers
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// Exists reports whether a post has been committed.
func (s *Store) Exists(ctx context.Context, platform domain.Platform, author, postID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM posts WHERE platform = ? AND author = ? AND post_id = ?",
		string(platform), author, postID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking post: %w", err)
	}
	return true, nil
}

// Commit writes an index record, replacing any previous one.
func (s *Store) Commit(ctx context.Context, rec domain.IndexRecord) error {
	tags, err := json.Marshal(rec.Tags)
	if err != nil {
		return fmt.Errorf("marshaling tags: %w", err)
	}
	if rec.CommittedAt.IsZero() {
		rec.CommittedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO posts
			(platform, author, post_id, title, slug, post_date, source_url, rel_path, tags, committed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(rec.Platform), rec.Author, rec.PostID,
		rec.Title, rec.Slug, rec.PostDate.UTC().Format(time.RFC3339),
		rec.SourceURL, rec.RelPath, string(tags),
		rec.CommittedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("committing post: %w", err)
	}
	return nil
}

// Get retrieves one committed record.
func (s *Store) Get(ctx context.Context, platform domain.Platform, author, postID string) (*domain.IndexRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT platform, author, post_id, title, slug, post_date, source_url, rel_path, tags, committed_at
		FROM posts WHERE platform = ? AND author = ? AND post_id = ?`,
		string(platform), author, postID)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting post: %w", err)
	}
	return rec, nil
}

// ByAuthor returns every committed record for one (platform, author),
// newest post first.
func (s *Store) ByAuthor(ctx context.Context, platform domain.Platform, author string) ([]domain.IndexRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT platform, author, post_id, title, slug, post_date, source_url, rel_path, tags, committed_at
		FROM posts WHERE platform = ? AND author = ?
		ORDER BY post_date DESC`,
		string(platform), author)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	defer rows.Close()

	var recs []domain.IndexRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning post: %w", err)
		}
		recs = append(recs, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	return recs, nil
}

// GetSyncState retrieves the sync checkpoint for one (platform, author).
func (s *Store) GetSyncState(ctx context.Context, platform domain.Platform, author string) (*domain.SyncState, error) {
	var (
		state    domain.SyncState
		complete int
		lastSync string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT full_sync_complete, last_sync_at FROM sync_state WHERE platform = ? AND author = ?",
		string(platform), author).Scan(&complete, &lastSync)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting sync state: %w", err)
	}

	state.Platform = platform
	state.Author = author
	state.FullSyncComplete = complete != 0
	if state.LastSyncAt, err = time.Parse(time.RFC3339, lastSync); err != nil {
		return nil, fmt.Errorf("parsing last_sync_at: %w", err)
	}
	return &state, nil
}

// SetSyncState stores or updates the sync checkpoint.
func (s *Store) SetSyncState(ctx context.Context, state domain.SyncState) error {
	complete := 0
	if state.FullSyncComplete {
		complete = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO sync_state (platform, author, full_sync_complete, last_sync_at)
		VALUES (?, ?, ?, ?)`,
		string(state.Platform), state.Author, complete,
		state.LastSyncAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("setting sync state: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*domain.IndexRecord, error) {
	var (
		rec         domain.IndexRecord
		platform    string
		postDate    string
		tags        string
		committedAt string
	)
	err := s.Scan(&platform, &rec.Author, &rec.PostID, &rec.Title, &rec.Slug,
		&postDate, &rec.SourceURL, &rec.RelPath, &tags, &committedAt)
	if err != nil {
		return nil, err
	}

	rec.Platform = domain.Platform(platform)
	if rec.PostDate, err = time.Parse(time.RFC3339, postDate); err != nil {
		return nil, fmt.Errorf("parsing post_date: %w", err)
	}
	if rec.CommittedAt, err = time.Parse(time.RFC3339, committedAt); err != nil {
		return nil, fmt.Errorf("parsing committed_at: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &rec.Tags); err != nil {
		return nil, fmt.Errorf("parsing tags: %w", err)
	}
	return &rec, nil
}
