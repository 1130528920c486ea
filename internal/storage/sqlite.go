package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/kotae/internal/models"
)

// SQLiteStore implements SourceStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and
// initializes the schema. Parent directories are created if they do not
// exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sources (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		filename TEXT,
		origin TEXT NOT NULL,
		content_hash TEXT,
		status TEXT NOT NULL,
		error TEXT,
		chunk_count INTEGER NOT NULL DEFAULT 0,
		embedded_count INTEGER NOT NULL DEFAULT 0,
		text_length INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_sources_created_at ON sources(created_at);
	CREATE INDEX IF NOT EXISTS idx_sources_status ON sources(status);
	CREATE INDEX IF NOT EXISTS idx_sources_origin ON sources(origin);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateSource inserts a source record.
func (s *SQLiteStore) CreateSource(ctx context.Context, src *models.Source) error {
	if src.CreatedAt.IsZero() {
		src.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sources (id, type, filename, origin, content_hash, status, error,
		 chunk_count, embedded_count, text_length, created_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		src.ID, string(src.Type), src.Filename, src.Origin, src.ContentHash,
		src.Status, src.Error, src.ChunkCount, src.EmbeddedCount, src.TextLength,
		src.CreatedAt, src.CompletedAt,
	)
	return err
}

// GetSource returns a source by ID, or NotFoundError.
func (s *SQLiteStore) GetSource(ctx context.Context, id string) (*models.Source, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, type, filename, origin, content_hash, status, error,
		 chunk_count, embedded_count, text_length, created_at, completed_at
		 FROM sources WHERE id = ?`, id,
	)
	src, err := scanSource(row)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{SourceID: id}
	}
	if err != nil {
		return nil, err
	}
	return src, nil
}

// FindSourceByOrigin returns the most recent source whose origin matches
// the given path or URL, or NotFoundError.
func (s *SQLiteStore) FindSourceByOrigin(ctx context.Context, origin string) (*models.Source, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, type, filename, origin, content_hash, status, error,
		 chunk_count, embedded_count, text_length, created_at, completed_at
		 FROM sources WHERE origin = ? ORDER BY created_at DESC LIMIT 1`, origin,
	)
	src, err := scanSource(row)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{SourceID: origin}
	}
	if err != nil {
		return nil, err
	}
	return src, nil
}

// UpdateSource rewrites the mutable fields of an existing source.
func (s *SQLiteStore) UpdateSource(ctx context.Context, src *models.Source) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE sources SET status = ?, error = ?, chunk_count = ?,
		 embedded_count = ?, text_length = ?, content_hash = ?, completed_at = ?
		 WHERE id = ?`,
		src.Status, src.Error, src.ChunkCount, src.EmbeddedCount,
		src.TextLength, src.ContentHash, src.CompletedAt, src.ID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return &NotFoundError{SourceID: src.ID}
	}
	return nil
}

// DeleteSource removes a source record. Deleting an unknown ID is not an
// error.
func (s *SQLiteStore) DeleteSource(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sources WHERE id = ?`, id)
	return err
}

// ListSources returns source records newest first.
func (s *SQLiteStore) ListSources(ctx context.Context, offset, limit int) ([]*models.Source, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, filename, origin, content_hash, status, error,
		 chunk_count, embedded_count, text_length, created_at, completed_at
		 FROM sources ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []*models.Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// CountSources returns the total number of source records.
func (s *SQLiteStore) CountSources(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sources`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSource(row rowScanner) (*models.Source, error) {
	var (
		src         models.Source
		srcType     string
		completedAt sql.NullTime
	)
	err := row.Scan(&src.ID, &srcType, &src.Filename, &src.Origin, &src.ContentHash,
		&src.Status, &src.Error, &src.ChunkCount, &src.EmbeddedCount,
		&src.TextLength, &src.CreatedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	src.Type = models.SourceType(srcType)
	if completedAt.Valid {
		t := completedAt.Time
		src.CompletedAt = &t
	}
	return &src, nil
}
