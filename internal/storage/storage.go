// Package storage persists source records and manages their on-disk
// artifacts (uploads, transcripts, chunk caches).
package storage

import (
	"context"
	"fmt"

	"github.com/hyperjump/kotae/internal/models"
)

// NotFoundError reports a lookup for an unknown source ID.
type NotFoundError struct {
	SourceID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("source not found: %s", e.SourceID)
}

// SourceStore defines durable persistence for source records.
type SourceStore interface {
	CreateSource(ctx context.Context, src *models.Source) error
	GetSource(ctx context.Context, id string) (*models.Source, error)
	// FindSourceByOrigin returns the most recent source for the given
	// path or URL. Returns NotFoundError when none exists.
	FindSourceByOrigin(ctx context.Context, origin string) (*models.Source, error)
	// UpdateSource rewrites the mutable fields of an existing source.
	// Returns NotFoundError when no record exists.
	UpdateSource(ctx context.Context, src *models.Source) error
	DeleteSource(ctx context.Context, id string) error
	ListSources(ctx context.Context, offset, limit int) ([]*models.Source, error)
	CountSources(ctx context.Context) (int64, error)
	Close() error
}
