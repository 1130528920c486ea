package watcher

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/pipeline"
	"github.com/hyperjump/kotae/internal/storage"
)

// IngestRunner runs the ingestion pipeline for a source.
type IngestRunner interface {
	Run(ctx context.Context, src *models.Source) *pipeline.IngestionState
}

// DeleteRunner removes a source and everything derived from it.
type DeleteRunner interface {
	Run(ctx context.Context, sourceID string) (*pipeline.DeletionResult, error)
}

// Bridge turns watcher file events into pipeline runs. A changed file is
// ingested as a file source; an unchanged file (same content hash as the
// existing source for that path) is skipped; a replaced file deletes the
// stale source first. Removed files are deleted end to end.
type Bridge struct {
	sources   storage.SourceStore
	ingestion IngestRunner
	deletion  DeleteRunner
	logger    *zap.Logger
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithBridgeLogger sets the logger.
func WithBridgeLogger(l *zap.Logger) BridgeOption {
	return func(b *Bridge) { b.logger = l }
}

// NewBridge creates a bridge over the given store and pipelines.
func NewBridge(sources storage.SourceStore, ingestion IngestRunner, deletion DeleteRunner, opts ...BridgeOption) *Bridge {
	b := &Bridge{
		sources:   sources,
		ingestion: ingestion,
		deletion:  deletion,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// HandleChange ingests the file at path, replacing any existing source
// for the same path whose content has changed. Safe to pass as the
// watcher's onChange callback.
func (b *Bridge) HandleChange(path string) {
	ctx := context.Background()

	hash, err := fileMD5(path)
	if err != nil {
		b.logger.Warn("watched file unreadable", zap.String("path", path), zap.Error(err))
		return
	}

	existing, err := b.sources.FindSourceByOrigin(ctx, path)
	switch {
	case err == nil:
		if existing.ContentHash == hash {
			b.logger.Debug("watched file unchanged", zap.String("path", path), zap.String("source_id", existing.ID))
			return
		}
		if _, err := b.deletion.Run(ctx, existing.ID); err != nil {
			b.logger.Warn("failed to delete stale source",
				zap.String("path", path), zap.String("source_id", existing.ID), zap.Error(err))
		}
	case isNotFound(err):
		// First sighting of this path.
	default:
		b.logger.Warn("source lookup failed", zap.String("path", path), zap.Error(err))
		return
	}

	src := &models.Source{
		ID:          uuid.New().String(),
		Type:        models.SourceTypeFile,
		Filename:    filepath.Base(path),
		Origin:      path,
		ContentHash: hash,
		Status:      models.StatusProcessing,
		CreatedAt:   time.Now(),
	}
	if err := b.sources.CreateSource(ctx, src); err != nil {
		b.logger.Error("failed to create source record", zap.String("path", path), zap.Error(err))
		return
	}
	b.logger.Info("watched file queued for ingestion",
		zap.String("path", path), zap.String("source_id", src.ID))
	b.ingestion.Run(ctx, src)
}

// HandleRemove deletes the source ingested from path, if any. Safe to
// pass as the watcher's onRemove callback.
func (b *Bridge) HandleRemove(path string) {
	ctx := context.Background()

	existing, err := b.sources.FindSourceByOrigin(ctx, path)
	if err != nil {
		if !isNotFound(err) {
			b.logger.Warn("source lookup failed", zap.String("path", path), zap.Error(err))
		}
		return
	}
	result, err := b.deletion.Run(ctx, existing.ID)
	if err != nil {
		b.logger.Error("failed to delete source for removed file",
			zap.String("path", path), zap.String("source_id", existing.ID), zap.Error(err))
		return
	}
	b.logger.Info("watched file removed",
		zap.String("path", path),
		zap.String("source_id", existing.ID),
		zap.Int("deleted_chunks", result.DeletedCount),
	)
}

func isNotFound(err error) bool {
	var notFound *storage.NotFoundError
	return errors.As(err, &notFound)
}

func fileMD5(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
