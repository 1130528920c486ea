package pipeline

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/storage"
)

// Deletion removes a source: its embeddings, its on-disk artifacts, and
// finally its record. Fully idempotent; deleting an unknown or
// already-deleted source returns a zero count and no error.
type Deletion struct {
	vectors   VectorIndex
	sources   storage.SourceStore
	artifacts *storage.Artifacts
	logger    *zap.Logger
}

// NewDeletion wires a deletion pipeline.
func NewDeletion(vectors VectorIndex, sources storage.SourceStore, artifacts *storage.Artifacts, logger *zap.Logger) *Deletion {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deletion{vectors: vectors, sources: sources, artifacts: artifacts, logger: logger}
}

// Run deletes everything belonging to sourceID. Artifact removal is
// best-effort and never blocks removal of the record itself.
func (p *Deletion) Run(ctx context.Context, sourceID string) (*DeletionResult, error) {
	deleted, err := p.vectors.DeleteSource(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	src, err := p.sources.GetSource(ctx, sourceID)
	if err != nil {
		var notFound *storage.NotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		// No record: nothing further to clean up.
		return &DeletionResult{SourceID: sourceID, DeletedCount: deleted}, nil
	}

	if p.artifacts != nil {
		p.artifacts.Remove(src)
	}
	if err := p.sources.DeleteSource(ctx, sourceID); err != nil {
		return nil, err
	}

	p.logger.Info("source deleted",
		zap.String("source_id", sourceID),
		zap.Int("deleted_embeddings", deleted),
	)
	return &DeletionResult{SourceID: sourceID, DeletedCount: deleted}, nil
}
