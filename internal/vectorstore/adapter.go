package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/kotae/internal/models"
	"go.uber.org/zap"
)

// Adapter is a dimension-aware wrapper over a Store. On a dimension mismatch
// during Add it drops and recreates the collection, then retries the Add
// exactly once; a second mismatch is fatal. The recreate discards every
// record in the collection, so it is logged loudly before it happens.
type Adapter struct {
	store  Store
	dims   int
	logger *zap.Logger
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithLogger sets a logger for recreate and delete events.
func WithLogger(l *zap.Logger) AdapterOption {
	return func(a *Adapter) { a.logger = l }
}

// NewAdapter creates an adapter expecting vectors of expectedDims.
func NewAdapter(store Store, expectedDims int, opts ...AdapterOption) *Adapter {
	a := &Adapter{store: store, dims: expectedDims}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Dimensions returns the expected vector dimension.
func (a *Adapter) Dimensions() int { return a.dims }

// Add persists records. A dimension mismatch triggers one destructive
// collection recreate followed by a single retry.
func (a *Adapter) Add(ctx context.Context, records []models.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}
	ids := make([]string, len(records))
	vectors := make([][]float32, len(records))
	documents := make([]string, len(records))
	metadatas := make([]map[string]interface{}, len(records))
	for i, rec := range records {
		ids[i] = rec.ChunkID
		vectors[i] = rec.Vector
		documents[i] = rec.Document
		metadatas[i] = rec.Metadata
	}

	err := a.store.Add(ctx, ids, vectors, documents, metadatas)
	var dimErr *DimensionMismatchError
	if !errors.As(err, &dimErr) {
		return err
	}
	if a.logger != nil {
		a.logger.Warn("collection dimension mismatch, recreating collection (all existing records will be lost)",
			zap.Int("expected_dimensions", a.dims),
			zap.Error(err),
		)
	}
	if resetErr := a.store.Reset(ctx); resetErr != nil {
		return fmt.Errorf("recreate collection after dimension mismatch: %w", resetErr)
	}
	// Retry exactly once; a second mismatch propagates as fatal.
	return a.store.Add(ctx, ids, vectors, documents, metadatas)
}

// Query returns up to topK matches for vector. Querying an empty collection
// returns no matches and no error; topK is clamped to the collection size.
func (a *Adapter) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	if topK <= 0 {
		return nil, nil
	}
	count, err := a.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count collection: %w", err)
	}
	if count == 0 {
		return nil, nil
	}
	if topK > count {
		topK = count
	}
	return a.store.Query(ctx, vector, topK)
}

// DeleteSource removes every record whose source_id metadata matches
// sourceID and returns how many were removed. Idempotent: deleting a source
// with no records returns 0, not an error.
func (a *Adapter) DeleteSource(ctx context.Context, sourceID string) (int, error) {
	ids, err := a.store.Get(ctx, map[string]interface{}{"source_id": sourceID})
	if err != nil {
		return 0, fmt.Errorf("lookup records for source %s: %w", sourceID, err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := a.store.Delete(ctx, ids); err != nil {
		return 0, fmt.Errorf("delete records for source %s: %w", sourceID, err)
	}
	if a.logger != nil {
		a.logger.Debug("deleted source embeddings", zap.String("source_id", sourceID), zap.Int("count", len(ids)))
	}
	return len(ids), nil
}

// Count returns the number of records in the collection.
func (a *Adapter) Count(ctx context.Context) (int, error) {
	return a.store.Count(ctx)
}

// Close closes the underlying store.
func (a *Adapter) Close() error { return a.store.Close() }
