// Package vectorstore provides vector persistence and nearest-neighbor
// lookup behind a store capability, plus a dimension-aware adapter.
package vectorstore

import (
	"context"
	"fmt"
)

// Match is one ranked query hit. Distance is cosine distance in [0,2];
// lower is closer.
type Match struct {
	ID       string
	Document string
	Metadata map[string]interface{}
	Distance float64
}

// Store is the vector store capability: a single collection of embedded
// documents keyed by ID. Implementations must support concurrent
// add/query/delete.
type Store interface {
	// Add inserts records. ids, vectors, documents, and metadatas are
	// parallel slices.
	Add(ctx context.Context, ids []string, vectors [][]float32, documents []string, metadatas []map[string]interface{}) error
	// Query returns up to k matches ranked by ascending distance.
	Query(ctx context.Context, vector []float32, k int) ([]Match, error)
	// Get returns the IDs of records whose metadata matches filter exactly.
	Get(ctx context.Context, filter map[string]interface{}) ([]string, error)
	// Delete removes records by ID. Unknown IDs are ignored.
	Delete(ctx context.Context, ids []string) error
	// Count returns the number of records in the collection.
	Count(ctx context.Context) (int, error)
	// Reset drops and recreates the collection, discarding all records.
	Reset(ctx context.Context) error
	Close() error
}

// DimensionMismatchError reports vectors whose length disagrees with the
// collection's stored dimension. Got/Expected may be zero when the backing
// store reports the mismatch only as a message.
type DimensionMismatchError struct {
	Got      int
	Expected int
	Cause    error
}

func (e *DimensionMismatchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("vector dimension mismatch: %v", e.Cause)
	}
	return fmt.Sprintf("vector dimension mismatch: got %d, expected %d", e.Got, e.Expected)
}

func (e *DimensionMismatchError) Unwrap() error { return e.Cause }
