// Package pipeline implements the staged ingestion and deletion flows that
// turn a source into persisted embeddings and remove them again.
package pipeline

import (
	"fmt"

	"github.com/hyperjump/kotae/internal/models"
)

// EmptyContentError reports that a source produced no usable text after
// cleaning.
type EmptyContentError struct {
	SourceID string
}

func (e *EmptyContentError) Error() string {
	return fmt.Sprintf("source %s: no content after cleaning", e.SourceID)
}

// ChunkingError reports that non-blank text produced zero chunks.
type ChunkingError struct {
	SourceID string
}

func (e *ChunkingError) Error() string {
	return fmt.Sprintf("source %s: chunking produced no chunks", e.SourceID)
}

// IngestionState is threaded through the ingestion stages. Fields
// accumulate as stages run; once Err is set, every later stage passes the
// state through untouched, except the final persist, which always records
// the terminal status.
type IngestionState struct {
	Source  *models.Source
	RawText string
	Text    string
	Chunks  []models.Chunk
	Vectors [][]float32
	Err     error
}

// fail marks the state (and its source) failed. The first error wins.
func (s *IngestionState) fail(err error) *IngestionState {
	if s.Err == nil {
		s.Err = err
		s.Source.Status = models.StatusFailed
		s.Source.Error = err.Error()
	}
	return s
}

// failed reports whether a stage error has been recorded.
func (s *IngestionState) failed() bool { return s.Err != nil }

// DeletionResult is the outcome of one deletion run.
type DeletionResult struct {
	SourceID     string `json:"source_id"`
	DeletedCount int    `json:"deleted_count"`
}
