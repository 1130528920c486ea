// Package models defines core data structures for sources, chunks, and answers.
package models

import "time"

// SourceType distinguishes uploaded files from submitted links.
type SourceType string

const (
	SourceTypeFile SourceType = "file"
	SourceTypeLink SourceType = "link"
)

// Source processing statuses.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Source represents one ingested unit of content (a file or a link).
// It is created when an upload request is accepted and mutated by each
// pipeline stage until it reaches a terminal status.
type Source struct {
	ID            string     `json:"id" db:"id"`
	Type          SourceType `json:"type" db:"type"`
	Filename      string     `json:"filename,omitempty" db:"filename"`
	Origin        string     `json:"origin" db:"origin"` // file path or URL
	ContentHash   string     `json:"content_hash,omitempty" db:"content_hash"`
	Status        string     `json:"status" db:"status"`
	Error         string     `json:"error,omitempty" db:"error"`
	ChunkCount    int        `json:"chunk_count,omitempty" db:"chunk_count"`
	EmbeddedCount int        `json:"embedded_count,omitempty" db:"embedded_count"`
	TextLength    int        `json:"text_length,omitempty" db:"text_length"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// DisplayName returns the human-readable name for the source: the original
// filename when known, otherwise the origin (path or URL).
func (s *Source) DisplayName() string {
	if s.Filename != "" {
		return s.Filename
	}
	return s.Origin
}
