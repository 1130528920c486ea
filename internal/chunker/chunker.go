// Package chunker splits cleaned text into overlapping word-based chunks.
package chunker

import (
	"fmt"
	"strings"

	"github.com/hyperjump/kotae/internal/models"
)

// ErrInvalidOverlap is returned when overlap is not smaller than chunk size.
var ErrInvalidOverlap = fmt.Errorf("chunk overlap must be smaller than chunk size")

// Chunker splits text into overlapping word windows of a fixed size.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// New creates a chunker with the given size and overlap (in words).
// Returns an error if chunkSize is not positive or overlap >= chunkSize.
func New(chunkSize, chunkOverlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("%w: size %d, overlap %d", ErrInvalidOverlap, chunkSize, chunkOverlap)
	}
	return &Chunker{chunkSize: chunkSize, chunkOverlap: chunkOverlap}, nil
}

// Chunk splits text into windows starting at word offsets 0, step, 2*step, ...
// where step = chunkSize - chunkOverlap. Each window spans chunkSize words,
// clipped to the end of the text; the last window may be shorter. Windows that
// are blank after trimming are dropped, and chunk indices are assigned densely
// over the retained windows. Blank input yields nil, not an error.
func (c *Chunker) Chunk(sourceID, text string) []models.Chunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	step := c.chunkSize - c.chunkOverlap
	chunks := make([]models.Chunk, 0, (len(words)+step-1)/step)
	for i := 0; i < len(words); i += step {
		end := i + c.chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunkText := strings.TrimSpace(strings.Join(words[i:end], " "))
		if chunkText != "" {
			index := len(chunks)
			chunks = append(chunks, models.Chunk{
				ID:       fmt.Sprintf("%s_%d", sourceID, index),
				SourceID: sourceID,
				Text:     chunkText,
				Index:    index,
			})
		}
		if end >= len(words) {
			break
		}
	}
	return chunks
}

// Size returns the configured window size in words.
func (c *Chunker) Size() int { return c.chunkSize }

// Overlap returns the configured window overlap in words.
func (c *Chunker) Overlap() int { return c.chunkOverlap }
