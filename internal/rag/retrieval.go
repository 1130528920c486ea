// Package rag implements retrieval, citation assembly, and answer
// synthesis over the embedded chunk collection.
package rag

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/vectorstore"
)

// QuestionEmbedder embeds a single question.
type QuestionEmbedder interface {
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

// Retriever performs nearest-neighbor chunk lookup for a question.
type Retriever struct {
	embedder QuestionEmbedder
	index    *vectorstore.Adapter
	cache    *embedding.Cache
	logger   *zap.Logger
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithQueryCache caches question embeddings so repeated questions skip the
// provider call.
func WithQueryCache(c *embedding.Cache) RetrieverOption {
	return func(r *Retriever) { r.cache = c }
}

// WithRetrieverLogger sets a logger for retrieval events.
func WithRetrieverLogger(l *zap.Logger) RetrieverOption {
	return func(r *Retriever) { r.logger = l }
}

// NewRetriever creates a retriever over the given index.
func NewRetriever(embedder QuestionEmbedder, index *vectorstore.Adapter, opts ...RetrieverOption) *Retriever {
	r := &Retriever{embedder: embedder, index: index, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve returns up to topK chunks ranked by score (1 - cosine
// distance). An empty collection or non-positive topK yields an empty
// result, never an error.
func (r *Retriever) Retrieve(ctx context.Context, question string, topK int) ([]models.RetrievedChunk, error) {
	if topK <= 0 {
		return nil, nil
	}

	vector, err := r.embedQuestion(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	matches, err := r.index.Query(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	if len(matches) == 0 {
		return nil, nil
	}

	chunks := make([]models.RetrievedChunk, 0, len(matches))
	for _, m := range matches {
		chunk := models.RetrievedChunk{
			ChunkID:  m.ID,
			Text:     m.Document,
			Score:    1 - m.Distance,
			Metadata: m.Metadata,
		}
		if sid, ok := m.Metadata["source_id"].(string); ok {
			chunk.SourceID = sid
		}
		chunks = append(chunks, chunk)
	}

	r.logger.Debug("retrieved chunks",
		zap.String("question", question),
		zap.Int("count", len(chunks)),
	)
	return chunks, nil
}

func (r *Retriever) embedQuestion(ctx context.Context, question string) ([]float32, error) {
	if r.cache != nil {
		if vector, ok := r.cache.Get(question); ok {
			return vector, nil
		}
	}
	vector, err := r.embedder.EmbedOne(ctx, question)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		r.cache.Set(question, vector)
	}
	return vector, nil
}
