package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/chunker"
	"github.com/hyperjump/kotae/internal/cleaner"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/storage"
)

// Loader produces raw text for a source.
type Loader interface {
	Load(ctx context.Context, src *models.Source) (string, error)
}

// Embedder embeds a batch of texts.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorIndex is the slice of the vector store the pipelines use.
type VectorIndex interface {
	Add(ctx context.Context, records []models.EmbeddingRecord) error
	DeleteSource(ctx context.Context, sourceID string) (int, error)
}

// Ingestion runs the staged flow Load -> Clean -> Chunk -> Embed -> Persist
// for one source. Each Run owns its state exclusively; concurrent runs for
// different sources do not interact beyond source_id-scoped vector writes.
type Ingestion struct {
	loader    Loader
	chunker   *chunker.Chunker
	embedder  Embedder
	vectors   VectorIndex
	sources   storage.SourceStore
	artifacts *storage.Artifacts
	logger    *zap.Logger
}

// NewIngestion wires an ingestion pipeline from its collaborators.
func NewIngestion(
	loader Loader,
	ch *chunker.Chunker,
	embedder Embedder,
	vectors VectorIndex,
	sources storage.SourceStore,
	artifacts *storage.Artifacts,
	logger *zap.Logger,
) *Ingestion {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestion{
		loader:    loader,
		chunker:   ch,
		embedder:  embedder,
		vectors:   vectors,
		sources:   sources,
		artifacts: artifacts,
		logger:    logger,
	}
}

// Run executes the full pipeline for src and returns the terminal state.
// It never returns an error: stage failures are captured in the state and
// recorded on the source, and the final persist always runs.
func (p *Ingestion) Run(ctx context.Context, src *models.Source) *IngestionState {
	state := &IngestionState{Source: src}
	state = p.load(ctx, state)
	state = p.clean(state)
	state = p.chunk(state)
	state = p.embed(ctx, state)
	return p.persist(ctx, state)
}

func (p *Ingestion) load(ctx context.Context, state *IngestionState) *IngestionState {
	if state.failed() {
		return state
	}
	text, err := p.loader.Load(ctx, state.Source)
	if err != nil {
		return state.fail(err)
	}
	state.RawText = text
	return state
}

func (p *Ingestion) clean(state *IngestionState) *IngestionState {
	if state.failed() {
		return state
	}
	cleaned := cleaner.Clean(state.RawText)
	if cleaned == "" {
		return state.fail(&EmptyContentError{SourceID: state.Source.ID})
	}
	state.Text = cleaned
	state.Source.TextLength = len(cleaned)
	return state
}

func (p *Ingestion) chunk(state *IngestionState) *IngestionState {
	if state.failed() {
		return state
	}
	chunks := p.chunker.Chunk(state.Source.ID, state.Text)
	if len(chunks) == 0 {
		return state.fail(&ChunkingError{SourceID: state.Source.ID})
	}
	state.Chunks = chunks
	state.Source.ChunkCount = len(chunks)
	return state
}

func (p *Ingestion) embed(ctx context.Context, state *IngestionState) *IngestionState {
	if state.failed() {
		return state
	}
	texts := make([]string, len(state.Chunks))
	for i, c := range state.Chunks {
		texts[i] = c.Text
	}
	vectors, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return state.fail(err)
	}
	state.Vectors = vectors
	state.Source.EmbeddedCount = len(vectors)
	state.Source.Status = models.StatusCompleted
	return state
}

// persist runs unconditionally. On a successful run it writes the
// embedding records and the chunk cache; in every case it records the
// terminal source metadata. Its own failures are logged, never raised:
// the pipeline boundary always returns a terminal state.
func (p *Ingestion) persist(ctx context.Context, state *IngestionState) *IngestionState {
	src := state.Source
	if !state.failed() {
		records := make([]models.EmbeddingRecord, len(state.Chunks))
		for i, c := range state.Chunks {
			records[i] = models.EmbeddingRecord{
				ChunkID:  c.ID,
				Vector:   state.Vectors[i],
				Document: c.Text,
				Metadata: recordMetadata(src, c.Index),
			}
		}
		if err := p.vectors.Add(ctx, records); err != nil {
			state.fail(err)
		} else if p.artifacts != nil {
			if err := p.artifacts.WriteChunkCache(src.ID, state.Chunks); err != nil {
				p.logger.Warn("failed to write chunk cache",
					zap.String("source_id", src.ID),
					zap.Error(err),
				)
			}
		}
	}

	now := time.Now()
	src.CompletedAt = &now
	if err := p.sources.UpdateSource(ctx, src); err != nil {
		p.logger.Error("failed to persist source metadata",
			zap.String("source_id", src.ID),
			zap.String("status", src.Status),
			zap.Error(err),
		)
	}

	if state.failed() {
		p.logger.Warn("ingestion failed",
			zap.String("source_id", src.ID),
			zap.Error(state.Err),
		)
	} else {
		p.logger.Info("ingestion completed",
			zap.String("source_id", src.ID),
			zap.Int("chunks", src.ChunkCount),
			zap.Int("text_length", src.TextLength),
		)
	}
	return state
}

// recordMetadata builds the metadata stored with each embedding record.
func recordMetadata(src *models.Source, chunkIndex int) map[string]interface{} {
	meta := map[string]interface{}{
		"source_id":   src.ID,
		"source_type": string(src.Type),
		"chunk_index": chunkIndex,
	}
	if src.Filename != "" {
		meta["filename"] = src.Filename
	}
	if src.Type == models.SourceTypeLink {
		meta["url"] = src.Origin
	} else {
		meta["path"] = src.Origin
	}
	return meta
}
