// Package embedding provides text embedding via an OpenAI-compatible API,
// with retry, backoff, timeout, and dimension validation.
package embedding

import "context"

// Provider produces vector embeddings for text. Calls may fail transiently;
// callers that need reliability should go through Client.
type Provider interface {
	// EmbedBatch embeds texts in one provider call, preserving order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// EmbedOne embeds a single text (used for query embedding).
	EmbedOne(ctx context.Context, text string) ([]float32, error)
	// Model returns the active embedding model name.
	Model() string
	// Dimensions returns the provider-declared vector dimension.
	Dimensions() int
}

// Known model dimensions. Models not listed here fall back to the
// provider-declared default.
var modelDimensions = map[string]int{
	"text-embedding-3-large": 3072,
	"text-embedding-3-small": 1536,
	"text-embedding-ada-002": 1536,
}

// ModelDimensions returns the expected vector dimension for model, falling
// back to fallback when the model is not known.
func ModelDimensions(model string, fallback int) int {
	if d, ok := modelDimensions[model]; ok {
		return d
	}
	return fallback
}
