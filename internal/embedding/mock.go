package embedding

import (
	"context"
	"math"

	"github.com/hyperjump/kotae/pkg/utils"
)

// MockProvider is a deterministic embedder for tests. It returns a
// fixed-dimension vector derived from the text hash so that the same text
// always gets the same embedding.
type MockProvider struct {
	dimensions int
	model      string
}

// NewMockProvider returns a provider producing deterministic embeddings of
// the given dimensions.
func NewMockProvider(dimensions int) *MockProvider {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockProvider{dimensions: dimensions, model: "mock-embedder"}
}

// Model returns the mock model name.
func (m *MockProvider) Model() string { return m.model }

// Dimensions returns the configured dimension.
func (m *MockProvider) Dimensions() int { return m.dimensions }

// EmbedOne returns a deterministic unit-length embedding based on the text hash.
func (m *MockProvider) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	h := hashString(text)
	emb := make([]float32, m.dimensions)
	for i := 0; i < m.dimensions; i++ {
		emb[i] = float32(math.Sin(float64(h*(i+1)))*0.1 + 0.01)
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// EmbedBatch calls EmbedOne for each text.
func (m *MockProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := m.EmbedOne(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// hashString returns a small deterministic hash of s (FNV-1a, truncated).
func hashString(s string) int {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return int(h % 10007)
}
