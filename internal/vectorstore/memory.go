package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store using brute-force cosine search.
// Suitable for tests and small deployments without an external vector
// database. The collection's dimension is fixed by the first Add after
// creation or Reset.
type MemoryStore struct {
	mu         sync.RWMutex
	dimensions int
	ids        []string
	vectors    [][]float32
	documents  []string
	metadatas  []map[string]interface{}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Add inserts records, establishing the collection dimension on first use.
func (m *MemoryStore) Add(ctx context.Context, ids []string, vectors [][]float32, documents []string, metadatas []map[string]interface{}) error {
	if len(ids) != len(vectors) || len(ids) != len(documents) || len(ids) != len(metadatas) {
		return fmt.Errorf("ids, vectors, documents, and metadatas length mismatch")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, id := range ids {
		if m.dimensions == 0 {
			if len(vectors[i]) == 0 {
				return fmt.Errorf("empty vector for id %s", id)
			}
			m.dimensions = len(vectors[i])
		}
		if len(vectors[i]) != m.dimensions {
			return &DimensionMismatchError{Got: len(vectors[i]), Expected: m.dimensions}
		}
		vec := make([]float32, m.dimensions)
		copy(vec, vectors[i])
		m.ids = append(m.ids, id)
		m.vectors = append(m.vectors, vec)
		m.documents = append(m.documents, documents[i])
		m.metadatas = append(m.metadatas, metadatas[i])
	}
	return nil
}

// Query returns the k closest records by cosine distance.
func (m *MemoryStore) Query(ctx context.Context, vector []float32, k int) ([]Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if k <= 0 || len(m.ids) == 0 {
		return nil, nil
	}
	if len(vector) != m.dimensions {
		return nil, &DimensionMismatchError{Got: len(vector), Expected: m.dimensions}
	}
	matches := make([]Match, len(m.ids))
	for i, vec := range m.vectors {
		matches[i] = Match{
			ID:       m.ids[i],
			Document: m.documents[i],
			Metadata: m.metadatas[i],
			Distance: 1 - cosineSimilarity(vector, vec),
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k], nil
}

// Get returns IDs whose metadata matches every key/value in filter.
func (m *MemoryStore) Get(ctx context.Context, filter map[string]interface{}) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for i, meta := range m.metadatas {
		if metadataMatches(meta, filter) {
			out = append(out, m.ids[i])
		}
	}
	return out, nil
}

// Delete removes records by ID; unknown IDs are ignored.
func (m *MemoryStore) Delete(ctx context.Context, ids []string) error {
	removeSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		removeSet[id] = true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	newIDs := m.ids[:0:0]
	newVectors := m.vectors[:0:0]
	newDocuments := m.documents[:0:0]
	newMetadatas := m.metadatas[:0:0]
	for i, id := range m.ids {
		if !removeSet[id] {
			newIDs = append(newIDs, id)
			newVectors = append(newVectors, m.vectors[i])
			newDocuments = append(newDocuments, m.documents[i])
			newMetadatas = append(newMetadatas, m.metadatas[i])
		}
	}
	m.ids = newIDs
	m.vectors = newVectors
	m.documents = newDocuments
	m.metadatas = newMetadatas
	return nil
}

// Count returns the number of stored records.
func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids), nil
}

// Reset discards all records and unfixes the collection dimension.
func (m *MemoryStore) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dimensions = 0
	m.ids = nil
	m.vectors = nil
	m.documents = nil
	m.metadatas = nil
	return nil
}

// Close is a no-op for MemoryStore.
func (m *MemoryStore) Close() error { return nil }

func metadataMatches(meta, filter map[string]interface{}) bool {
	for k, want := range filter {
		got, ok := meta[k]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

// cosineSimilarity returns the cosine similarity of a and b.
func cosineSimilarity(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i] * b[i])
		na += float64(a[i] * a[i])
		nb += float64(b[i] * b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
