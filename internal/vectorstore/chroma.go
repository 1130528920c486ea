package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ChromaStore is a minimal REST client for a Chroma server, managing one
// named collection created with cosine distance.
type ChromaStore struct {
	baseURL    string
	collection string
	client     *http.Client

	mu           sync.Mutex
	collectionID string
}

// ChromaConfig configures a ChromaStore.
type ChromaConfig struct {
	URL        string // e.g. http://localhost:8000
	Collection string
	Timeout    time.Duration
}

// NewChromaStore creates a client for the Chroma server at cfg.URL.
// The collection is created lazily on first use.
func NewChromaStore(cfg ChromaConfig) *ChromaStore {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	collection := cfg.Collection
	if collection == "" {
		collection = "documents"
	}
	return &ChromaStore{
		baseURL:    strings.TrimSuffix(cfg.URL, "/") + "/api/v1",
		collection: collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// ensureCollection creates the collection if needed and caches its ID.
func (s *ChromaStore) ensureCollection(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collectionID != "" {
		return s.collectionID, nil
	}
	body := map[string]interface{}{
		"name":          s.collection,
		"metadata":      map[string]interface{}{"hnsw:space": "cosine"},
		"get_or_create": true,
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := s.postJSON(ctx, s.baseURL+"/collections", body, &out); err != nil {
		return "", fmt.Errorf("ensure collection: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("ensure collection: server returned no collection id")
	}
	s.collectionID = out.ID
	return s.collectionID, nil
}

// Add inserts records into the collection.
func (s *ChromaStore) Add(ctx context.Context, ids []string, vectors [][]float32, documents []string, metadatas []map[string]interface{}) error {
	id, err := s.ensureCollection(ctx)
	if err != nil {
		return err
	}
	body := map[string]interface{}{
		"ids":        ids,
		"embeddings": vectors,
		"documents":  documents,
		"metadatas":  metadatas,
	}
	if err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/add", s.baseURL, id), body, nil); err != nil {
		return classifyChromaError(err)
	}
	return nil
}

// Query returns up to k matches ranked by ascending cosine distance.
func (s *ChromaStore) Query(ctx context.Context, vector []float32, k int) ([]Match, error) {
	if k <= 0 {
		return nil, nil
	}
	id, err := s.ensureCollection(ctx)
	if err != nil {
		return nil, err
	}
	body := map[string]interface{}{
		"query_embeddings": [][]float32{vector},
		"n_results":        k,
		"include":          []string{"documents", "metadatas", "distances"},
	}
	var out struct {
		IDs       [][]string                 `json:"ids"`
		Documents [][]string                 `json:"documents"`
		Metadatas [][]map[string]interface{} `json:"metadatas"`
		Distances [][]float64                `json:"distances"`
	}
	if err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/query", s.baseURL, id), body, &out); err != nil {
		return nil, classifyChromaError(err)
	}
	if len(out.IDs) == 0 {
		return nil, nil
	}
	matches := make([]Match, 0, len(out.IDs[0]))
	for i, matchID := range out.IDs[0] {
		m := Match{ID: matchID}
		if len(out.Documents) > 0 && i < len(out.Documents[0]) {
			m.Document = out.Documents[0][i]
		}
		if len(out.Metadatas) > 0 && i < len(out.Metadatas[0]) {
			m.Metadata = out.Metadatas[0][i]
		}
		if len(out.Distances) > 0 && i < len(out.Distances[0]) {
			m.Distance = out.Distances[0][i]
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// Get returns IDs of records whose metadata matches filter.
func (s *ChromaStore) Get(ctx context.Context, filter map[string]interface{}) ([]string, error) {
	id, err := s.ensureCollection(ctx)
	if err != nil {
		return nil, err
	}
	body := map[string]interface{}{"where": filter}
	var out struct {
		IDs []string `json:"ids"`
	}
	if err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/get", s.baseURL, id), body, &out); err != nil {
		return nil, err
	}
	return out.IDs, nil
}

// Delete removes records by ID.
func (s *ChromaStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	id, err := s.ensureCollection(ctx)
	if err != nil {
		return err
	}
	body := map[string]interface{}{"ids": ids}
	return s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/delete", s.baseURL, id), body, nil)
}

// Count returns the number of records in the collection.
func (s *ChromaStore) Count(ctx context.Context) (int, error) {
	id, err := s.ensureCollection(ctx)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/collections/%s/count", s.baseURL, id), nil)
	if err != nil {
		return 0, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	defer resp.Body.Close()
	payload, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("count: chroma %d: %s", resp.StatusCode, string(payload))
	}
	var n int
	if err := json.Unmarshal(payload, &n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// Reset drops and recreates the collection, discarding all records.
func (s *ChromaStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.collectionID = ""
	s.mu.Unlock()
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, fmt.Sprintf("%s/collections/%s", s.baseURL, s.collection), nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	defer resp.Body.Close()
	// 404 means the collection did not exist; recreation below still applies.
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		payload, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("reset: chroma %d: %s", resp.StatusCode, string(payload))
	}
	_, err = s.ensureCollection(ctx)
	return err
}

// Close is a no-op for ChromaStore.
func (s *ChromaStore) Close() error { return nil }

func (s *ChromaStore) postJSON(ctx context.Context, url string, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("chroma %d: %s", resp.StatusCode, string(payload))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// classifyChromaError converts Chroma's dimension-mismatch message into a
// DimensionMismatchError so the adapter can apply its recreate policy.
func classifyChromaError(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "dimension") {
		return &DimensionMismatchError{Cause: err}
	}
	return err
}
