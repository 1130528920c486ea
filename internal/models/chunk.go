package models

// Chunk is a contiguous, possibly overlapping window of a source's text.
// Immutable once created. ID is "<source_id>_<index>" with index dense over
// the retained windows.
type Chunk struct {
	ID       string `json:"chunk_id"`
	SourceID string `json:"source_id"`
	Text     string `json:"text"`
	Index    int    `json:"index"`
}

// EmbeddingRecord is a chunk plus its vector and the metadata persisted into
// the vector store. Identity is the chunk ID.
type EmbeddingRecord struct {
	ChunkID  string                 `json:"chunk_id"`
	Vector   []float32              `json:"-"`
	Document string                 `json:"document"`
	Metadata map[string]interface{} `json:"metadata"`
}

// RetrievedChunk is a single nearest-neighbor hit for a query. Score is
// 1 - cosine distance, so higher is better. Ephemeral, produced per query.
type RetrievedChunk struct {
	ChunkID  string                 `json:"chunk_id"`
	Text     string                 `json:"text"`
	Score    float64                `json:"score"`
	SourceID string                 `json:"source_id"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// SourceGroup aggregates retrieved chunks sharing one source_id.
// Groups keep the first-encounter order of distinct source IDs as returned
// by retrieval; that order becomes citation order.
type SourceGroup struct {
	SourceID    string
	Chunks      []RetrievedChunk
	MaxScore    float64
	DisplayName string
	SourceType  string
}

// Citation is a numbered reference to a distinct source surfaced in a
// synthesized answer. Numbers are 1..N, dense, in group order.
type Citation struct {
	Number     int     `json:"citation_number"`
	SourceID   string  `json:"source_id"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	URLOrPath  string  `json:"url_or_path"`
	Score      float64 `json:"relevance_score"`
	ChunkCount int     `json:"chunk_count"`
	Preview    string  `json:"preview,omitempty"`
}
