package models

import "fmt"

// QueryRequest is a question against the ingested sources.
type QueryRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
}

// Validate ensures the request has a question and normalizes TopK.
func (q *QueryRequest) Validate() error {
	if q.Question == "" {
		return fmt.Errorf("question cannot be empty")
	}
	if q.TopK <= 0 {
		q.TopK = 5
	}
	if q.TopK > 50 {
		q.TopK = 50
	}
	return nil
}

// QueryResult is a synthesized answer with its reasoning and citations.
type QueryResult struct {
	Answer    string     `json:"answer"`
	Reasoning string     `json:"reasoning"`
	Citations []Citation `json:"sources"`
}
