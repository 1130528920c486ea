package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/llm"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/vectorstore"
)

func newTestSynthesizer(t *testing.T, generator llm.Provider, sources map[string][]string) *Synthesizer {
	t.Helper()
	ctx := context.Background()
	provider := embedding.NewMockProvider(8)
	adapter := vectorstore.NewAdapter(vectorstore.NewMemoryStore(), 8)

	for sourceID, texts := range sources {
		records := make([]models.EmbeddingRecord, len(texts))
		for i, text := range texts {
			vec, err := provider.EmbedOne(ctx, text)
			if err != nil {
				t.Fatal(err)
			}
			records[i] = models.EmbeddingRecord{
				ChunkID:  sourceID + "_" + string(rune('0'+i)),
				Vector:   vec,
				Document: text,
				Metadata: map[string]interface{}{
					"source_id":   sourceID,
					"source_type": "file",
					"filename":    sourceID + ".txt",
				},
			}
		}
		if err := adapter.Add(ctx, records); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	retriever := NewRetriever(provider, adapter)
	return NewSynthesizer(retriever, generator)
}

func TestSplitReasoning_WithBoundary(t *testing.T) {
	response := `Some preamble.
Step 1: Look at source [1].
Step 2: Compare with [2].
Step 3: Conclude.
Final answer: The library uses cosine distance [1].`

	reasoning, answer := splitReasoning(response)
	if !strings.HasPrefix(reasoning, "Step 1:") {
		t.Errorf("reasoning = %q", reasoning)
	}
	if strings.Contains(reasoning, "Final answer:") {
		t.Errorf("boundary leaked into reasoning: %q", reasoning)
	}
	if answer != "The library uses cosine distance [1]." {
		t.Errorf("answer = %q", answer)
	}
}

func TestSplitReasoning_EarliestBoundaryWins(t *testing.T) {
	response := "Step 1: Think.\nTherefore: short conclusion.\nFinal answer: late conclusion."
	reasoning, answer := splitReasoning(response)
	if reasoning != "Step 1: Think." {
		t.Errorf("reasoning = %q", reasoning)
	}
	if answer != "short conclusion.\nFinal answer: late conclusion." {
		t.Errorf("answer = %q", answer)
	}
}

func TestSplitReasoning_NoBoundaryMarker(t *testing.T) {
	response := "Step 1: Examine the context.\nStep 2: There is no explicit conclusion marker here."
	reasoning, answer := splitReasoning(response)
	if reasoning != answer {
		t.Errorf("without a boundary the remainder should serve as both; got %q / %q", reasoning, answer)
	}
	if !strings.HasPrefix(reasoning, "Step 1:") {
		t.Errorf("reasoning = %q", reasoning)
	}
}

func TestSplitReasoning_NoReasoningMarker(t *testing.T) {
	response := "The system uses overlapping word windows."
	reasoning, answer := splitReasoning(response)
	if reasoning != fallbackReasoning {
		t.Errorf("reasoning = %q, want fixed fallback", reasoning)
	}
	if answer != response {
		t.Errorf("answer = %q, want raw response", answer)
	}
}

func TestAnswer_ZeroChunks(t *testing.T) {
	generator := &llm.MockProvider{Response: "should never be called"}
	s := newTestSynthesizer(t, generator, nil)

	result, err := s.Answer(context.Background(), "anything at all?", 5)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if result.Answer != noInformationAnswer {
		t.Errorf("answer = %q", result.Answer)
	}
	if result.Reasoning != noInformationReasoning {
		t.Errorf("reasoning = %q", result.Reasoning)
	}
	if len(result.Citations) != 0 {
		t.Errorf("citations = %v, want empty", result.Citations)
	}
	if generator.LastUser != "" {
		t.Error("generator was invoked despite zero retrieved chunks")
	}
}

func TestAnswer_CitesRetrievedSources(t *testing.T) {
	generator := &llm.MockProvider{
		Response: "Step 1: Read [1].\nStep 2: Read more.\nStep 3: Done.\nFinal answer: It works [1].",
	}
	s := newTestSynthesizer(t, generator, map[string][]string{
		"src-a": {"the indexing pipeline embeds chunks"},
		"src-b": {"the query engine ranks by cosine score"},
	})

	result, err := s.Answer(context.Background(), "how does indexing work?", 5)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if result.Answer != "It works [1]." {
		t.Errorf("answer = %q", result.Answer)
	}
	if len(result.Citations) != 2 {
		t.Fatalf("citations = %d, want 2", len(result.Citations))
	}
	if result.Citations[0].Number != 1 || result.Citations[1].Number != 2 {
		t.Errorf("citation numbers = %d, %d", result.Citations[0].Number, result.Citations[1].Number)
	}

	// The generator saw the numbered context blocks.
	if !strings.Contains(generator.LastUser, "[1] file:") {
		t.Errorf("context missing citation markers: %q", generator.LastUser)
	}
	if !strings.Contains(generator.LastUser, "Question: how does indexing work?") {
		t.Errorf("question missing from prompt: %q", generator.LastUser)
	}
}

func TestAnswer_GenerationFailureDegrades(t *testing.T) {
	generator := &llm.MockProvider{Err: errors.New("model overloaded")}
	s := newTestSynthesizer(t, generator, map[string][]string{
		"src-a": {"some indexed content"},
	})

	result, err := s.Answer(context.Background(), "a question", 5)
	if err != nil {
		t.Fatalf("provider failure must not propagate, got %v", err)
	}
	if result.Answer != synthesisFailedAnswer {
		t.Errorf("answer = %q", result.Answer)
	}
	if len(result.Citations) != 0 {
		t.Errorf("citations = %d, want none on a degraded answer", len(result.Citations))
	}
}
