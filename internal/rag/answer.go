package rag

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/llm"
	"github.com/hyperjump/kotae/internal/models"
)

// Fixed response strings for degraded paths.
const (
	noInformationAnswer    = "I don't have enough information in the ingested sources to answer this question."
	noInformationReasoning = "No relevant chunks were retrieved for this question."
	fallbackReasoning      = "The answer was derived directly from the retrieved sources."
	synthesisFailedAnswer  = "I'm sorry, I was unable to generate an answer right now. Please try again."
)

// reasoningStart marks the beginning of the structured reasoning section.
const reasoningStart = "Step 1:"

// answerBoundaries are scanned, in order of appearance, for the transition
// from reasoning to final answer. The list follows common model phrasing
// and is not exhaustive; when none appears the whole remainder doubles as
// both reasoning and answer.
var answerBoundaries = []string{
	"Final answer:",
	"Answer:",
	"In conclusion:",
	"Therefore:",
	"Based on this analysis:",
	"The answer is:",
}

const systemPrompt = `You are a careful assistant that answers questions using only the provided context.
Cite sources with their [n] markers. If the context does not contain the answer, say so.
Structure your response as explicit reasoning in three steps (starting with "Step 1:"),
followed by "Final answer:" and the answer itself.`

// Synthesizer turns retrieved chunks into a cited answer.
type Synthesizer struct {
	retriever *Retriever
	generator llm.Provider
	logger    *zap.Logger
}

// SynthesizerOption configures a Synthesizer.
type SynthesizerOption func(*Synthesizer)

// WithSynthesizerLogger sets a logger for synthesis events.
func WithSynthesizerLogger(l *zap.Logger) SynthesizerOption {
	return func(s *Synthesizer) { s.logger = l }
}

// NewSynthesizer wires retrieval and generation into the answer engine.
func NewSynthesizer(retriever *Retriever, generator llm.Provider, opts ...SynthesizerOption) *Synthesizer {
	s := &Synthesizer{retriever: retriever, generator: generator, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Answer retrieves chunks for the question, groups them into citations,
// and asks the LLM for a structured reasoning/answer pair. Provider
// failures during generation degrade into a fixed apologetic answer with
// no citations; they are never propagated as errors.
func (s *Synthesizer) Answer(ctx context.Context, question string, topK int) (*models.QueryResult, error) {
	chunks, err := s.retriever.Retrieve(ctx, question, topK)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return &models.QueryResult{
			Answer:    noInformationAnswer,
			Reasoning: noInformationReasoning,
			Citations: []models.Citation{},
		}, nil
	}

	groups := GroupBySource(chunks)
	citations := BuildCitations(groups)
	userPrompt := fmt.Sprintf("Context:\n%s\n\nQuestion: %s", BuildContext(groups), question)

	response, err := s.generator.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		s.logger.Warn("answer generation failed",
			zap.String("question", question),
			zap.Error(err),
		)
		return &models.QueryResult{
			Answer:    synthesisFailedAnswer,
			Reasoning: fallbackReasoning,
			Citations: []models.Citation{},
		}, nil
	}

	reasoning, answer := splitReasoning(response)
	return &models.QueryResult{
		Answer:    answer,
		Reasoning: reasoning,
		Citations: citations,
	}, nil
}

// splitReasoning separates the structured reasoning section from the final
// answer. The reasoning starts at the first "Step 1:"; the answer starts
// at the first boundary marker after that. With a reasoning marker but no
// boundary, the remainder serves as both. With no reasoning marker at all,
// the raw response is the answer and a fixed sentence stands in for the
// reasoning.
func splitReasoning(response string) (reasoning, answer string) {
	response = strings.TrimSpace(response)
	start := strings.Index(response, reasoningStart)
	if start < 0 {
		return fallbackReasoning, response
	}
	rest := response[start:]

	boundaryAt := -1
	var boundary string
	for _, marker := range answerBoundaries {
		// The marker must come after the reasoning start.
		if i := strings.Index(rest, marker); i > 0 && (boundaryAt < 0 || i < boundaryAt) {
			boundaryAt = i
			boundary = marker
		}
	}
	if boundaryAt < 0 {
		return rest, rest
	}
	reasoning = strings.TrimSpace(rest[:boundaryAt])
	answer = strings.TrimSpace(strings.TrimPrefix(rest[boundaryAt:], boundary))
	return reasoning, answer
}
