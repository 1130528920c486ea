// Package llm provides answer generation via an OpenAI-compatible chat API.
package llm

import "context"

// Provider generates text from a system and user prompt.
type Provider interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
