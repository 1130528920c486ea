package llm

import "context"

// MockProvider returns a canned response, or an error, for tests.
type MockProvider struct {
	Response string
	Err      error
	// LastSystem and LastUser record the prompts from the most recent call.
	LastSystem string
	LastUser   string
}

// Generate returns the configured response or error.
func (m *MockProvider) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.LastSystem = systemPrompt
	m.LastUser = userPrompt
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}
