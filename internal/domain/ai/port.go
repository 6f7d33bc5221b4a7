package ai

import "context"

// Client is a generative-text provider.
type Client interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	// Provider is the human readable provider label, e.g. "Google Gemini".
	Provider() string
	Model() string
}
