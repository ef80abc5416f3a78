package generator

import "context"

// LLMClient is the only boundary to the external language model. A non-nil
// prompt.Shape asks the implementation to constrain output to JSON of that
// shape where it can; the caller validates the text either way.
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
	Name() string
}

// LLMSettings is the provider-independent configuration passed to client constructors.
type LLMSettings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// DefaultGeminiModel is used when no model is configured for the gemini provider.
const DefaultGeminiModel = "gemini-2.5-flash"
