package domain

import "context"

// CompletionRequest is one single-turn system+user exchange.
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	MaxTokens    int
	Model        string // empty means the client default
}

// LLMClient sends a completion to a language model backend.
type LLMClient interface {
	Name() string
	// Ready returns a *ConfigurationError when the client cannot be used,
	// without performing any network call.
	Ready() error
	// Complete returns the first choice's text. Failures are *ProviderError.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
