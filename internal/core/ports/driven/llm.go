// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// LLMService produces completions for review prompts.
//
// Implementations must classify failures so the runner can decide on retries:
//   - domain.ErrLLMConnection for network failures and 5xx responses (transient)
//   - *domain.RateLimitError for 429 responses (transient)
//   - domain.ErrMalformedResponse for empty or undecodable responses (not retried)
//
// Any other error is treated as non-transient.
type LLMService interface {
	// Complete produces text completion from a prompt.
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// CompletionOptions configures text generation behaviour.
type CompletionOptions struct {
	// System is the system prompt. Empty means none.
	System string

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}
