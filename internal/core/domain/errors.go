package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown document format or provider.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// Run-fatal errors. These stop a run before any review work is dispatched.

	// ErrDocumentLoad indicates the document could not be loaded or has no paragraphs.
	ErrDocumentLoad = errors.New("document load failed")

	// ErrAgentConfig indicates the agents configuration is invalid.
	ErrAgentConfig = errors.New("invalid agent configuration")

	// Per-pair errors. These become failed findings and never abort the run.

	// ErrRetrieval indicates the retrieval context could not be built.
	ErrRetrieval = errors.New("retrieval failed")

	// ErrIsolation indicates an index was queried by an agent that does not own it.
	ErrIsolation = errors.New("knowledge base isolation violated")

	// ErrLLMConnection indicates a transient failure reaching the LLM backend.
	ErrLLMConnection = errors.New("LLM connection failed")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrMalformedResponse indicates the LLM returned output that cannot be used.
	ErrMalformedResponse = errors.New("malformed LLM response")

	// ErrAggregation indicates a paragraph has no usable findings from any agent.
	ErrAggregation = errors.New("aggregation failed")
)

// RateLimitError is returned by LLM adapters when the backend rejects a
// request with a rate limit. RetryAfter is zero when the backend gave no hint.
type RateLimitError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("rate limited: %v", e.Err)
}

// Unwrap allows errors.Is to match both ErrRateLimited and the cause.
func (e *RateLimitError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrRateLimited}
	}
	return []error{ErrRateLimited, e.Err}
}

// ValidationError describes one invalid field in the agents configuration.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Unwrap returns ErrAgentConfig.
func (e *ValidationError) Unwrap() error {
	return ErrAgentConfig
}

// AggregationError records a paragraph that could not be scored.
type AggregationError struct {
	ParagraphID string
	Reason      string
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("paragraph %s: %s", e.ParagraphID, e.Reason)
}

// Unwrap returns ErrAggregation.
func (e *AggregationError) Unwrap() error {
	return ErrAggregation
}

// IsTransient reports whether err is worth retrying against the LLM backend.
func IsTransient(err error) bool {
	return errors.Is(err, ErrLLMConnection) || errors.Is(err, ErrRateLimited)
}

// RetryAfter returns the backend's retry hint carried by err, if any.
func RetryAfter(err error) time.Duration {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return rl.RetryAfter
	}
	return 0
}
