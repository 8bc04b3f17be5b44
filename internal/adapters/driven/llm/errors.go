// Package llm holds helpers shared by the LLM and embedding adapters.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/autoreview/internal/core/domain"
)

// ClassifyStatus maps an HTTP failure from a provider onto the domain error
// taxonomy. status is zero when no response was received.
func ClassifyStatus(provider string, status int, retryAfter time.Duration, cause error) error {
	if cause == nil {
		cause = fmt.Errorf("status %d", status)
	}
	switch {
	case errors.Is(cause, context.Canceled), errors.Is(cause, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", provider, cause)
	case status == http.StatusTooManyRequests:
		return &domain.RateLimitError{RetryAfter: retryAfter, Err: fmt.Errorf("%s: %w", provider, cause)}
	case status == 0, status >= http.StatusInternalServerError, status == http.StatusRequestTimeout:
		return fmt.Errorf("%s: %w: %w", provider, domain.ErrLLMConnection, cause)
	default:
		return fmt.Errorf("%s: status %d: %w", provider, status, cause)
	}
}

// ParseRetryAfter reads a Retry-After header given in seconds or as an HTTP date.
func ParseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

// Malformed wraps a response that carried no usable text.
func Malformed(provider, reason string) error {
	return fmt.Errorf("%s: %w: %s", provider, domain.ErrMalformedResponse, reason)
}
