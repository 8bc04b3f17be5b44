// Package anthropic provides an LLM service adapter using the Anthropic API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sdk "github.com/liushuangls/go-anthropic/v2"

	"github.com/custodia-labs/autoreview/internal/adapters/driven/llm"
	"github.com/custodia-labs/autoreview/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-3-5-sonnet-latest"
	DefaultTimeout   = 120 * time.Second
	DefaultMaxTokens = 2000

	// anthropicVersion is the required API version header.
	anthropicVersion = "2023-06-01"
)

const provider = "anthropic"

// Config holds configuration for the Anthropic LLM service.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL is the API root (default: https://api.anthropic.com).
	BaseURL string

	// Model is the LLM model to use (default: claude-3-5-sonnet-latest).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// LLMService provides LLM operations using the Anthropic Messages API.
type LLMService struct {
	client     *sdk.Client
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// NewLLMService creates a new Anthropic LLM service.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	httpClient := &http.Client{Timeout: cfg.Timeout}

	return &LLMService{
		client: sdk.NewClient(
			cfg.APIKey,
			sdk.WithBaseURL(baseURL+"/v1"),
			sdk.WithHTTPClient(httpClient),
		),
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
	}, nil
}

// Complete sends a single user message with an optional system prompt.
func (s *LLMService) Complete(ctx context.Context, prompt string, opts driven.CompletionOptions) (string, error) {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	temperature := float32(opts.Temperature)

	resp, err := s.client.CreateMessages(ctx, sdk.MessagesRequest{
		Model:  sdk.Model(s.model),
		System: opts.System,
		Messages: []sdk.Message{
			{
				Role: sdk.RoleUser,
				Content: []sdk.MessageContent{
					sdk.NewTextMessageContent(prompt),
				},
			},
		},
		MaxTokens:   maxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return "", classify(err)
	}

	var text strings.Builder
	for _, content := range resp.Content {
		if content.Text != nil {
			text.WriteString(*content.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", llm.Malformed(provider, "no text content returned")
	}
	return text.String(), nil
}

// classify maps SDK errors onto HTTP-like statuses.
func classify(err error) error {
	var apiErr *sdk.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.IsRateLimitErr():
			return llm.ClassifyStatus(provider, http.StatusTooManyRequests, 0, err)
		case apiErr.IsOverloadedErr(), apiErr.IsApiErr():
			return llm.ClassifyStatus(provider, http.StatusServiceUnavailable, 0, err)
		default:
			return llm.ClassifyStatus(provider, http.StatusBadRequest, 0, err)
		}
	}

	var reqErr *sdk.RequestError
	if errors.As(err, &reqErr) {
		return llm.ClassifyStatus(provider, reqErr.StatusCode, 0, err)
	}

	return llm.ClassifyStatus(provider, 0, 0, err)
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by checking the /v1/models endpoint.
// This is a lightweight check that validates the API key without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v1/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("anthropic: failed to create ping request: %w", err)
	}
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("anthropic: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("anthropic: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("anthropic: API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
