// Package openai provides an LLM service adapter for OpenAI-compatible APIs.
//
// The same adapter serves api.openai.com and local servers such as LM Studio,
// which expose the OpenAI chat completions surface.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	sdk "github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/autoreview/internal/adapters/driven/llm"
	"github.com/custodia-labs/autoreview/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultLLMModel   = "gpt-4o-mini"
	DefaultLLMTimeout = 120 * time.Second

	// PlaceholderAPIKey is sent to local servers that ignore authentication.
	PlaceholderAPIKey = "not-needed"
)

const provider = "openai"

// LLMConfig holds configuration for the OpenAI LLM service.
type LLMConfig struct {
	// APIKey is the API key. Local servers accept any value.
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can be changed for Azure OpenAI or compatible APIs.
	BaseURL string

	// Model is the LLM model to use (default: gpt-4o-mini).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// LLMService provides LLM operations using an OpenAI-compatible API.
type LLMService struct {
	client *sdk.Client
	model  string
}

// NewLLMService creates a new OpenAI LLM service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.APIKey == "" {
		if strings.HasPrefix(cfg.BaseURL, DefaultBaseURL) {
			return nil, fmt.Errorf("openai: API key is required")
		}
		cfg.APIKey = PlaceholderAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	return &LLMService{
		client: NewClient(cfg.APIKey, cfg.BaseURL, cfg.Timeout),
		model:  cfg.Model,
	}, nil
}

// NewClient builds an SDK client for the given endpoint.
func NewClient(apiKey, baseURL string, timeout time.Duration) *sdk.Client {
	config := sdk.DefaultConfig(apiKey)
	config.BaseURL = strings.TrimRight(baseURL, "/")
	config.HTTPClient = &http.Client{Timeout: timeout}
	return sdk.NewClientWithConfig(config)
}

// Complete runs a chat completion with an optional system message.
func (s *LLMService) Complete(ctx context.Context, prompt string, opts driven.CompletionOptions) (string, error) {
	var messages []sdk.ChatCompletionMessage
	if opts.System != "" {
		messages = append(messages, sdk.ChatCompletionMessage{
			Role:    sdk.ChatMessageRoleSystem,
			Content: opts.System,
		})
	}
	messages = append(messages, sdk.ChatCompletionMessage{
		Role:    sdk.ChatMessageRoleUser,
		Content: prompt,
	})

	req := sdk.ChatCompletionRequest{
		Model:       s.model,
		Messages:    messages,
		Temperature: float32(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", Classify(err)
	}

	if len(resp.Choices) == 0 {
		return "", llm.Malformed(provider, "no response choices returned")
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", llm.Malformed(provider, "empty message content")
	}
	return content, nil
}

// Classify maps SDK errors onto the domain error taxonomy.
func Classify(err error) error {
	var apiErr *sdk.APIError
	if errors.As(err, &apiErr) {
		return llm.ClassifyStatus(provider, apiErr.HTTPStatusCode, 0, err)
	}

	var reqErr *sdk.RequestError
	if errors.As(err, &reqErr) {
		return llm.ClassifyStatus(provider, reqErr.HTTPStatusCode, 0, err)
	}

	return llm.ClassifyStatus(provider, 0, 0, err)
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by listing models.
// This is a lightweight check that validates the API key without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	if _, err := s.client.ListModels(ctx); err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
