// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	geminiembed "github.com/custodia-labs/autoreview/internal/adapters/driven/embedding/gemini"
	localembed "github.com/custodia-labs/autoreview/internal/adapters/driven/embedding/local"
	ollamaembed "github.com/custodia-labs/autoreview/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/autoreview/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/autoreview/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/autoreview/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/autoreview/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/autoreview/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/autoreview/internal/core/domain"
	"github.com/custodia-labs/autoreview/internal/core/ports/driven"
	"github.com/custodia-labs/autoreview/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the AI services for a review run.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		_ = r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		_ = r.LLMService.Close()
	}
}

// Init creates both services from settings without contacting the providers.
func Init(ctx context.Context, settings *domain.AppSettings) (*InitResult, error) {
	logger.Section("AI Services")

	embedding, err := CreateEmbeddingService(ctx, &settings.Embedding)
	if err != nil {
		return nil, err
	}
	logger.Debug("Embedding: %s (%s)", embedding.ModelName(), settings.Embedding.Provider)

	llm, err := CreateLLMService(ctx, &settings.LLM)
	if err != nil {
		_ = embedding.Close()
		return nil, err
	}
	logger.Debug("LLM: %s (%s)", llm.ModelName(), settings.LLM.Provider)

	return &InitResult{EmbeddingService: embedding, LLMService: llm}, nil
}

// ValidateEmbeddingConfig validates an embedding configuration by creating a service and pinging it.
func ValidateEmbeddingConfig(ctx context.Context, settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(ctx, settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: service unreachable (%w)", domain.ErrEmbeddingUnavailable, err)
	}
	return nil
}

// ValidateLLMConfig validates an LLM configuration by creating a service and pinging it.
func ValidateLLMConfig(ctx context.Context, settings *domain.LLMSettings) error {
	svc, err := CreateLLMService(ctx, settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: service unreachable (%w)", domain.ErrLLMUnavailable, err)
	}
	return nil
}

// CreateEmbeddingService creates the embedding service named by settings.
func CreateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: no embedding settings", domain.ErrEmbeddingUnavailable)
	}

	switch settings.Provider {
	case domain.AIProviderAnthropic:
		return nil, fmt.Errorf("%w: anthropic does not support embeddings, use local, ollama, openai or gemini",
			domain.ErrEmbeddingUnavailable)
	case domain.AIProviderLocal, "":
		return localembed.NewEmbeddingService(dimensionsFor(settings.Model, localembed.DefaultDimensions)), nil
	}

	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: provider %q is not configured", domain.ErrEmbeddingUnavailable, settings.Provider)
	}

	var (
		svc driven.EmbeddingService
		err error
	)
	switch settings.Provider {
	case domain.AIProviderOllama:
		svc = ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimensionsFor(settings.Model, ollamaembed.DefaultDimensions),
		})
	case domain.AIProviderOpenAI:
		svc, err = openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: domain.EmbeddingDimensions()[settings.Model],
		})
	case domain.AIProviderGemini:
		svc, err = geminiembed.NewEmbeddingService(ctx, geminiembed.Config{
			APIKey:     settings.APIKey,
			Model:      settings.Model,
			Dimensions: domain.EmbeddingDimensions()[settings.Model],
		})
	default:
		err = fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
	if err != nil {
		return nil, wrapUnavailable(domain.ErrEmbeddingUnavailable, err)
	}
	return svc, nil
}

// CreateLLMService creates the LLM service named by settings.
func CreateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		provider := domain.AIProvider("")
		if settings != nil {
			provider = settings.Provider
		}
		return nil, fmt.Errorf("%w: provider %q is not configured", domain.ErrLLMUnavailable, provider)
	}

	var (
		svc driven.LLMService
		err error
	)
	switch settings.Provider {
	case domain.AIProviderOllama:
		svc = ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	case domain.AIProviderOpenAI:
		svc, err = openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	case domain.AIProviderAnthropic:
		svc, err = anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	case domain.AIProviderGemini:
		svc, err = geminillm.NewLLMService(ctx, geminillm.Config{
			APIKey: settings.APIKey,
			Model:  settings.Model,
		})
	default:
		err = fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
	if err != nil {
		return nil, wrapUnavailable(domain.ErrLLMUnavailable, err)
	}
	return svc, nil
}

func dimensionsFor(model string, fallback int) int {
	if d := domain.EmbeddingDimensions()[model]; d > 0 {
		return d
	}
	var n int
	if _, err := fmt.Sscanf(model, "hash-%d", &n); err == nil && n > 0 {
		return n
	}
	return fallback
}

func wrapUnavailable(sentinel, err error) error {
	if errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
