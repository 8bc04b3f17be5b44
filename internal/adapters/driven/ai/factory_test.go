package ai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/custodia-labs/autoreview/internal/core/domain"
)

func TestInitResult_Close(t *testing.T) {
	t.Run("close with nil services", func(t *testing.T) {
		result := &InitResult{}
		// Should not panic
		result.Close()
	})
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name        string
		settings    *domain.EmbeddingSettings
		wantErr     bool
		errContains string
		wantModel   string
	}{
		{
			name:        "nil settings returns error",
			settings:    nil,
			wantErr:     true,
			errContains: "no embedding settings",
		},
		{
			name:      "empty provider falls back to local",
			settings:  &domain.EmbeddingSettings{},
			wantModel: "hash-384",
		},
		{
			name:      "local provider honours hash size",
			settings:  &domain.EmbeddingSettings{Provider: domain.AIProviderLocal, Model: "hash-128"},
			wantModel: "hash-128",
		},
		{
			name: "ollama provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama,
				BaseURL:  "http://localhost:11434",
				Model:    "nomic-embed-text",
			},
			wantModel: "nomic-embed-text",
		},
		{
			name: "openai provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
				APIKey:   "test-key",
				Model:    "text-embedding-3-small",
			},
			wantModel: "text-embedding-3-small",
		},
		{
			name: "anthropic provider returns error",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderAnthropic,
				APIKey:   "test-key",
			},
			wantErr:     true,
			errContains: "anthropic does not support embeddings",
		},
		{
			name: "gemini without key is not configured",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderGemini,
			},
			wantErr:     true,
			errContains: "not configured",
		},
		{
			name: "unknown provider returns error",
			settings: &domain.EmbeddingSettings{
				Provider: "unknown",
				APIKey:   "test-key",
			},
			wantErr:     true,
			errContains: "not configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(context.Background(), tt.settings)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
					t.Errorf("error %v should wrap ErrEmbeddingUnavailable", err)
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error %q should contain %q", err.Error(), tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer svc.Close()
			if svc.ModelName() != tt.wantModel {
				t.Errorf("ModelName() = %q, want %q", svc.ModelName(), tt.wantModel)
			}
		})
	}
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name        string
		settings    *domain.LLMSettings
		wantErr     bool
		errContains string
	}{
		{
			name:        "nil settings returns error",
			settings:    nil,
			wantErr:     true,
			errContains: "not configured",
		},
		{
			name:        "unconfigured settings returns error",
			settings:    &domain.LLMSettings{},
			wantErr:     true,
			errContains: "not configured",
		},
		{
			name: "ollama provider creates service",
			settings: &domain.LLMSettings{
				Provider: domain.AIProviderOllama,
				BaseURL:  "http://localhost:11434",
				Model:    "llama3.2",
			},
		},
		{
			name: "openai-compatible local server needs no key",
			settings: &domain.LLMSettings{
				Provider: domain.AIProviderOpenAI,
				BaseURL:  "http://localhost:1234/v1",
				Model:    "local-model",
			},
		},
		{
			name: "anthropic provider creates service",
			settings: &domain.LLMSettings{
				Provider: domain.AIProviderAnthropic,
				APIKey:   "test-key",
				Model:    "claude-3-5-sonnet-latest",
			},
		},
		{
			name: "anthropic without key is not configured",
			settings: &domain.LLMSettings{
				Provider: domain.AIProviderAnthropic,
			},
			wantErr:     true,
			errContains: "not configured",
		},
		{
			name: "openai cloud without key fails",
			settings: &domain.LLMSettings{
				Provider: domain.AIProviderOpenAI,
			},
			wantErr:     true,
			errContains: "API key is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(context.Background(), tt.settings)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, domain.ErrLLMUnavailable) {
					t.Errorf("error %v should wrap ErrLLMUnavailable", err)
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error %q should contain %q", err.Error(), tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			svc.Close()
		})
	}
}

func TestInit(t *testing.T) {
	settings := domain.DefaultAppSettings()

	result, err := Init(context.Background(), &settings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer result.Close()

	if result.EmbeddingService == nil || result.LLMService == nil {
		t.Fatal("expected both services")
	}
}

func TestValidateLLMConfig_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			_, _ = w.Write([]byte(`{"models":[]}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	err := ValidateLLMConfig(context.Background(), &domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  server.URL,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateLLMConfig_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	err := ValidateLLMConfig(context.Background(), &domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  url,
	})
	if !errors.Is(err, domain.ErrLLMUnavailable) {
		t.Fatalf("expected ErrLLMUnavailable, got %v", err)
	}
}

func TestValidateEmbeddingConfig_Local(t *testing.T) {
	err := ValidateEmbeddingConfig(context.Background(), &domain.EmbeddingSettings{Provider: domain.AIProviderLocal})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
