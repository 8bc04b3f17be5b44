package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI API or any OpenAI-compatible server.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is the Google Gemini API.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderLocal is the built-in deterministic hashing embedder.
	AIProviderLocal AIProvider = "local"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini, AIProviderLocal:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
// OpenAI-compatible local servers accept any key, so a placeholder is used.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderAnthropic || p == AIProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderLocal
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI-compatible API"
	case AIProviderAnthropic:
		return "Anthropic"
	case AIProviderGemini:
		return "Google Gemini"
	case AIProviderLocal:
		return "Local hashing embedder (offline)"
	default:
		return unknownDescription
	}
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name. The agents file may override it.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key.
	APIKey string

	// Temperature is passed on every completion.
	Temperature float64

	// MaxTokens caps each completion.
	MaxTokens int
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() || l.Provider == AIProviderLocal {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	Provider  AIProvider
	Model     string
	BaseURL   string
	APIKey    string
	BatchSize int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// RunnerSettings controls the review fan-out.
type RunnerSettings struct {
	// Workers is the number of concurrent task executors.
	Workers int

	// MaxInFlight caps simultaneous LLM calls across all workers.
	MaxInFlight int

	// RequestsPerSecond rate-limits LLM calls; zero disables the limiter.
	RequestsPerSecond float64

	// Burst is the limiter bucket size.
	Burst int

	// MaxAttempts is the retry ceiling for transient failures, first call included.
	MaxAttempts int

	// BaseDelay is the first backoff delay; it doubles per attempt.
	BaseDelay time.Duration

	// MaxDelay caps a single backoff delay.
	MaxDelay time.Duration

	// RunTimeout stops dispatch once expired; zero means no timeout.
	RunTimeout time.Duration

	// GracePeriod is how long in-flight tasks may continue after the timeout.
	GracePeriod time.Duration

	// OutageThreshold is the number of consecutive transient failures,
	// across all agents, that aborts dispatch.
	OutageThreshold int
}

// CacheBackend selects the embedding cache implementation.
type CacheBackend string

// Available cache backends.
const (
	CacheBackendSQLite CacheBackend = "sqlite"
	CacheBackendRedis  CacheBackend = "redis"
	CacheBackendMemory CacheBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b CacheBackend) IsValid() bool {
	switch b {
	case CacheBackendSQLite, CacheBackendRedis, CacheBackendMemory:
		return true
	default:
		return false
	}
}

// CacheSettings configures the embedding cache.
type CacheSettings struct {
	Backend CacheBackend

	// DataDir holds the SQLite cache file.
	DataDir string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// L1TTL enables an in-memory layer in front of persistent backends.
	L1TTL time.Duration
}

// AppSettings holds all application settings.
type AppSettings struct {
	LLM       LLMSettings
	Embedding EmbeddingSettings
	Runner    RunnerSettings
	Cache     CacheSettings

	// MaxContextChars is the retrieval context budget per pair.
	MaxContextChars int

	// MinParagraphLength drops shorter paragraphs when splitting.
	MinParagraphLength int

	// LogFile enables the rotating JSON log sink when set.
	LogFile string
}

// DefaultAppSettings returns settings with sensible defaults.
// The LLM defaults to a local OpenAI-compatible server.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		LLM: LLMSettings{
			Provider:    AIProviderOpenAI,
			Model:       "local-model",
			BaseURL:     "http://localhost:1234/v1",
			Temperature: 0.2,
			MaxTokens:   2000,
		},
		Embedding: EmbeddingSettings{
			Provider:  AIProviderLocal,
			Model:     "hash-384",
			BatchSize: 32,
		},
		Runner: RunnerSettings{
			Workers:         4,
			MaxInFlight:     4,
			Burst:           1,
			MaxAttempts:     4,
			BaseDelay:       500 * time.Millisecond,
			MaxDelay:        10 * time.Second,
			GracePeriod:     30 * time.Second,
			OutageThreshold: 10,
		},
		Cache: CacheSettings{
			Backend: CacheBackendSQLite,
			L1TTL:   10 * time.Minute,
		},
		MaxContextChars:    2000,
		MinParagraphLength: 10,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderGemini,
		AIProviderOllama,
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderLocal,
		AIProviderOpenAI,
		AIProviderGemini,
		AIProviderOllama,
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderGemini:    "gemini-2.0-flash",
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderLocal:  "hash-384",
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderGemini: "gemini-embedding-001",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Gemini models
		"gemini-embedding-001": 3072,
	}
}
