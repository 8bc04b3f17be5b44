package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/custodia-labs/autoreview/internal/core/domain"
	"github.com/custodia-labs/autoreview/internal/core/ports/driven"
	"github.com/custodia-labs/autoreview/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyLLMProvider       = "llm.provider"
	keyLLMModel          = "llm.model"
	keyLLMBaseURL        = "llm.base_url"
	keyLLMAPIKey         = "llm.api_key"
	keyLLMTemperature    = "llm.temperature"
	keyLLMMaxTokens      = "llm.max_tokens"
	keyEmbedProvider     = "embedding.provider"
	keyEmbedModel        = "embedding.model"
	keyEmbedBaseURL      = "embedding.base_url"
	keyEmbedAPIKey       = "embedding.api_key"
	keyEmbedBatchSize    = "embedding.batch_size"
	keyWorkers           = "runner.workers"
	keyMaxInFlight       = "runner.max_in_flight"
	keyRequestsPerSecond = "runner.requests_per_second"
	keyBurst             = "runner.burst"
	keyMaxAttempts       = "runner.max_attempts"
	keyBaseDelay         = "runner.base_delay"
	keyMaxDelay          = "runner.max_delay"
	keyRunTimeout        = "runner.run_timeout"
	keyGracePeriod       = "runner.grace_period"
	keyOutageThreshold   = "runner.outage_threshold"
	keyMaxContextChars   = "retrieval.max_context_chars"
	keyMinLength         = "chunking.min_length"
	keyCacheBackend      = "cache.backend"
	keyCacheDataDir      = "cache.data_dir"
	keyRedisAddr         = "cache.redis_addr"
	keyRedisPassword     = "cache.redis_password"
	keyRedisDB           = "cache.redis_db"
	keyL1TTL             = "cache.l1_ttl"
	keyLogFile           = "log.file"
)

// valueKind describes how a setting is parsed from a string.
type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindDuration
	kindProvider
	kindBackend
)

var settingKinds = map[string]valueKind{
	keyLLMProvider:       kindProvider,
	keyLLMModel:          kindString,
	keyLLMBaseURL:        kindString,
	keyLLMAPIKey:         kindString,
	keyLLMTemperature:    kindFloat,
	keyLLMMaxTokens:      kindInt,
	keyEmbedProvider:     kindProvider,
	keyEmbedModel:        kindString,
	keyEmbedBaseURL:      kindString,
	keyEmbedAPIKey:       kindString,
	keyEmbedBatchSize:    kindInt,
	keyWorkers:           kindInt,
	keyMaxInFlight:       kindInt,
	keyRequestsPerSecond: kindFloat,
	keyBurst:             kindInt,
	keyMaxAttempts:       kindInt,
	keyBaseDelay:         kindDuration,
	keyMaxDelay:          kindDuration,
	keyRunTimeout:        kindDuration,
	keyGracePeriod:       kindDuration,
	keyOutageThreshold:   kindInt,
	keyMaxContextChars:   kindInt,
	keyMinLength:         kindInt,
	keyCacheBackend:      kindBackend,
	keyCacheDataDir:      kindString,
	keyRedisAddr:         kindString,
	keyRedisPassword:     kindString,
	keyRedisDB:           kindInt,
	keyL1TTL:             kindDuration,
	keyLogFile:           kindString,
}

// Environment variables consulted for API keys the settings file omits.
var providerEnvKeys = map[domain.AIProvider][]string{
	domain.AIProviderOpenAI:    {"OPENAI_API_KEY"},
	domain.AIProviderAnthropic: {"ANTHROPIC_API_KEY"},
	domain.AIProviderGemini:    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	env         map[string]string
}

// NewSettingsService creates a new settings service. env holds .env
// entries used as API key fallbacks; it may be nil.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator, env map[string]string) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		env:         env,
	}
}

// Get retrieves current application settings with defaults applied.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()
	var errs []error
	duration := func(key string, def time.Duration) time.Duration {
		v, err := s.getDuration(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}

	settings := &domain.AppSettings{
		LLM: domain.LLMSettings{
			Provider:    s.getProvider(keyLLMProvider, d.LLM.Provider),
			Model:       s.getString(keyLLMModel, d.LLM.Model),
			BaseURL:     s.getString(keyLLMBaseURL, ""),
			APIKey:      s.configStore.GetString(keyLLMAPIKey),
			Temperature: s.getFloat(keyLLMTemperature, d.LLM.Temperature),
			MaxTokens:   s.getInt(keyLLMMaxTokens, d.LLM.MaxTokens),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:  s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			Model:     s.getString(keyEmbedModel, ""),
			BaseURL:   s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:    s.configStore.GetString(keyEmbedAPIKey),
			BatchSize: s.getInt(keyEmbedBatchSize, d.Embedding.BatchSize),
		},
		Runner: domain.RunnerSettings{
			Workers:           s.getInt(keyWorkers, d.Runner.Workers),
			MaxInFlight:       s.getInt(keyMaxInFlight, d.Runner.MaxInFlight),
			RequestsPerSecond: s.getFloat(keyRequestsPerSecond, d.Runner.RequestsPerSecond),
			Burst:             s.getInt(keyBurst, d.Runner.Burst),
			MaxAttempts:       s.getInt(keyMaxAttempts, d.Runner.MaxAttempts),
			BaseDelay:         duration(keyBaseDelay, d.Runner.BaseDelay),
			MaxDelay:          duration(keyMaxDelay, d.Runner.MaxDelay),
			RunTimeout:        duration(keyRunTimeout, d.Runner.RunTimeout),
			GracePeriod:       duration(keyGracePeriod, d.Runner.GracePeriod),
			OutageThreshold:   s.getInt(keyOutageThreshold, d.Runner.OutageThreshold),
		},
		Cache: domain.CacheSettings{
			Backend:       domain.CacheBackend(s.getString(keyCacheBackend, string(d.Cache.Backend))),
			DataDir:       s.configStore.GetString(keyCacheDataDir),
			RedisAddr:     s.configStore.GetString(keyRedisAddr),
			RedisPassword: s.configStore.GetString(keyRedisPassword),
			RedisDB:       s.configStore.GetInt(keyRedisDB),
			L1TTL:         duration(keyL1TTL, d.Cache.L1TTL),
		},
		MaxContextChars:    s.getInt(keyMaxContextChars, d.MaxContextChars),
		MinParagraphLength: s.getInt(keyMinLength, d.MinParagraphLength),
		LogFile:            s.configStore.GetString(keyLogFile),
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	// The local server default only applies to the default provider.
	if settings.LLM.BaseURL == "" && settings.LLM.Provider == d.LLM.Provider {
		settings.LLM.BaseURL = d.LLM.BaseURL
	}
	if _, set := s.configStore.Get(keyLLMModel); !set && settings.LLM.Provider != d.LLM.Provider {
		settings.LLM.Model = domain.DefaultLLMModels()[settings.LLM.Provider]
	}
	if settings.Embedding.Model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[settings.Embedding.Provider]
	}
	if settings.LLM.APIKey == "" {
		settings.LLM.APIKey = s.envKey(settings.LLM.Provider)
	}
	if settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = s.envKey(settings.Embedding.Provider)
	}

	return settings, nil
}

// Set parses value according to key and stores it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var stored any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
		}
		stored = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
		}
		stored = f
	case kindDuration:
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%w: %s must be a duration such as 30s", domain.ErrInvalidInput, key)
		}
		stored = value
	case kindProvider:
		if !domain.AIProvider(value).IsValid() {
			return fmt.Errorf("%w: invalid provider %q", domain.ErrInvalidInput, value)
		}
		stored = value
	case kindBackend:
		if !domain.CacheBackend(value).IsValid() {
			return fmt.Errorf("%w: invalid cache backend %q", domain.ErrInvalidInput, value)
		}
		stored = value
	default:
		stored = value
	}

	if err := s.configStore.Set(key, stored); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns every recognised setting key, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks settings without contacting any provider.
func (s *SettingsService) Validate(settings *domain.AppSettings) error {
	if settings == nil {
		return fmt.Errorf("%w: no settings", domain.ErrInvalidInput)
	}

	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{domain.ErrInvalidInput}, args...)...))
		}
	}

	check(settings.LLM.Provider.IsValid() && settings.LLM.Provider != domain.AIProviderLocal,
		"llm.provider %q does not support completions", settings.LLM.Provider)
	check(settings.Embedding.Provider.IsValid() && settings.Embedding.Provider != domain.AIProviderAnthropic,
		"embedding.provider %q does not support embeddings", settings.Embedding.Provider)
	check(settings.LLM.MaxTokens > 0, "llm.max_tokens must be positive")
	check(settings.LLM.Temperature >= 0 && settings.LLM.Temperature <= 2, "llm.temperature must be within [0, 2]")
	check(settings.Embedding.BatchSize > 0, "embedding.batch_size must be positive")

	r := settings.Runner
	check(r.Workers > 0, "runner.workers must be positive")
	check(r.MaxInFlight > 0, "runner.max_in_flight must be positive")
	check(r.RequestsPerSecond >= 0, "runner.requests_per_second must not be negative")
	check(r.RequestsPerSecond == 0 || r.Burst > 0, "runner.burst must be positive when rate limiting")
	check(r.MaxAttempts > 0, "runner.max_attempts must be positive")
	check(r.BaseDelay > 0, "runner.base_delay must be positive")
	check(r.MaxDelay >= r.BaseDelay, "runner.max_delay must be at least base_delay")
	check(r.RunTimeout >= 0, "runner.run_timeout must not be negative")
	check(r.GracePeriod >= 0, "runner.grace_period must not be negative")
	check(r.OutageThreshold > 0, "runner.outage_threshold must be positive")

	check(settings.MaxContextChars > 0, "retrieval.max_context_chars must be positive")
	check(settings.MinParagraphLength >= 0, "chunking.min_length must not be negative")
	check(settings.Cache.Backend.IsValid(), "cache.backend %q is not one of sqlite, redis, memory", settings.Cache.Backend)
	check(settings.Cache.Backend != domain.CacheBackendRedis || settings.Cache.RedisAddr != "",
		"cache.redis_addr is required for the redis backend")

	return errors.Join(errs...)
}

// Check pings the configured embedding and LLM providers.
func (s *SettingsService) Check(ctx context.Context, settings *domain.AppSettings) error {
	if s.aiValidator == nil {
		return fmt.Errorf("no AI validator configured")
	}
	return errors.Join(
		s.aiValidator.ValidateEmbedding(ctx, &settings.Embedding),
		s.aiValidator.ValidateLLM(ctx, &settings.LLM),
	)
}

func (s *SettingsService) envKey(provider domain.AIProvider) string {
	for _, name := range providerEnvKeys[provider] {
		if v := s.env[name]; v != "" {
			return v
		}
	}
	return ""
}

func (s *SettingsService) getString(key, def string) string {
	if v := s.configStore.GetString(key); v != "" {
		return v
	}
	return def
}

func (s *SettingsService) getInt(key string, def int) int {
	if _, ok := s.configStore.Get(key); ok {
		return s.configStore.GetInt(key)
	}
	return def
}

func (s *SettingsService) getFloat(key string, def float64) float64 {
	if _, ok := s.configStore.Get(key); ok {
		return s.configStore.GetFloat(key)
	}
	return def
}

func (s *SettingsService) getProvider(key string, def domain.AIProvider) domain.AIProvider {
	if v := s.configStore.GetString(key); v != "" {
		return domain.AIProvider(v)
	}
	return def
}

func (s *SettingsService) getDuration(key string, def time.Duration) (time.Duration, error) {
	v := s.configStore.GetString(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}
	return d, nil
}
