package driving

import (
	"context"

	"github.com/custodia-labs/autoreview/internal/core/domain"
)

// SettingsService manages application settings.
type SettingsService interface {
	// Get returns settings with defaults applied and secrets resolved.
	Get() (*domain.AppSettings, error)

	// Set stores one setting after checking the key and value.
	Set(key, value string) error

	// Keys returns every recognised setting key.
	Keys() []string

	// Validate checks settings without contacting any provider.
	Validate(settings *domain.AppSettings) error

	// Check pings the configured embedding and LLM providers.
	Check(ctx context.Context, settings *domain.AppSettings) error
}
