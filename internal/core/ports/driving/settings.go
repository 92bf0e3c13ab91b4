package driving

import "github.com/custodia-labs/sercha-context/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current settings, filling unset keys with defaults
	// and applying environment overrides for credentials.
	Get() (*domain.Settings, error)

	// Save validates and persists settings.
	Save(settings *domain.Settings) error

	// GetDefaults returns default settings.
	GetDefaults() domain.Settings
}
