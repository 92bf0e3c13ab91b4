package driven

// ConfigStore provides access to application configuration.
// Keys use dot notation mirroring the TOML tables ("router.retry_count").
// Missing keys and values of the wrong type read as zero values.
type ConfigStore interface {
	// Get retrieves the raw value and whether the key exists.
	Get(key string) (any, bool)

	GetString(key string) string
	GetInt(key string) int
	GetFloat(key string) float64
	GetBool(key string) bool
	GetStringSlice(key string) []string

	// Set stores a value in memory. Call Save to persist it.
	Set(key string, value any) error

	// Save persists the current configuration.
	Save() error

	// Load replaces the in-memory values with the persisted ones.
	Load() error

	// Path identifies where the configuration lives.
	Path() string
}
