package driven

// ConfigStore reads and writes application configuration as key/value
// pairs. Keys use dot notation ("embedding.provider"). Typed getters
// return the zero value when a key is unset or holds another type, so
// callers can treat missing configuration as defaults.
type ConfigStore interface {
	// Get returns the raw value for key and whether it is set.
	Get(key string) (any, bool)

	// GetString returns the string at key, or "".
	GetString(key string) string

	// GetInt returns the integer at key, or 0.
	GetInt(key string) int

	// GetFloat returns the float at key, or 0. Whole numbers are
	// widened.
	GetFloat(key string) float64

	// GetBool returns the boolean at key, or false.
	GetBool(key string) bool

	// GetStringSlice returns the string list at key, or nil.
	GetStringSlice(key string) []string

	// Set stores value under key and persists it immediately.
	Set(key string, value any) error

	// Save persists the current configuration.
	Save() error

	// Load replaces in-memory configuration from storage.
	Load() error

	// Path points at the backing file for display to the user.
	Path() string
}
