package source

import "os"

// EnvProvider resolves environment variables referenced by "option env=VAR"
// and by $(VAR)-style interpolation inside Kconfig text. Abstracting this
// behind an interface, rather than calling os.Getenv directly, keeps parsing
// deterministic and testable.
type EnvProvider interface {
	// Lookup returns the value bound to key and whether it is set.
	Lookup(key string) (string, bool)
}

// OSEnv resolves against the real process environment.
type OSEnv struct{}

// Lookup implements EnvProvider.
func (OSEnv) Lookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// MapEnv is a fixed, in-memory EnvProvider for tests and for programmatic
// callers that want reproducible env-dependent parses.
type MapEnv map[string]string

// Lookup implements EnvProvider.
func (m MapEnv) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}
