package store

import (
	"fmt"
	"os"
)

// Providers.
const (
	ProviderNoop     = "noop"
	ProviderMemory   = "memory"
	ProviderPostgres = "postgres"
)

// Config selects the persistence provider.
type Config struct {
	Provider string `toml:"provider"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Provider string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	if c.Provider == "" {
		c.Provider = ProviderNoop
	}
	if env != nil && env.Provider != "" {
		if v := os.Getenv(env.Provider); v != "" {
			c.Provider = v
		}
	}

	switch c.Provider {
	case ProviderNoop, ProviderMemory, ProviderPostgres:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedProvider, c.Provider)
	}
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
}

// UsesDatabase reports whether the provider needs a database connection.
func (c *Config) UsesDatabase() bool {
	return c.Provider == ProviderPostgres
}
