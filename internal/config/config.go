// Package config loads SoilGuardian configuration from TOML files and
// SOILGUARDIAN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/soilguardian/internal/store"
	"github.com/JaimeStill/soilguardian/internal/tracking"
	"github.com/JaimeStill/soilguardian/pkg/database"
	"github.com/JaimeStill/soilguardian/pkg/openapi"
	"github.com/JaimeStill/soilguardian/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"
)

// Config is the root configuration for the SoilGuardian service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	API             APIConfig       `toml:"api"`
	Model           ModelConfig     `toml:"model"`
	Storage         storage.Config  `toml:"storage"`
	Store           store.Config    `toml:"store"`
	Database        database.Config `toml:"database"`
	Tracking        tracking.Config `toml:"tracking"`
	Logging         LoggingConfig   `toml:"logging"`
	OpenAPI         openapi.Config  `toml:"openapi"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the SOILGUARDIAN_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvSoilGuardianEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the config file at path, applies the environment overlay found
// next to it, and finalizes all values. An empty path means config.toml in
// the working directory, which may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	base := path
	if base == "" {
		base = BaseConfigFile
	}

	if _, err := os.Stat(base); err == nil {
		loaded, err := load(base)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else if path != "" {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	if overlay := overlayPath(base); overlay != "" {
		o, err := load(overlay)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", overlay, err)
		}
		cfg.Merge(o)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.API.Merge(&overlay.API)
	c.Model.Merge(&overlay.Model)
	c.Storage.Merge(&overlay.Storage)
	c.Store.Merge(&overlay.Store)
	c.Database.Merge(&overlay.Database)
	c.Tracking.Merge(&overlay.Tracking)
	c.Logging.Merge(&overlay.Logging)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

// Finalize applies defaults, environment overrides and validation to every
// section. The database section is only validated when the store needs it.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}

	sections := []struct {
		name     string
		finalize func() error
	}{
		{"server", c.Server.Finalize},
		{"api", c.API.Finalize},
		{"model", c.Model.Finalize},
		{"storage", func() error { return c.Storage.Finalize(storageEnv) }},
		{"store", func() error { return c.Store.Finalize(storeEnv) }},
		{"tracking", func() error { return c.Tracking.Finalize(trackingEnv) }},
		{"logging", c.Logging.Finalize},
		{"openapi", func() error { return c.OpenAPI.Finalize(openapiEnv) }},
	}
	for _, s := range sections {
		if err := s.finalize(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}

	if c.Store.UsesDatabase() {
		return c.FinalizeDatabase()
	}
	return nil
}

// FinalizeDatabase finalizes the database section on its own, for commands
// such as migrate that need it whatever store is configured.
func (c *Config) FinalizeDatabase() error {
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "1.0.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvSoilGuardianShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvSoilGuardianVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

// load decodes path strictly so a misspelled key fails instead of being
// silently ignored.
func load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	defer f.Close()

	var cfg Config
	dec := toml.NewDecoder(f).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("parse config %s: unknown keys:\n%s", path, strict.String())
		}
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return &cfg, nil
}

// overlayPath returns config.<env>.toml in the directory of base when
// SOILGUARDIAN_ENV is set and the file exists.
func overlayPath(base string) string {
	env := os.Getenv(EnvSoilGuardianEnv)
	if env == "" {
		return ""
	}
	path := filepath.Join(filepath.Dir(base), fmt.Sprintf(OverlayConfigPattern, env))
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}
