package tracking

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config controls experiment tracking against an MLflow tracking server.
type Config struct {
	Enabled          *bool  `toml:"enabled"`
	URI              string `toml:"uri"`
	Experiment       string `toml:"experiment"`
	Timeout          string `toml:"timeout"`
	FailureThreshold uint32 `toml:"failure_threshold"`
	OpenTimeout      string `toml:"open_timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Enabled    string
	URI        string
	Experiment string
	Timeout    string
}

// IsEnabled reports whether tracking calls should be made.
func (c *Config) IsEnabled() bool {
	return c.Enabled != nil && *c.Enabled
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// OpenTimeoutDuration returns how long the circuit stays open before probing.
func (c *Config) OpenTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.OpenTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Enabled != nil {
		c.Enabled = overlay.Enabled
	}
	if overlay.URI != "" {
		c.URI = overlay.URI
	}
	if overlay.Experiment != "" {
		c.Experiment = overlay.Experiment
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.FailureThreshold != 0 {
		c.FailureThreshold = overlay.FailureThreshold
	}
	if overlay.OpenTimeout != "" {
		c.OpenTimeout = overlay.OpenTimeout
	}
}

func (c *Config) loadDefaults() {
	if c.Enabled == nil {
		enabled := false
		c.Enabled = &enabled
	}
	if c.URI == "" {
		c.URI = "http://localhost:5000"
	}
	if c.Experiment == "" {
		c.Experiment = "crop_recommendation"
	}
	if c.Timeout == "" {
		c.Timeout = "10s"
	}
	if c.FailureThreshold == 0 {
		c.FailureThreshold = 3
	}
	if c.OpenTimeout == "" {
		c.OpenTimeout = "30s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Enabled != "" {
		if v := os.Getenv(env.Enabled); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.Enabled = &b
			}
		}
	}
	if env.URI != "" {
		if v := os.Getenv(env.URI); v != "" {
			c.URI = v
		}
	}
	if env.Experiment != "" {
		if v := os.Getenv(env.Experiment); v != "" {
			c.Experiment = v
		}
	}
	if env.Timeout != "" {
		if v := os.Getenv(env.Timeout); v != "" {
			c.Timeout = v
		}
	}
}

func (c *Config) validate() error {
	if _, err := url.ParseRequestURI(c.URI); err != nil {
		return fmt.Errorf("invalid uri: %w", err)
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.OpenTimeout); err != nil {
		return fmt.Errorf("invalid open_timeout: %w", err)
	}
	if c.Experiment == "" {
		return fmt.Errorf("experiment required")
	}
	return nil
}
