package openapi

import (
	"errors"
	"os"
	"strings"
)

// Config is the document metadata. Servers lists base URLs documented in
// addition to the API's own base path, such as a public gateway address.
type Config struct {
	Title       string   `toml:"title"`
	Description string   `toml:"description"`
	Servers     []string `toml:"servers"`
}

// ConfigEnv names the environment variables that override Config. Servers
// is read as a comma-separated list.
type ConfigEnv struct {
	Title       string
	Description string
	Servers     string
}

// Finalize applies defaults, then environment overrides, then validation.
func (c *Config) Finalize(env *ConfigEnv) error {
	if c.Title == "" {
		c.Title = "SoilGuardian API"
	}
	if c.Description == "" {
		c.Description = "Soil-based crop recommendation service."
	}
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites fields that are set in overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Title != "" {
		c.Title = overlay.Title
	}
	if overlay.Description != "" {
		c.Description = overlay.Description
	}
	if len(overlay.Servers) > 0 {
		c.Servers = overlay.Servers
	}
}

func (c *Config) loadEnv(env *ConfigEnv) {
	set := func(name string, dst *string) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	set(env.Title, &c.Title)
	set(env.Description, &c.Description)

	var servers string
	set(env.Servers, &servers)
	if servers != "" {
		c.Servers = nil
		for s := range strings.SplitSeq(servers, ",") {
			if s = strings.TrimSpace(s); s != "" {
				c.Servers = append(c.Servers, s)
			}
		}
	}
}

func (c *Config) validate() error {
	for _, s := range c.Servers {
		if strings.TrimSpace(s) == "" {
			return errors.New("servers must not contain empty entries")
		}
	}
	return nil
}
