package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/JaimeStill/soilguardian/pkg/formatting"
	"github.com/JaimeStill/soilguardian/pkg/middleware"
	"github.com/JaimeStill/soilguardian/pkg/pagination"
)

const (
	EnvAPIBasePath    = "SOILGUARDIAN_API_BASE_PATH"
	EnvAPIMaxBodySize = "SOILGUARDIAN_API_MAX_BODY_SIZE"
)

// APIConfig holds API routing, request limits, CORS, and pagination settings.
type APIConfig struct {
	BasePath    string                `toml:"base_path"`
	MaxBodySize string                `toml:"max_body_size"`
	CORS        middleware.CORSConfig `toml:"cors"`
	Pagination  pagination.Config     `toml:"pagination"`
}

// MaxBodySizeBytes returns MaxBodySize as a byte count. Finalize has
// already rejected sizes that do not parse.
func (c *APIConfig) MaxBodySizeBytes() int64 {
	size, _ := formatting.ParseBytes(c.MaxBodySize)
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "1MB"
	}
	if v := os.Getenv(EnvAPIBasePath); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv(EnvAPIMaxBodySize); v != "" {
		c.MaxBodySize = v
	}

	if err := validateBasePath(c.BasePath); err != nil {
		return err
	}
	if size, err := formatting.ParseBytes(c.MaxBodySize); err != nil || size <= 0 {
		return fmt.Errorf("invalid max_body_size %q", c.MaxBodySize)
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxBodySize != "" {
		c.MaxBodySize = overlay.MaxBodySize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
}

// validateBasePath enforces the single-segment prefix the module router
// mounts on, e.g. "/api".
func validateBasePath(p string) error {
	rest, ok := strings.CutPrefix(p, "/")
	if !ok || rest == "" || strings.ContainsAny(rest, "/{} ") {
		return fmt.Errorf("invalid base_path %q: want a single segment such as /api", p)
	}
	return nil
}
