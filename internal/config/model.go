package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/JaimeStill/soilguardian/internal/classifier"
	"github.com/JaimeStill/soilguardian/internal/recommendations"
)

const (
	EnvModelVersion         = "MODEL_VERSION"
	EnvModelAlgorithm       = "SOILGUARDIAN_MODEL_ALGORITHM"
	EnvModelDefaultTopN     = "SOILGUARDIAN_MODEL_DEFAULT_TOP_N"
	EnvModelMaxTopN         = "SOILGUARDIAN_MODEL_MAX_TOP_N"
	EnvModelHighThreshold   = "SOILGUARDIAN_MODEL_HIGH_THRESHOLD"
	EnvModelMediumThreshold = "SOILGUARDIAN_MODEL_MEDIUM_THRESHOLD"
)

// ModelConfig selects the served model and shapes its output.
type ModelConfig struct {
	Version         string  `toml:"version"`
	Algorithm       string  `toml:"algorithm"`
	DefaultTopN     int     `toml:"default_top_n"`
	MaxTopN         int     `toml:"max_top_n"`
	HighThreshold   float64 `toml:"high_threshold"`
	MediumThreshold float64 `toml:"medium_threshold"`
}

// Thresholds returns the confidence tier bounds.
func (c *ModelConfig) Thresholds() classifier.Thresholds {
	return classifier.Thresholds{High: c.HighThreshold, Medium: c.MediumThreshold}
}

// Recommendations returns the request limits for the recommendation service.
func (c *ModelConfig) Recommendations() recommendations.Config {
	return recommendations.Config{
		DefaultTopN: c.DefaultTopN,
		MaxTopN:     c.MaxTopN,
		Thresholds:  c.Thresholds(),
	}
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ModelConfig) Finalize() error {
	c.loadDefaults()
	if err := c.loadEnv(); err != nil {
		return err
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ModelConfig) Merge(overlay *ModelConfig) {
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	if overlay.Algorithm != "" {
		c.Algorithm = overlay.Algorithm
	}
	if overlay.DefaultTopN != 0 {
		c.DefaultTopN = overlay.DefaultTopN
	}
	if overlay.MaxTopN != 0 {
		c.MaxTopN = overlay.MaxTopN
	}
	if overlay.HighThreshold != 0 {
		c.HighThreshold = overlay.HighThreshold
	}
	if overlay.MediumThreshold != 0 {
		c.MediumThreshold = overlay.MediumThreshold
	}
}

func (c *ModelConfig) loadDefaults() {
	defaults := recommendations.DefaultConfig()
	if c.Version == "" {
		c.Version = "1.0.0"
	}
	if c.Algorithm == "" {
		c.Algorithm = string(classifier.GaussianNB)
	}
	if c.DefaultTopN == 0 {
		c.DefaultTopN = defaults.DefaultTopN
	}
	if c.MaxTopN == 0 {
		c.MaxTopN = defaults.MaxTopN
	}
	if c.HighThreshold == 0 {
		c.HighThreshold = defaults.Thresholds.High
	}
	if c.MediumThreshold == 0 {
		c.MediumThreshold = defaults.Thresholds.Medium
	}
}

func (c *ModelConfig) loadEnv() error {
	if v := os.Getenv(EnvModelVersion); v != "" {
		c.Version = v
	}
	if v := os.Getenv(EnvModelAlgorithm); v != "" {
		c.Algorithm = v
	}

	ints := []struct {
		env string
		dst *int
	}{
		{EnvModelDefaultTopN, &c.DefaultTopN},
		{EnvModelMaxTopN, &c.MaxTopN},
	}
	for _, i := range ints {
		if v := os.Getenv(i.env); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", i.env, err)
			}
			*i.dst = n
		}
	}

	floats := []struct {
		env string
		dst *float64
	}{
		{EnvModelHighThreshold, &c.HighThreshold},
		{EnvModelMediumThreshold, &c.MediumThreshold},
	}
	for _, f := range floats {
		if v := os.Getenv(f.env); v != "" {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", f.env, err)
			}
			*f.dst = n
		}
	}
	return nil
}

func (c *ModelConfig) validate() error {
	if _, err := classifier.ParseAlgorithm(c.Algorithm); err != nil {
		return err
	}
	if c.MaxTopN < 1 {
		return fmt.Errorf("max_top_n must be positive, got %d", c.MaxTopN)
	}
	if c.DefaultTopN < 1 || c.DefaultTopN > c.MaxTopN {
		return fmt.Errorf("default_top_n must be between 1 and %d, got %d", c.MaxTopN, c.DefaultTopN)
	}
	if c.MediumThreshold <= 0 || c.MediumThreshold > c.HighThreshold || c.HighThreshold > 100 {
		return fmt.Errorf("thresholds must satisfy 0 < medium <= high <= 100, got medium=%v high=%v",
			c.MediumThreshold, c.HighThreshold)
	}
	return nil
}
