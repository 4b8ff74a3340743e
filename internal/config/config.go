// Package config loads runtime configuration from the environment.
//
// Configuration is an explicit value object handed to the scraper and
// server at construction; nothing reads the environment after startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Defaults applied when the corresponding environment variable is unset.
const (
	DefaultMaxItemsPerMeal = 10
	DefaultRequestDelay    = 1.0
	DefaultPort            = "5002"
	DefaultDataDir         = "~/.local/share/vt-nutrition"
	DefaultOpenAIURL       = "https://api.openai.com/v1/chat/completions"
	DefaultAdminAPIKey     = "default-admin-key-change-me"
)

// Config holds all configuration for the scraper and API server.
type Config struct {
	// Scraper limits
	MaxItemsPerMeal int
	RequestDelay    float64

	// Server configuration
	Port        string
	AdminAPIKey string

	// AI meal-plan configuration; OpenAIAPIKey empty means the AI path is
	// disabled and the fallback planner is used.
	OpenAIAPIKey string
	OpenAIAPIURL string

	// Snapshot storage location
	DataDir string
}

// Load builds a Config from environment variables, applying defaults and
// validating the result.
func Load() (*Config, error) {
	cfg := &Config{
		MaxItemsPerMeal: DefaultMaxItemsPerMeal,
		RequestDelay:    DefaultRequestDelay,
		Port:            DefaultPort,
		AdminAPIKey:     DefaultAdminAPIKey,
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIAPIURL:    DefaultOpenAIURL,
		DataDir:         DefaultDataDir,
	}

	if v := os.Getenv("MAX_ITEMS_PER_MEAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parsing MAX_ITEMS_PER_MEAL: %w", err)
		}
		cfg.MaxItemsPerMeal = n
	}

	if v := os.Getenv("SCRAPER_DELAY"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing SCRAPER_DELAY: %w", err)
		}
		cfg.RequestDelay = f
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}

	if v := os.Getenv("ADMIN_API_KEY"); v != "" {
		cfg.AdminAPIKey = v
	}

	if v := os.Getenv("OPENAI_API_URL"); v != "" {
		cfg.OpenAIAPIURL = v
	}

	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	if c.MaxItemsPerMeal < 1 {
		return fmt.Errorf("MAX_ITEMS_PER_MEAL must be >= 1, got %d", c.MaxItemsPerMeal)
	}
	if c.RequestDelay < 0 {
		return fmt.Errorf("SCRAPER_DELAY must be >= 0, got %g", c.RequestDelay)
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", c.Port)
	}
	return nil
}

// RequestDelayDuration converts the configured delay in seconds to a
// time.Duration.
func (c *Config) RequestDelayDuration() time.Duration {
	return time.Duration(c.RequestDelay * float64(time.Second))
}
