// Package config loads process settings from NETREPLAY_* environment
// variables. Command-line flags override what is loaded here.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the environment-driven settings.
type Config struct {
	DB       string `env:"NETREPLAY_DB" envDefault:"netreplay.db"`
	LogLevel string `env:"NETREPLAY_LOG_LEVEL" envDefault:"info"`
	PageSize int    `env:"NETREPLAY_PAGE_SIZE" envDefault:"256"`

	PresenceTrace string `env:"NETREPLAY_PRESENCE_TRACE" envDefault:"presence"`
	LinksTrace    string `env:"NETREPLAY_LINKS_TRACE" envDefault:"links"`
	GroupsTrace   string `env:"NETREPLAY_GROUPS_TRACE" envDefault:"groups"`

	OTelEndpoint string `env:"NETREPLAY_OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"NETREPLAY_OTEL_ENABLED" envDefault:"true"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the loaded values.
func (c Config) Validate() error {
	if c.DB == "" {
		return fmt.Errorf("NETREPLAY_DB is empty")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("NETREPLAY_PAGE_SIZE must be positive, got %d", c.PageSize)
	}
	for env, name := range map[string]string{
		"NETREPLAY_PRESENCE_TRACE": c.PresenceTrace,
		"NETREPLAY_LINKS_TRACE":    c.LinksTrace,
		"NETREPLAY_GROUPS_TRACE":   c.GroupsTrace,
	} {
		if name == "" {
			return fmt.Errorf("%s is empty", env)
		}
	}
	return nil
}

// TracingEnabled reports whether spans should be exported.
func (c Config) TracingEnabled() bool {
	return c.OTelEnabled && c.OTelEndpoint != ""
}
