// Package config loads the static labcore configuration: the credential
// table, the reference time zone, logging, and the optional NATS transport.
// Storage and blob drivers are selected by environment variables in their
// own factories.
package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"labcore/pkg/domain"
)

// User is one credential-table entry.
type User struct {
	Secret      string `yaml:"secret"`
	Role        int    `yaml:"role"`
	DisplayName string `yaml:"display_name,omitempty"`
}

// NATS configures the notification transport. An empty URL disables it and
// notifications go to the structured log instead.
type NATS struct {
	URL           string `yaml:"url,omitempty"`
	SubjectPrefix string `yaml:"subject_prefix,omitempty"`
}

// Config is the full static configuration.
type Config struct {
	Users    map[string]User `yaml:"users"`
	Timezone string          `yaml:"timezone,omitempty"`
	LogLevel string          `yaml:"log_level,omitempty"`
	NATS     NATS            `yaml:"nats,omitempty"`
}

// Default returns the built-in configuration: no users, Moscow reference
// zone, info logging.
func Default() Config {
	return Config{
		Users:    map[string]User{},
		Timezone: "Europe/Moscow",
		LogLevel: "info",
	}
}

// Load reads the yaml file at path over the defaults and applies environment
// overrides (LABCORE_NATS_URL).
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	if url := os.Getenv("LABCORE_NATS_URL"); url != "" {
		cfg.NATS.URL = url
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks role values and the zone name.
func (c Config) Validate() error {
	for identity, user := range c.Users {
		if !domain.Role(user.Role).Valid() {
			return fmt.Errorf("user %s: invalid role %d", identity, user.Role)
		}
		if user.Secret == "" {
			return fmt.Errorf("user %s: empty secret", identity)
		}
	}
	if c.Timezone == "" {
		return fmt.Errorf("timezone must not be empty")
	}
	return nil
}

// SlogLevel maps the configured log level to a slog.Level, defaulting to
// info on unknown values.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
