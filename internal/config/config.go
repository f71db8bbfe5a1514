// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Config holds all service configuration.
type Config struct {
	// Port is the HTTP listen port.
	Port string

	// DBPath is the SQLite database file path.
	DBPath string

	// SessionStaleness is how long an untouched dialog session stays
	// resumable before a fresh contact starts over.
	SessionStaleness time.Duration

	// WelcomeDelay is how long after registration progress the welcome
	// message is held back.
	WelcomeDelay time.Duration

	// SurveyDir is the directory of survey definition YAML files. Empty
	// disables survey flows.
	SurveyDir string

	// BoundarySeedPath and SchoolSeedPath are optional CSV seed files for the
	// reference tables, loaded at startup when the tables are empty.
	BoundarySeedPath string
	SchoolSeedPath   string

	// GatewayTokens is the allowlist of gateway auth tokens. Empty allows
	// all callers (development mode).
	GatewayTokens []string

	// DefaultLanguage is the language used for customers with no recorded
	// preference.
	DefaultLanguage string

	// Country scopes boundary-name resolution.
	Country string
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:             getEnv("SHAMBA_PORT", "8080"),
		DBPath:           getEnv("SHAMBA_DB_PATH", "./data/shamba.db"),
		SessionStaleness: getDuration("SHAMBA_SESSION_STALENESS", 7*24*time.Hour),
		WelcomeDelay:     getDuration("SHAMBA_WELCOME_DELAY", 5*time.Minute),
		SurveyDir:        getEnv("SHAMBA_SURVEY_DIR", ""),
		BoundarySeedPath: getEnv("SHAMBA_BOUNDARY_SEED", ""),
		SchoolSeedPath:   getEnv("SHAMBA_SCHOOL_SEED", ""),
		GatewayTokens:    getList("SHAMBA_GATEWAY_TOKENS"),
		DefaultLanguage:  getEnv("SHAMBA_DEFAULT_LANGUAGE", "en"),
		Country:          getEnv("SHAMBA_COUNTRY", "kenya"),
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("SHAMBA_PORT must not be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("SHAMBA_DB_PATH must not be empty")
	}
	if c.SessionStaleness <= 0 {
		return fmt.Errorf("SHAMBA_SESSION_STALENESS must be positive")
	}
	if c.WelcomeDelay < 0 {
		return fmt.Errorf("SHAMBA_WELCOME_DELAY must not be negative")
	}
	if c.Country == "" {
		return fmt.Errorf("SHAMBA_COUNTRY must not be empty")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration in environment, using default",
			"key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}

func getList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
