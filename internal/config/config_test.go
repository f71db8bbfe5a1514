package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.SessionStaleness != 7*24*time.Hour {
		t.Errorf("SessionStaleness = %v", cfg.SessionStaleness)
	}
	if cfg.WelcomeDelay != 5*time.Minute {
		t.Errorf("WelcomeDelay = %v", cfg.WelcomeDelay)
	}
	if cfg.DefaultLanguage != "en" {
		t.Errorf("DefaultLanguage = %q", cfg.DefaultLanguage)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults failed validation: %v", err)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SHAMBA_PORT", "9999")
	t.Setenv("SHAMBA_SESSION_STALENESS", "48h")
	t.Setenv("SHAMBA_GATEWAY_TOKENS", "a, b ,c")
	t.Setenv("SHAMBA_COUNTRY", "uganda")

	cfg := Load()
	if cfg.Port != "9999" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.SessionStaleness != 48*time.Hour {
		t.Errorf("SessionStaleness = %v", cfg.SessionStaleness)
	}
	if len(cfg.GatewayTokens) != 3 || cfg.GatewayTokens[1] != "b" {
		t.Errorf("GatewayTokens = %v", cfg.GatewayTokens)
	}
	if cfg.Country != "uganda" {
		t.Errorf("Country = %q", cfg.Country)
	}
}

func TestInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("SHAMBA_WELCOME_DELAY", "soon")

	cfg := Load()
	if cfg.WelcomeDelay != 5*time.Minute {
		t.Errorf("WelcomeDelay = %v, want default", cfg.WelcomeDelay)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Load()
	cfg.SessionStaleness = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for zero staleness")
	}

	cfg = Load()
	cfg.DBPath = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for empty DB path")
	}
}
