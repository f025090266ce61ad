package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("FLOOD_API_URL", "")
	t.Setenv("FLOOD_LANG", "")
	t.Setenv("FLOOD_SAVE_DIR", "")
	t.Setenv("FLOOD_HTTP_TIMEOUT", "")

	cfg := FromEnv()
	if cfg.APIBaseURL != "http://localhost:8000" {
		t.Errorf("Expected default API URL, got %q", cfg.APIBaseURL)
	}
	if cfg.Language != "en" {
		t.Errorf("Expected default language en, got %q", cfg.Language)
	}
	if cfg.SaveDir != ".saves" {
		t.Errorf("Expected default save dir .saves, got %q", cfg.SaveDir)
	}
	if cfg.HTTPTimeout != 20*time.Second {
		t.Errorf("Expected default timeout 20s, got %v", cfg.HTTPTimeout)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("FLOOD_API_URL", "http://sim.internal:9000")
	t.Setenv("FLOOD_LANG", "zh")
	t.Setenv("FLOOD_SAVE_DIR", "/tmp/saves")
	t.Setenv("FLOOD_HTTP_TIMEOUT", "45s")

	cfg := FromEnv()
	if cfg.APIBaseURL != "http://sim.internal:9000" {
		t.Errorf("Expected overridden API URL, got %q", cfg.APIBaseURL)
	}
	if cfg.Language != "zh" {
		t.Errorf("Expected language zh, got %q", cfg.Language)
	}
	if cfg.SaveDir != "/tmp/saves" {
		t.Errorf("Expected overridden save dir, got %q", cfg.SaveDir)
	}
	if cfg.HTTPTimeout != 45*time.Second {
		t.Errorf("Expected timeout 45s, got %v", cfg.HTTPTimeout)
	}
}

func TestFromEnvBadTimeout(t *testing.T) {
	t.Setenv("FLOOD_HTTP_TIMEOUT", "soon")
	if cfg := FromEnv(); cfg.HTTPTimeout != 20*time.Second {
		t.Errorf("Expected fallback to 20s on a bad duration, got %v", cfg.HTTPTimeout)
	}
}
