package config

import (
	"os"
	"time"
)

// Config holds the client configuration.
type Config struct {
	APIBaseURL  string
	Language    string
	SaveDir     string
	HTTPTimeout time.Duration
}

// FromEnv reads configuration from environment variables, with defaults
// suitable for a locally running simulation service.
func FromEnv() Config {
	c := Config{}
	c.APIBaseURL = getenv("FLOOD_API_URL", "http://localhost:8000")
	c.Language = getenv("FLOOD_LANG", "en")
	c.SaveDir = getenv("FLOOD_SAVE_DIR", ".saves")
	c.HTTPTimeout = 20 * time.Second
	if v := os.Getenv("FLOOD_HTTP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.HTTPTimeout = d
		}
	}
	return c
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
