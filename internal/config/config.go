package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config captures the runtime configuration for the vidvault client.
type Config struct {
	APIBaseURL     string
	RequestTimeout time.Duration
	StateDir       string
	Keyphrase      string
	LogFile        string
	LogLevel       string
	RateLimit      int
	RateBurst      int
}

// Load reads configuration from environment variables, applying sensible
// defaults for local development while allowing overrides through the
// environment. An optional .env file in the working directory is loaded
// first; a missing file is not an error.
func Load() (Config, error) {
	_ = godotenv.Load()

	stateDir, err := defaultStateDir()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		APIBaseURL:     getString("VIDVAULT_API_URL", "http://localhost:5000"),
		RequestTimeout: getDuration("VIDVAULT_TIMEOUT", 10*time.Second),
		StateDir:       getString("VIDVAULT_STATE_DIR", stateDir),
		Keyphrase:      os.Getenv("VIDVAULT_KEYPHRASE"),
		LogFile:        getString("VIDVAULT_LOG_FILE", ""),
		LogLevel:       getString("VIDVAULT_LOG_LEVEL", "info"),
		RateLimit:      getInt("VIDVAULT_RATE_LIMIT", 10),
		RateBurst:      getInt("VIDVAULT_RATE_BURST", 5),
	}

	parsed, err := url.Parse(cfg.APIBaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return Config{}, fmt.Errorf("invalid VIDVAULT_API_URL %q", cfg.APIBaseURL)
	}

	return cfg, nil
}

func defaultStateDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("determine user config dir: %w", err)
	}
	return filepath.Join(base, "vidvault"), nil
}

func getString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
