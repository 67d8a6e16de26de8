package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.APIBaseURL != "http://localhost:5000" {
		t.Fatalf("unexpected default base url %q", cfg.APIBaseURL)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Fatalf("unexpected default timeout %s", cfg.RequestTimeout)
	}
	if cfg.StateDir == "" {
		t.Fatal("expected a state dir default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("VIDVAULT_API_URL", "https://api.example.com")
	t.Setenv("VIDVAULT_TIMEOUT", "3s")
	t.Setenv("VIDVAULT_RATE_LIMIT", "42")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.APIBaseURL != "https://api.example.com" {
		t.Fatalf("override not applied, got %q", cfg.APIBaseURL)
	}
	if cfg.RequestTimeout != 3*time.Second {
		t.Fatalf("timeout override not applied, got %s", cfg.RequestTimeout)
	}
	if cfg.RateLimit != 42 {
		t.Fatalf("rate limit override not applied, got %d", cfg.RateLimit)
	}
}

func TestLoadRejectsInvalidBaseURL(t *testing.T) {
	t.Setenv("VIDVAULT_API_URL", "not a url")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid base url")
	}
}

func TestGetDurationFallsBackOnGarbage(t *testing.T) {
	t.Setenv("VIDVAULT_TIMEOUT", "soon")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Fatalf("expected fallback timeout, got %s", cfg.RequestTimeout)
	}
}
