package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBaseURL == "" {
		t.Fatalf("expected default api_base_url")
	}
	if cfg.APITimeout != 0 {
		t.Fatalf("expected no api timeout by default, got %v", cfg.APITimeout)
	}
	if cfg.RelayInterval != 300*time.Second {
		t.Fatalf("unexpected relay interval %v", cfg.RelayInterval)
	}
	if cfg.PublishTimeout != 10*time.Second || cfg.RelayRetryAttempts != 3 {
		t.Fatalf("unexpected publish settings %v / %d", cfg.PublishTimeout, cfg.RelayRetryAttempts)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://example.com/api/")
	t.Setenv("API_TIMEOUT_SECONDS", "7")
	t.Setenv("STORAGE_TYPE", "memory")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBaseURL != "https://example.com/api" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.APIBaseURL)
	}
	if cfg.APITimeout != 7*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.APITimeout)
	}
	if cfg.StorageType != "memory" {
		t.Fatalf("unexpected storage type %q", cfg.StorageType)
	}
}

func TestLoadRejectsBadBaseURL(t *testing.T) {
	t.Setenv("API_BASE_URL", "ftp://example.com")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for non-http scheme")
	}
}

func TestLoadRejectsNonPositiveIntervals(t *testing.T) {
	t.Setenv("RELAY_INTERVAL", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for zero relay_interval")
	}
}

func TestRedactedHidesPassword(t *testing.T) {
	cfg := Config{RelayPassword: "secret"}
	if got := cfg.Redacted().RelayPassword; got != "***" {
		t.Fatalf("expected redacted password, got %q", got)
	}
	if cfg.RelayPassword != "secret" {
		t.Fatalf("Redacted must not mutate receiver")
	}
}
