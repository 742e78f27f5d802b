package config

import (
	"testing"
	"time"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("NEON_DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when no database URL is set")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/alerts")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIPort != 8000 {
		t.Errorf("APIPort = %d, want 8000", cfg.APIPort)
	}
	if cfg.PushBatchSize != 100 {
		t.Errorf("PushBatchSize = %d, want 100", cfg.PushBatchSize)
	}
	if cfg.ExpoPushURL != DefaultExpoPushURL {
		t.Errorf("ExpoPushURL = %q", cfg.ExpoPushURL)
	}
	if cfg.PushTimeout != 15*time.Second {
		t.Errorf("PushTimeout = %s, want 15s", cfg.PushTimeout)
	}
	if !cfg.ListenerEnabled || !cfg.MetricsEnabled {
		t.Error("listener and metrics should default to enabled")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/alerts")
	t.Setenv("API_PORT", "9090")
	t.Setenv("PUSH_BATCH_SIZE", "25")
	t.Setenv("CORS_ALLOW_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("LISTENER_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIPort != 9090 {
		t.Errorf("APIPort = %d, want 9090", cfg.APIPort)
	}
	if cfg.PushBatchSize != 25 {
		t.Errorf("PushBatchSize = %d, want 25", cfg.PushBatchSize)
	}
	if len(cfg.CORSAllowOrigins) != 2 || cfg.CORSAllowOrigins[1] != "https://b.example" {
		t.Errorf("CORSAllowOrigins = %v", cfg.CORSAllowOrigins)
	}
	if cfg.ListenerEnabled {
		t.Error("ListenerEnabled should be false")
	}
}

func TestLoadRejectsOversizedBatch(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/alerts")
	t.Setenv("PUSH_BATCH_SIZE", "500")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for batch size above the gateway limit")
	}
}
