package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DEBUG", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 8000 {
		t.Errorf("Port = %d, want 8000", cfg.Port)
	}
	if cfg.Bind != "127.0.0.1" {
		t.Errorf("Bind = %q, want 127.0.0.1", cfg.Bind)
	}
	if cfg.DatabaseDriver != "sqlite" {
		t.Errorf("DatabaseDriver = %q, want sqlite", cfg.DatabaseDriver)
	}
	if cfg.TokenTTL != 30*time.Minute {
		t.Errorf("TokenTTL = %v, want 30m", cfg.TokenTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("TOKEN_SECRET", "test-secret")
	t.Setenv("TOKEN_TTL_MINUTES", "120")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Port)
	}
	if cfg.DatabaseDriver != "postgres" {
		t.Errorf("DatabaseDriver = %q, want postgres", cfg.DatabaseDriver)
	}
	if cfg.TokenSecret != "test-secret" {
		t.Errorf("TokenSecret = %q", cfg.TokenSecret)
	}
	if cfg.TokenTTL != 2*time.Hour {
		t.Errorf("TokenTTL = %v, want 2h", cfg.TokenTTL)
	}
}

func TestLoadRejectsDefaultSecretInProduction(t *testing.T) {
	t.Setenv("DEBUG", "false")
	t.Setenv("TOKEN_SECRET", "")

	if _, err := Load(); err == nil {
		t.Error("Load() should reject the default token secret outside debug mode")
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DEBUG", "true")
	t.Setenv("DATABASE_DRIVER", "oracle")

	if _, err := Load(); err == nil {
		t.Error("Load() should reject an unsupported database driver")
	}
}
