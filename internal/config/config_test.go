package config

import (
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("BACKEND_URL", "https://api.example.com")
	t.Setenv("COOKIE_SECRET", "0123456789abcdef")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8080 || cfg.LogLevel != "info" || cfg.SessionStore != StoreMemory {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.BackendTimeout != 15*time.Second || cfg.ResendCooldown != 60*time.Second || cfg.RedirectDelay != 3*time.Second {
		t.Fatalf("unexpected durations %+v", cfg)
	}
	if !cfg.CookieSecure || !cfg.AuditEnabled {
		t.Fatal("expected secure cookie and audit on by default")
	}

	lib := cfg.Engine()
	if lib.Backend.BaseURL != "https://api.example.com" || lib.Session.TTL != 720*time.Hour {
		t.Fatalf("unexpected engine config %+v", lib)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_STORE", "Redis")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("BACKEND_TIMEOUT", "2s")
	t.Setenv("COOKIE_SECURE", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9090 || cfg.SessionStore != StoreRedis || cfg.RedisAddr != "cache:6379" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.BackendTimeout != 2*time.Second || cfg.CookieSecure {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadRejects(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing backend", map[string]string{"BACKEND_URL": ""}, "BACKEND_URL"},
		{"short secret", map[string]string{"COOKIE_SECRET": "short"}, "COOKIE_SECRET"},
		{"unknown store", map[string]string{"SESSION_STORE": "mongo"}, "SESSION_STORE"},
		{"vendor half set", map[string]string{"VENDOR_URL": "https://v.example.com"}, "VENDOR"},
		{"bad backend", map[string]string{"BACKEND_URL": "api.example.com"}, "BaseURL"},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %s, got %v", tt.want, err)
			}
		})
	}
}
