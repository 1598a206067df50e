package goOnboard

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Config is the library configuration. Start from [DefaultConfig] and override
// what you need; [Builder.Build] validates it.
type Config struct {
	Backend  BackendConfig
	Session  SessionConfig
	Recovery RecoveryConfig
	KYC      KYCConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
BACKEND CONFIG
====================================
*/

// BackendConfig points at the external auth/verification API.
type BackendConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the durable session slot. Each account scope is
// stored under "<KeyPrefix>:<scope>". A zero TTL persists without expiry.
type SessionConfig struct {
	KeyPrefix   string
	TTL         time.Duration
	MaxScopeLen int
}

/*
====================================
WIZARD CONFIG
====================================
*/

// RecoveryConfig tunes the password-recovery wizard.
type RecoveryConfig struct {
	ResendCooldown time.Duration
}

// KYCConfig tunes the identity-verification wizard.
type KYCConfig struct {
	RedirectDelay time.Duration
	JPEGQuality   int
}

/*
====================================
OBSERVABILITY CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the defaults used when no override is given.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Backend: BackendConfig{
			Timeout:   15 * time.Second,
			UserAgent: "goOnboard",
		},
		Session: SessionConfig{
			KeyPrefix:   "onboard:session",
			TTL:         30 * 24 * time.Hour,
			MaxScopeLen: 128,
		},
		Recovery: RecoveryConfig{
			ResendCooldown: 60 * time.Second,
		},
		KYC: KYCConfig{
			RedirectDelay: 3 * time.Second,
			JPEGQuality:   92,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	return cfg
}

// Validate checks the configuration for values Build cannot run with.
func (c *Config) Validate() error {
	// Backend
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		return errors.New("Backend BaseURL is required")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("Backend BaseURL must be an absolute http(s) URL")
	}
	if c.Backend.Timeout <= 0 {
		return errors.New("Backend Timeout must be > 0")
	}

	// Session
	if strings.TrimSpace(c.Session.KeyPrefix) == "" {
		return errors.New("Session KeyPrefix must not be empty")
	}
	if c.Session.TTL < 0 {
		return errors.New("Session TTL must be >= 0")
	}
	if c.Session.MaxScopeLen <= 0 {
		return errors.New("Session MaxScopeLen must be > 0")
	}

	// Wizards
	if c.Recovery.ResendCooldown < time.Second {
		return errors.New("Recovery ResendCooldown must be >= 1s")
	}
	if c.KYC.RedirectDelay < 0 {
		return errors.New("KYC RedirectDelay must be >= 0")
	}
	if c.KYC.JPEGQuality < 1 || c.KYC.JPEGQuality > 100 {
		return errors.New("KYC JPEGQuality must be within 1..100")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
