// Package config loads the onboarding server's process configuration from
// environment variables using Viper. Every key has a default except the
// backend URL and the cookie secret.
//
// # Environment Variables
//
//   - PORT: HTTP listen port. Default: 8080
//   - LOG_LEVEL: debug, info, warn, error. Default: info
//   - LOG_FORMAT: json or console. Default: json
//   - BACKEND_URL: auth/verification API base URL. Required.
//   - BACKEND_TIMEOUT: per-call timeout. Default: 15s
//   - SESSION_STORE: memory, redis or sqlite. Default: memory
//   - REDIS_ADDR, REDIS_PASSWORD, REDIS_DB: used when SESSION_STORE=redis
//   - SQLITE_DSN: used when SESSION_STORE=sqlite. Default: onboard.db
//   - COOKIE_SECRET: visitor cookie secret, at least 16 bytes. Required.
//   - VENDOR_URL, VENDOR_API_KEY: vendor-onboarding platform (optional)
//   - EIN_URL, EIN_API_KEY: business-identity service (optional)
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	goOnboard "github.com/MrEthical07/goOnboard"
	"github.com/spf13/viper"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

type Config struct {
	Port            int           `mapstructure:"PORT"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	LogFormat       string        `mapstructure:"LOG_FORMAT"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`

	BackendURL     string        `mapstructure:"BACKEND_URL"`
	BackendTimeout time.Duration `mapstructure:"BACKEND_TIMEOUT"`

	SessionStore  string        `mapstructure:"SESSION_STORE"`
	SessionTTL    time.Duration `mapstructure:"SESSION_TTL"`
	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	SQLiteDSN     string        `mapstructure:"SQLITE_DSN"`

	CookieSecret string        `mapstructure:"COOKIE_SECRET"`
	CookieSecure bool          `mapstructure:"COOKIE_SECURE"`
	CookieTTL    time.Duration `mapstructure:"COOKIE_TTL"`

	ResendCooldown time.Duration `mapstructure:"RESEND_COOLDOWN"`
	RedirectDelay  time.Duration `mapstructure:"REDIRECT_DELAY"`
	AuditEnabled   bool          `mapstructure:"AUDIT_ENABLED"`
	MetricsEnabled bool          `mapstructure:"METRICS_ENABLED"`

	VendorURL    string `mapstructure:"VENDOR_URL"`
	VendorAPIKey string `mapstructure:"VENDOR_API_KEY"`
	EINURL       string `mapstructure:"EIN_URL"`
	EINAPIKey    string `mapstructure:"EIN_API_KEY"`
}

// Load reads the environment. It uses its own Viper instance so repeated
// calls do not share state.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("BACKEND_URL", "")
	v.SetDefault("BACKEND_TIMEOUT", "15s")
	v.SetDefault("SESSION_STORE", StoreMemory)
	v.SetDefault("SESSION_TTL", "720h")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SQLITE_DSN", "onboard.db")
	v.SetDefault("COOKIE_SECRET", "")
	v.SetDefault("COOKIE_SECURE", true)
	v.SetDefault("COOKIE_TTL", "8760h")
	v.SetDefault("RESEND_COOLDOWN", "60s")
	v.SetDefault("REDIRECT_DELAY", "3s")
	v.SetDefault("AUDIT_ENABLED", true)
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("VENDOR_URL", "")
	v.SetDefault("VENDOR_API_KEY", "")
	v.SetDefault("EIN_URL", "")
	v.SetDefault("EIN_API_KEY", "")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.SessionStore = strings.ToLower(strings.TrimSpace(cfg.SessionStore))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the library config does not cover.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT %d out of range", c.Port)
	}
	if strings.TrimSpace(c.BackendURL) == "" {
		return errors.New("BACKEND_URL is required")
	}
	if len(c.CookieSecret) < 16 {
		return errors.New("COOKIE_SECRET must be at least 16 bytes")
	}
	if c.CookieTTL <= 0 {
		return errors.New("COOKIE_TTL must be > 0")
	}
	switch c.SessionStore {
	case StoreMemory, StoreRedis, StoreSQLite:
	default:
		return fmt.Errorf("SESSION_STORE %q is not one of memory, redis, sqlite", c.SessionStore)
	}
	if (c.VendorURL == "") != (c.VendorAPIKey == "") {
		return errors.New("VENDOR_URL and VENDOR_API_KEY must be set together")
	}
	if (c.EINURL == "") != (c.EINAPIKey == "") {
		return errors.New("EIN_URL and EIN_API_KEY must be set together")
	}

	lib := c.Engine()
	return lib.Validate()
}

// Engine maps the process settings onto the library configuration.
func (c *Config) Engine() goOnboard.Config {
	cfg := goOnboard.DefaultConfig()
	cfg.Backend.BaseURL = c.BackendURL
	cfg.Backend.Timeout = c.BackendTimeout
	cfg.Session.TTL = c.SessionTTL
	cfg.Recovery.ResendCooldown = c.ResendCooldown
	cfg.KYC.RedirectDelay = c.RedirectDelay
	cfg.Audit.Enabled = c.AuditEnabled
	cfg.Metrics.Enabled = c.MetricsEnabled
	cfg.Metrics.EnableLatencyHistograms = c.MetricsEnabled
	return cfg
}
