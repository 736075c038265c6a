// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the site configuration from VETPL_ environment
// variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Identity backends.
const (
	BackendDemo = "demo"
	BackendSQL  = "sql"
	BackendHTTP = "http"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"VETPL_DB_PATH" envDefault:"./data/vetpl.db"`
	SessionSecret string `env:"VETPL_SESSION_SECRET,required"`
	ServerHost    string `env:"VETPL_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"VETPL_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"VETPL_ENV" envDefault:"development"`
	LogLevel      string `env:"VETPL_LOG_LEVEL" envDefault:"info"`

	// Namespace of the session keys (<namespace>_user, <namespace>_token).
	SessionNamespace string `env:"VETPL_SESSION_NAMESPACE" envDefault:"company"`

	// IdentityBackend selects who holds the accounts: demo, sql or http.
	IdentityBackend string        `env:"VETPL_IDENTITY_BACKEND" envDefault:"demo"`
	TokenTTL        time.Duration `env:"VETPL_TOKEN_TTL" envDefault:"24h"`

	// Careers/leads backend.
	APIBaseURL string        `env:"VETPL_API_BASE_URL" envDefault:"http://localhost:8000/api/v1"`
	APITimeout time.Duration `env:"VETPL_API_TIMEOUT" envDefault:"10s"`
	APIRetries int           `env:"VETPL_API_RETRIES" envDefault:"3"`

	// Cache configuration
	CacheType    string        `env:"VETPL_CACHE_TYPE" envDefault:"memory"` // memory or redis
	RedisURL     string        `env:"VETPL_REDIS_URL"`
	CachePrefix  string        `env:"VETPL_CACHE_PREFIX" envDefault:"vetpl:"`
	CacheMaxSize int           `env:"VETPL_CACHE_MAX_SIZE" envDefault:"10000"`
	ListingTTL   time.Duration `env:"VETPL_LISTING_TTL" envDefault:"15m"`

	// MaxUploadMB bounds multipart request bodies.
	MaxUploadMB int64 `env:"VETPL_MAX_UPLOAD_MB" envDefault:"60"`

	EventRetention time.Duration `env:"VETPL_EVENT_RETENTION" envDefault:"2160h"`
	GeoIPDBPath    string        `env:"VETPL_GEOIP_DB_PATH"` // Path to GeoLite2-Country.mmdb file

	// SiteURL is the canonical origin used in sitemap.xml and robots.txt.
	// Empty derives it from each request.
	SiteURL string `env:"VETPL_SITE_URL"`

	// ContentDir overrides the embedded markdown pages when set.
	ContentDir string `env:"VETPL_CONTENT_DIR"`

	MetricsEnabled bool `env:"VETPL_METRICS_ENABLED" envDefault:"true"`
	DoSeed         bool `env:"VETPL_DO_SEED" envDefault:"false"`

	// DemoResetInterval wipes and reseeds the database on startup once
	// elapsed. Zero disables it.
	DemoResetInterval time.Duration `env:"VETPL_DEMO_RESET_INTERVAL" envDefault:"0"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if the application is running in production mode.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.CacheType == "redis" && c.RedisURL != ""
}

// GeoIPEnabled returns true if GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// MaxUploadBytes returns MaxUploadMB in bytes.
func (c Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// MinSessionSecretLength is the minimum required length for the session secret.
// AES-256 requires 32 bytes minimum for secure encryption.
const MinSessionSecretLength = 32

// minUploadMB keeps room for a 10MB project attachment plus form fields.
const minUploadMB = 11

// LoadDotEnv reads .env files when present. Variables already set win.
func LoadDotEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Validate session secret length
	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("VETPL_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	// Reject known weak/default secrets
	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, errors.New("VETPL_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	// Warn about low-entropy secrets
	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("VETPL_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.IdentityBackend = strings.ToLower(strings.TrimSpace(c.IdentityBackend))
	switch c.IdentityBackend {
	case BackendDemo, BackendSQL, BackendHTTP:
	default:
		return fmt.Errorf("VETPL_IDENTITY_BACKEND must be one of demo, sql, http; got %q", c.IdentityBackend)
	}

	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("VETPL_API_BASE_URL must be an absolute http(s) URL; got %q", c.APIBaseURL)
	}
	if c.APITimeout <= 0 {
		return errors.New("VETPL_API_TIMEOUT must be positive")
	}
	if c.APIRetries < 1 {
		return errors.New("VETPL_API_RETRIES must be at least 1")
	}

	switch c.CacheType {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			return errors.New("VETPL_REDIS_URL is required when VETPL_CACHE_TYPE=redis")
		}
	default:
		return fmt.Errorf("VETPL_CACHE_TYPE must be memory or redis; got %q", c.CacheType)
	}

	if c.MaxUploadMB < minUploadMB {
		return fmt.Errorf("VETPL_MAX_UPLOAD_MB must be at least %d", minUploadMB)
	}
	if strings.TrimSpace(c.SessionNamespace) == "" {
		return errors.New("VETPL_SESSION_NAMESPACE must not be empty")
	}
	return nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
