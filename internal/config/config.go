// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/crypto/hkdf"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"ECOLE_DB_PATH" envDefault:"./data/ecole.db"`
	SessionSecret string `env:"ECOLE_SESSION_SECRET,required"`
	ServerHost    string `env:"ECOLE_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"ECOLE_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"ECOLE_ENV" envDefault:"development"`
	LogLevel      string `env:"ECOLE_LOG_LEVEL" envDefault:"info"`

	// Remote API
	APIURL     string `env:"ECOLE_API_URL" envDefault:"http://localhost:8001"`
	APITimeout int    `env:"ECOLE_API_TIMEOUT" envDefault:"15"` // seconds

	// Session storage
	RedisURL    string `env:"ECOLE_REDIS_URL"`                            // Optional Redis URL for the session store
	RedisPrefix string `env:"ECOLE_REDIS_PREFIX" envDefault:"ecole:scs:"` // Redis key prefix

	// Portal behaviour
	NoticeTTL   int `env:"ECOLE_NOTICE_TTL" envDefault:"5"`    // seconds a notice stays visible
	ProfileTTL  int `env:"ECOLE_PROFILE_TTL" envDefault:"300"` // seconds before the profile is fetched again
	MaxUploadMB int `env:"ECOLE_MAX_UPLOAD_MB" envDefault:"5"`

	// Background jobs
	EventRetentionDays int  `env:"ECOLE_EVENT_RETENTION_DAYS" envDefault:"30"` // 0 keeps events forever
	APIProbe           bool `env:"ECOLE_API_PROBE" envDefault:"true"`

	// AdminResetShortcut enables the one-click admin password reset, as "email:password".
	AdminResetShortcut string `env:"ECOLE_ADMIN_RESET_SHORTCUT"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisSessions returns true if sessions are stored in Redis.
func (c Config) UseRedisSessions() bool {
	return c.RedisURL != ""
}

// APITimeoutDuration returns the remote API timeout.
func (c Config) APITimeoutDuration() time.Duration {
	return time.Duration(c.APITimeout) * time.Second
}

// NoticeTTLDuration returns how long a notice stays visible.
func (c Config) NoticeTTLDuration() time.Duration {
	return time.Duration(c.NoticeTTL) * time.Second
}

// ProfileTTLDuration returns the maximum age of a cached profile.
func (c Config) ProfileTTLDuration() time.Duration {
	return time.Duration(c.ProfileTTL) * time.Second
}

// MaxUploadBytes returns the verification upload limit in bytes.
func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// EventRetention returns how long event log rows are kept, or 0 to keep them.
func (c Config) EventRetention() time.Duration {
	return time.Duration(c.EventRetentionDays) * 24 * time.Hour
}

// ResetShortcut returns the email and password of the admin reset shortcut.
// ok is false when the shortcut is not configured.
func (c Config) ResetShortcut() (email, password string, ok bool) {
	email, password, ok = strings.Cut(c.AdminResetShortcut, ":")
	email = strings.TrimSpace(email)
	if !ok || email == "" || password == "" {
		return "", "", false
	}
	return email, password, true
}

// CSRFKey derives the 32-byte CSRF key from the session secret so the two
// never share key material.
func (c Config) CSRFKey() ([]byte, error) {
	key := make([]byte, 32)
	r := hkdf.New(sha256.New, []byte(c.SessionSecret), nil, []byte("ecole csrf"))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("deriving csrf key: %w", err)
	}
	return key, nil
}

// MinSessionSecretLength is the minimum required length for the session secret.
// AES-256 requires 32 bytes minimum for secure encryption.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Validate session secret length
	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("ECOLE_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	// Reject known weak/default secrets
	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("ECOLE_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if cfg.APITimeout <= 0 {
		return nil, fmt.Errorf("ECOLE_API_TIMEOUT must be positive, got %d", cfg.APITimeout)
	}
	if cfg.NoticeTTL <= 0 {
		return nil, fmt.Errorf("ECOLE_NOTICE_TTL must be positive, got %d", cfg.NoticeTTL)
	}
	if cfg.MaxUploadMB <= 0 {
		return nil, fmt.Errorf("ECOLE_MAX_UPLOAD_MB must be positive, got %d", cfg.MaxUploadMB)
	}
	if cfg.EventRetentionDays < 0 {
		return nil, fmt.Errorf("ECOLE_EVENT_RETENTION_DAYS must not be negative, got %d", cfg.EventRetentionDays)
	}
	if cfg.AdminResetShortcut != "" {
		if _, _, ok := cfg.ResetShortcut(); !ok {
			return nil, fmt.Errorf("ECOLE_ADMIN_RESET_SHORTCUT must have the form email:password")
		}
		slog.Warn("admin password reset shortcut is enabled; disable ECOLE_ADMIN_RESET_SHORTCUT in production")
	}

	// Warn about low-entropy secrets
	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("ECOLE_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
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
