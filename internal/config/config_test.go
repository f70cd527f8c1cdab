// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"bytes"
	"os"
	"testing"
	"time"
)

const testSecret = "test-secret-key-32-bytes-long!!!"

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set %s: %v", key, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	// Clear environment and set only required var
	os.Clearenv()
	setEnv(t, "ECOLE_SESSION_SECRET", testSecret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBPath != "./data/ecole.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "./data/ecole.db")
	}
	if cfg.ServerHost != "localhost" {
		t.Errorf("ServerHost = %q, want %q", cfg.ServerHost, "localhost")
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 8080)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want %q", cfg.Env, "development")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.APIURL != "http://localhost:8001" {
		t.Errorf("APIURL = %q, want %q", cfg.APIURL, "http://localhost:8001")
	}
	if cfg.APITimeoutDuration() != 15*time.Second {
		t.Errorf("APITimeoutDuration() = %v, want 15s", cfg.APITimeoutDuration())
	}
	if cfg.NoticeTTLDuration() != 5*time.Second {
		t.Errorf("NoticeTTLDuration() = %v, want 5s", cfg.NoticeTTLDuration())
	}
	if cfg.ProfileTTLDuration() != 5*time.Minute {
		t.Errorf("ProfileTTLDuration() = %v, want 5m", cfg.ProfileTTLDuration())
	}
	if cfg.MaxUploadBytes() != 5<<20 {
		t.Errorf("MaxUploadBytes() = %d, want %d", cfg.MaxUploadBytes(), 5<<20)
	}
	if cfg.UseRedisSessions() {
		t.Error("UseRedisSessions() = true, want false")
	}
	if _, _, ok := cfg.ResetShortcut(); ok {
		t.Error("reset shortcut must be disabled by default")
	}
	if cfg.EventRetention() != 30*24*time.Hour {
		t.Errorf("EventRetention() = %v, want 720h", cfg.EventRetention())
	}
	if !cfg.APIProbe {
		t.Error("APIProbe = false, want true")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Clearenv()
	customSecret := "custom-secret-key-32-bytes-long!"
	setEnv(t, "ECOLE_SESSION_SECRET", customSecret)
	setEnv(t, "ECOLE_DB_PATH", "/custom/path.db")
	setEnv(t, "ECOLE_SERVER_HOST", "0.0.0.0")
	setEnv(t, "ECOLE_SERVER_PORT", "3000")
	setEnv(t, "ECOLE_ENV", "production")
	setEnv(t, "ECOLE_LOG_LEVEL", "debug")
	setEnv(t, "ECOLE_API_URL", "https://api.ecoledesgenies.com")
	setEnv(t, "ECOLE_API_TIMEOUT", "30")
	setEnv(t, "ECOLE_REDIS_URL", "redis://localhost:6379/0")
	setEnv(t, "ECOLE_NOTICE_TTL", "8")
	setEnv(t, "ECOLE_MAX_UPLOAD_MB", "10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.SessionSecret != customSecret {
		t.Errorf("SessionSecret = %q, want %q", cfg.SessionSecret, customSecret)
	}
	if cfg.DBPath != "/custom/path.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "/custom/path.db")
	}
	if cfg.ServerAddr() != "0.0.0.0:3000" {
		t.Errorf("ServerAddr() = %q, want %q", cfg.ServerAddr(), "0.0.0.0:3000")
	}
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() = true, want false")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.APIURL != "https://api.ecoledesgenies.com" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.APITimeoutDuration() != 30*time.Second {
		t.Errorf("APITimeoutDuration() = %v, want 30s", cfg.APITimeoutDuration())
	}
	if !cfg.UseRedisSessions() {
		t.Error("UseRedisSessions() = false, want true")
	}
	if cfg.NoticeTTLDuration() != 8*time.Second {
		t.Errorf("NoticeTTLDuration() = %v, want 8s", cfg.NoticeTTLDuration())
	}
	if cfg.MaxUploadBytes() != 10<<20 {
		t.Errorf("MaxUploadBytes() = %d, want %d", cfg.MaxUploadBytes(), 10<<20)
	}
}

func TestLoad_RequiredSessionSecret(t *testing.T) {
	os.Clearenv()
	// Don't set ECOLE_SESSION_SECRET

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should fail when ECOLE_SESSION_SECRET is not set")
	}
}

func TestLoad_SessionSecretTooShort(t *testing.T) {
	tests := []struct {
		name   string
		secret string
	}{
		{"empty", ""},
		{"short", "short"},
		{"31_bytes", "1234567890123456789012345678901"}, // 31 bytes
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			setEnv(t, "ECOLE_SESSION_SECRET", tt.secret)

			_, err := Load()
			if err == nil {
				t.Fatalf("Load() should fail with %d-byte secret", len(tt.secret))
			}
		})
	}
}

func TestLoad_KnownWeakSecret(t *testing.T) {
	for _, weak := range knownWeakSecrets {
		os.Clearenv()
		setEnv(t, "ECOLE_SESSION_SECRET", weak)

		if _, err := Load(); err == nil {
			t.Errorf("Load() should reject known secret %q", weak)
		}
	}
}

func TestLoad_InvalidDurations(t *testing.T) {
	for _, key := range []string{"ECOLE_API_TIMEOUT", "ECOLE_NOTICE_TTL", "ECOLE_MAX_UPLOAD_MB"} {
		t.Run(key, func(t *testing.T) {
			os.Clearenv()
			setEnv(t, "ECOLE_SESSION_SECRET", testSecret)
			setEnv(t, key, "0")

			if _, err := Load(); err == nil {
				t.Fatalf("Load() should fail with %s=0", key)
			}
		})
	}
}

func TestLoad_NegativeRetention(t *testing.T) {
	os.Clearenv()
	setEnv(t, "ECOLE_SESSION_SECRET", testSecret)
	setEnv(t, "ECOLE_EVENT_RETENTION_DAYS", "-1")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject a negative retention")
	}
}

func TestLoad_ResetShortcut(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		os.Clearenv()
		setEnv(t, "ECOLE_SESSION_SECRET", testSecret)
		setEnv(t, "ECOLE_ADMIN_RESET_SHORTCUT", "marine@example.com:Marine77")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		email, password, ok := cfg.ResetShortcut()
		if !ok || email != "marine@example.com" || password != "Marine77" {
			t.Errorf("ResetShortcut() = %q, %q, %v", email, password, ok)
		}
	})

	t.Run("password with colon", func(t *testing.T) {
		cfg := Config{AdminResetShortcut: "a@b.fr:pa:ss"}
		_, password, ok := cfg.ResetShortcut()
		if !ok || password != "pa:ss" {
			t.Errorf("ResetShortcut() password = %q, ok = %v", password, ok)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		os.Clearenv()
		setEnv(t, "ECOLE_SESSION_SECRET", testSecret)
		setEnv(t, "ECOLE_ADMIN_RESET_SHORTCUT", "no-password")

		if _, err := Load(); err == nil {
			t.Fatal("Load() should reject a malformed shortcut")
		}
	})
}

func TestConfig_CSRFKey(t *testing.T) {
	cfg := Config{SessionSecret: testSecret}

	key, err := cfg.CSRFKey()
	if err != nil {
		t.Fatalf("CSRFKey() error: %v", err)
	}
	if len(key) != 32 {
		t.Fatalf("len(CSRFKey()) = %d, want 32", len(key))
	}
	if bytes.Equal(key, []byte(testSecret)) {
		t.Error("CSRF key must differ from the session secret")
	}

	again, _ := cfg.CSRFKey()
	if !bytes.Equal(key, again) {
		t.Error("CSRFKey() must be deterministic")
	}

	other, _ := Config{SessionSecret: "another-secret-key-32-bytes-long"}.CSRFKey()
	if bytes.Equal(key, other) {
		t.Error("different secrets must give different keys")
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		env  string
		want bool
	}{
		{"development", true},
		{"production", false},
		{"staging", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := Config{Env: tt.env}
			if got := cfg.IsDevelopment(); got != tt.want {
				t.Errorf("IsDevelopment() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasMinimumEntropy(t *testing.T) {
	tests := []struct {
		secret string
		want   bool
	}{
		{"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", false},
		{"aaaaaaaaaaaaaaaaAAAAAAAAAAAAAAAA", false},
		{"aaaaaaaaaaaAAAAAAAAAAA1111111111", true},
		{testSecret, true},
	}

	for _, tt := range tests {
		if got := hasMinimumEntropy(tt.secret); got != tt.want {
			t.Errorf("hasMinimumEntropy(%q) = %v, want %v", tt.secret, got, tt.want)
		}
	}
}
