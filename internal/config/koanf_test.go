// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testSecret = "k3yk3yk3yk3yk3yk3yk3yk3yk3yk3yk3yk3y"

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Server.BodyLimit != 10*1024 {
		t.Errorf("Server.BodyLimit = %d, want 10KiB", cfg.Server.BodyLimit)
	}
	if cfg.Security.JWTExpiresIn != 90*24*time.Hour {
		t.Errorf("Security.JWTExpiresIn = %v, want 90d", cfg.Security.JWTExpiresIn)
	}
	if cfg.Security.RateLimitReqs != 100 || cfg.Security.RateLimitWindow != time.Hour {
		t.Errorf("rate limit = %d per %v, want 100 per 1h", cfg.Security.RateLimitReqs, cfg.Security.RateLimitWindow)
	}
	if cfg.API.DefaultPageSize != 100 {
		t.Errorf("API.DefaultPageSize = %d, want 100", cfg.API.DefaultPageSize)
	}
	if cfg.Bookings.HoldTTL != 30*time.Minute {
		t.Errorf("Bookings.HoldTTL = %v, want 30m", cfg.Bookings.HoldTTL)
	}
	if cfg.Uploads.PhotoSize != 500 || cfg.Uploads.CoverWidth != 2000 || cfg.Uploads.CoverHeight != 1333 {
		t.Errorf("upload sizes = %d/%dx%d", cfg.Uploads.PhotoSize, cfg.Uploads.CoverWidth, cfg.Uploads.CoverHeight)
	}
}

func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("PORT", "8080")
	t.Setenv("NODE_ENV", "development")
	t.Setenv("JWT_EXPIRES_IN", "30d")
	t.Setenv("JWT_COOKIE_EXPIRES_IN", "7")
	t.Setenv("CORS_ORIGINS", "https://a.example.org, https://b.example.org")
	t.Setenv("EMAIL_HOST", "smtp.mailtrap.io")
	t.Setenv("EMAIL_PORT", "2525")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Security.JWTExpiresIn != 30*24*time.Hour {
		t.Errorf("JWTExpiresIn = %v, want 720h", cfg.Security.JWTExpiresIn)
	}
	if cfg.Security.CookieExpiresIn != 7*24*time.Hour {
		t.Errorf("CookieExpiresIn = %v, want 168h", cfg.Security.CookieExpiresIn)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "https://b.example.org" {
		t.Errorf("CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
	if cfg.Email.Host != "smtp.mailtrap.io" || cfg.Email.Port != 2525 {
		t.Errorf("Email = %s:%d", cfg.Email.Host, cfg.Email.Port)
	}
}

func TestLoadWithKoanf_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 4000
bookings:
  hold_ttl: 45m
api:
  default_page_size: 20
  max_page_size: 200
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Server.Port != 4000 {
		t.Errorf("Server.Port = %d, want 4000", cfg.Server.Port)
	}
	if cfg.Bookings.HoldTTL != 45*time.Minute {
		t.Errorf("Bookings.HoldTTL = %v, want 45m", cfg.Bookings.HoldTTL)
	}
	if cfg.API.DefaultPageSize != 20 || cfg.API.MaxPageSize != 200 {
		t.Errorf("API = %+v", cfg.API)
	}
}

func TestLoadWithKoanf_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := LoadWithKoanf(); err == nil {
		t.Error("LoadWithKoanf() expected error without JWT_SECRET")
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"90d", 90 * 24 * time.Hour, false},
		{"90", 90 * 24 * time.Hour, false},
		{"1h", time.Hour, false},
		{"1m30s", 90 * time.Second, false},
		{" 2d ", 48 * time.Hour, false},
		{"soon", 0, true},
		{"-3d", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDuration(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDuration(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := map[string]string{
		"PORT":                  "server.port",
		"NODE_ENV":              "server.environment",
		"JWT_COOKIE_EXPIRES_IN": "security.cookie_expires_in",
		"STRIPE_SECRET_KEY":     "payments.stripe_secret_key",
		"EMAIL_PASSWORD":        "email.password",
		"HOME":                  "",
		"PATH":                  "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFindConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 4000\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	if got := FindConfigFile(); got != path {
		t.Errorf("FindConfigFile() = %q, want %q", got, path)
	}
}

func TestWatchConfigFile_StopsCleanly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 4000\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	stop, err := WatchConfigFile(path, func() {}, nil)
	if err != nil {
		t.Fatalf("WatchConfigFile() error = %v", err)
	}
	if err := stop(); err != nil {
		t.Errorf("stop() error = %v", err)
	}
}
