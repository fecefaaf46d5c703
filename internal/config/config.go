// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

// Package config loads application configuration.
//
// Loading order, lowest to highest priority:
//  1. Built-in defaults
//  2. Optional YAML file (CONFIG_PATH, config.yaml, /etc/cotswold/config.yaml)
//  3. Environment variables, after an optional config.env / .env file has
//     been merged into the process environment
//
// Config is immutable after Load and safe for concurrent reads.
package config

import (
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Ledger   LedgerConfig   `koanf:"ledger"`
	Security SecurityConfig `koanf:"security"`
	API      APIConfig      `koanf:"api"`
	Email    EmailConfig    `koanf:"email"`
	Payments PaymentsConfig `koanf:"payments"`
	Bookings BookingsConfig `koanf:"bookings"`
	Uploads  UploadsConfig  `koanf:"uploads"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Environment string        `koanf:"environment"` // development or production
	Timeout     time.Duration `koanf:"timeout"`

	// BaseURL is used to build links in emails and checkout redirects.
	// Empty means derive it from the incoming request.
	BaseURL string `koanf:"base_url"`

	BodyLimit      int64 `koanf:"body_limit"`   // JSON bodies
	UploadLimit    int64 `koanf:"upload_limit"` // multipart bodies
	ShowStackTrace bool  `koanf:"show_stack_trace"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()
}

// LedgerConfig holds Badger settings for the webhook and hold ledger.
type LedgerConfig struct {
	Path           string        `koanf:"path"`
	InMemory       bool          `koanf:"in_memory"`
	GCInterval     time.Duration `koanf:"gc_interval"`
	GCDiscardRatio float64       `koanf:"gc_discard_ratio"`
}

// SecurityConfig holds authentication and abuse-protection settings.
type SecurityConfig struct {
	JWTSecret         string        `koanf:"jwt_secret"`
	JWTExpiresIn      time.Duration `koanf:"jwt_expires_in"`
	CookieExpiresIn   time.Duration `koanf:"cookie_expires_in"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	CasbinModelPath   string        `koanf:"casbin_model_path"`
	CasbinPolicyPath  string        `koanf:"casbin_policy_path"`
}

// APIConfig holds pagination limits.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// EmailConfig holds SMTP settings. An empty Host logs messages instead of sending them.
type EmailConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
	FromName string `koanf:"from_name"`
	UseTLS   bool   `koanf:"use_tls"`
}

// PaymentsConfig holds Stripe settings.
type PaymentsConfig struct {
	StripeSecretKey     string        `koanf:"stripe_secret_key"`
	StripeWebhookSecret string        `koanf:"stripe_webhook_secret"`
	Currency            string        `koanf:"currency"`
	ImageBaseURL        string        `koanf:"image_base_url"`
	BreakerFailures     uint32        `koanf:"breaker_failures"`
	BreakerTimeout      time.Duration `koanf:"breaker_timeout"`
}

// BookingsConfig controls checkout seat holds.
type BookingsConfig struct {
	HoldTTL       time.Duration `koanf:"hold_ttl"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// UploadsConfig controls where images land and how they are resized.
type UploadsConfig struct {
	PublicDir     string `koanf:"public_dir"`
	UsersDir      string `koanf:"users_dir"`
	AdventuresDir string `koanf:"adventures_dir"`
	PhotoSize     int    `koanf:"photo_size"`
	CoverWidth    int    `koanf:"cover_width"`
	CoverHeight   int    `koanf:"cover_height"`
	JPEGQuality   int    `koanf:"jpeg_quality"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from defaults, an optional config file and the
// environment. See LoadWithKoanf.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return !c.IsProduction()
}
