// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations searched in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/cotswold/config.yaml",
	"/etc/cotswold/config.yml",
}

// DefaultEnvFiles lists dotenv files merged into the environment before loading.
// Variables already set in the process win over file values.
var DefaultEnvFiles = []string{
	"config.env",
	".env",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        3000,
			Host:        "0.0.0.0",
			Environment: "development",
			Timeout:     30 * time.Second,
			BodyLimit:   10 << 10,
			UploadLimit: 10 << 20,
		},
		Database: DatabaseConfig{
			Path:      "data/cotswold.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
		},
		Ledger: LedgerConfig{
			Path:           "data/ledger",
			InMemory:       false,
			GCInterval:     10 * time.Minute,
			GCDiscardRatio: 0.5,
		},
		Security: SecurityConfig{
			JWTExpiresIn:      90 * 24 * time.Hour,
			CookieExpiresIn:   90 * 24 * time.Hour,
			RateLimitReqs:     100,
			RateLimitWindow:   time.Hour,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"http://localhost:3000"},
		},
		API: APIConfig{
			DefaultPageSize: 100,
			MaxPageSize:     1000,
		},
		Email: EmailConfig{
			Port:     587,
			From:     "hello@cotswoldcycling.io",
			FromName: "Cotswold Cycling Adventures",
			UseTLS:   true,
		},
		Payments: PaymentsConfig{
			Currency:        "usd",
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Bookings: BookingsConfig{
			HoldTTL:       30 * time.Minute,
			SweepInterval: time.Minute,
		},
		Uploads: UploadsConfig{
			PublicDir:     "public",
			UsersDir:      "img/users",
			AdventuresDir: "img/adventures",
			PhotoSize:     500,
			CoverWidth:    2000,
			CoverHeight:   1333,
			JPEGQuality:   90,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration in layers:
//  1. Defaults
//  2. Config file, if one is found
//  3. Environment variables, including any dotenv file
func LoadWithKoanf() (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := FindConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}
	if err := processDurationFields(k); err != nil {
		return nil, fmt.Errorf("failed to process duration fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadEnvFiles merges the first dotenv file found. Missing files are fine.
func loadEnvFiles() error {
	for _, path := range DefaultEnvFiles {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", path, err)
		}
		return nil
	}
	return nil
}

// FindConfigFile returns the config file Load reads, or "" when none exists.
func FindConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields splits comma-separated env values for slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

var durationConfigPaths = []string{
	"server.timeout",
	"ledger.gc_interval",
	"security.jwt_expires_in",
	"security.cookie_expires_in",
	"security.rate_limit_window",
	"payments.breaker_timeout",
	"bookings.hold_ttl",
	"bookings.sweep_interval",
}

// processDurationFields rewrites string durations that Go cannot parse on
// its own, such as "90d" or a bare day count like "90".
func processDurationFields(k *koanf.Koanf) error {
	for _, path := range durationConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		d, err := ParseDuration(strVal)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := k.Set(path, d); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// ParseDuration accepts Go duration syntax, a day suffix ("90d") or a bare
// integer number of days ("90").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}

	days := strings.TrimSuffix(s, "d")
	n, err := strconv.Atoi(days)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return time.Duration(n) * 24 * time.Hour, nil
}

// envTransformFunc maps environment variable names to koanf paths.
// Unmapped variables return "" and are skipped.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server
		"port":             "server.port",
		"host":             "server.host",
		"node_env":         "server.environment",
		"environment":      "server.environment",
		"http_timeout":     "server.timeout",
		"base_url":         "server.base_url",
		"body_limit":       "server.body_limit",
		"upload_limit":     "server.upload_limit",
		"show_stack_trace": "server.show_stack_trace",

		// Storage
		"database_path":           "database.path",
		"database_max_memory":     "database.max_memory",
		"database_threads":        "database.threads",
		"ledger_path":             "ledger.path",
		"ledger_in_memory":        "ledger.in_memory",
		"ledger_gc_interval":      "ledger.gc_interval",
		"ledger_gc_discard_ratio": "ledger.gc_discard_ratio",

		// Security
		"jwt_secret":            "security.jwt_secret",
		"jwt_expires_in":        "security.jwt_expires_in",
		"jwt_cookie_expires_in": "security.cookie_expires_in",
		"rate_limit_requests":   "security.rate_limit_reqs",
		"rate_limit_window":     "security.rate_limit_window",
		"rate_limit_disabled":   "security.rate_limit_disabled",
		"cors_origins":          "security.cors_origins",
		"casbin_model_path":     "security.casbin_model_path",
		"casbin_policy_path":    "security.casbin_policy_path",

		// API
		"api_default_page_size": "api.default_page_size",
		"api_max_page_size":     "api.max_page_size",

		// Email
		"email_host":      "email.host",
		"email_port":      "email.port",
		"email_username":  "email.username",
		"email_password":  "email.password",
		"email_from":      "email.from",
		"email_from_name": "email.from_name",
		"email_use_tls":   "email.use_tls",

		// Payments
		"stripe_secret_key":       "payments.stripe_secret_key",
		"stripe_webhook_secret":   "payments.stripe_webhook_secret",
		"payments_currency":       "payments.currency",
		"payments_image_base_url": "payments.image_base_url",

		// Bookings
		"booking_hold_ttl":       "bookings.hold_ttl",
		"booking_sweep_interval": "bookings.sweep_interval",

		// Uploads
		"public_dir": "uploads.public_dir",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}

// WatchConfigFile calls callback whenever the file at path changes. Watch
// errors are passed to onError when it is non-nil. The returned function
// stops the watch.
func WatchConfigFile(path string, callback func(), onError func(error)) (stop func() error, err error) {
	provider := file.Provider(path)
	err = provider.Watch(func(_ interface{}, err error) {
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		callback()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to watch config file %s: %w", path, err)
	}
	return provider.Unwatch, nil
}
