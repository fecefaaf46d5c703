// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package config

import (
	"fmt"
	"strings"
	"time"
)

var validEnvironments = map[string]bool{
	"development": true,
	"production":  true,
}

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// Validate checks that the configuration is complete and consistent.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateUploads(); err != nil {
		return err
	}
	if err := c.validatePayments(); err != nil {
		return err
	}
	if err := c.validateBookings(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if !validEnvironments[c.Server.Environment] {
		return fmt.Errorf("NODE_ENV must be one of: development, production")
	}
	if c.Server.BodyLimit <= 0 {
		return fmt.Errorf("BODY_LIMIT must be positive")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if err := c.validateJWTSecret(); err != nil {
		return err
	}
	if c.Security.JWTExpiresIn <= 0 {
		return fmt.Errorf("JWT_EXPIRES_IN must be positive")
	}
	if c.Security.CookieExpiresIn <= 0 {
		return fmt.Errorf("JWT_COOKIE_EXPIRES_IN must be positive")
	}
	if err := c.validateRateLimits(); err != nil {
		return err
	}
	return c.validateCORS()
}

func (c *Config) validateJWTSecret() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters for security")
	}
	if containsPlaceholder(c.Security.JWTSecret) {
		return fmt.Errorf("JWT_SECRET contains a placeholder value - generate a secure secret with: openssl rand -base64 32")
	}
	return nil
}

func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 || c.Security.RateLimitReqs > 100000 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between 1 and 100000, got %d", c.Security.RateLimitReqs)
	}
	if c.Security.RateLimitWindow < time.Second || c.Security.RateLimitWindow > 24*time.Hour {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between 1s and 24h, got %v", c.Security.RateLimitWindow)
	}
	return nil
}

func (c *Config) validateCORS() error {
	if c.IsProduction() && c.hasWildcardCORS() {
		return fmt.Errorf("CORS_ORIGINS must not contain * in production")
	}
	return nil
}

func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

func (c *Config) validateAPI() error {
	if c.API.DefaultPageSize < 1 {
		return fmt.Errorf("API_DEFAULT_PAGE_SIZE must be positive")
	}
	if c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("API_MAX_PAGE_SIZE must be at least API_DEFAULT_PAGE_SIZE")
	}
	return nil
}

func (c *Config) validateUploads() error {
	u := c.Uploads
	if c.Server.UploadLimit <= 0 {
		return fmt.Errorf("UPLOAD_LIMIT must be positive")
	}
	if u.PhotoSize <= 0 || u.CoverWidth <= 0 || u.CoverHeight <= 0 {
		return fmt.Errorf("upload image sizes must be positive")
	}
	if u.JPEGQuality < 1 || u.JPEGQuality > 100 {
		return fmt.Errorf("uploads.jpeg_quality must be between 1 and 100, got %d", u.JPEGQuality)
	}
	return nil
}

func (c *Config) validatePayments() error {
	if c.IsProduction() && c.Payments.StripeSecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is required in production")
	}
	if c.Payments.BreakerFailures == 0 {
		return fmt.Errorf("payments.breaker_failures must be positive")
	}
	return nil
}

func (c *Config) validateBookings() error {
	if c.Bookings.HoldTTL <= 0 {
		return fmt.Errorf("BOOKING_HOLD_TTL must be positive")
	}
	if c.Bookings.SweepInterval <= 0 {
		return fmt.Errorf("BOOKING_SWEEP_INTERVAL must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// placeholderPatterns catch secrets copied verbatim from example files.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_SECRET",
	"PLACEHOLDER",
	"EXAMPLE",
}

func containsPlaceholder(value string) bool {
	upper := strings.ToUpper(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(upper, pattern) {
			return true
		}
	}
	return false
}
