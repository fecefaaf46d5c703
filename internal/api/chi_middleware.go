// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/arko8919/cotswold-cycling-adventures/internal/config"
	"github.com/arko8919/cotswold-cycling-adventures/internal/logging"
	"github.com/arko8919/cotswold-cycling-adventures/internal/metrics"
)

const msgTooManyRequests = "Too many requests from this IP, please try again in an hour!"

// ChiMiddlewareConfig holds configuration for Chi middleware factories.
type ChiMiddlewareConfig struct {
	// CORS configuration
	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSExposedHeaders   []string
	CORSAllowCredentials bool
	CORSMaxAge           int // seconds

	// Rate limiting configuration
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
	RateLimitKeyFunc  httprate.KeyFunc
}

// DefaultChiMiddlewareConfig returns a secure default configuration.
// CORS origins default to empty, requiring explicit configuration.
func DefaultChiMiddlewareConfig() *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		CORSAllowedOrigins:   []string{},
		CORSAllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		CORSAllowedHeaders:   []string{"Content-Type", "Authorization"},
		CORSExposedHeaders:   []string{"X-Request-ID"},
		CORSAllowCredentials: true,
		CORSMaxAge:           86400,

		RateLimitRequests: 100,
		RateLimitWindow:   time.Hour,
	}
}

// RateLimitConfig defines rate limit parameters for specific endpoints.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// RateLimitAuth is strict limiting for login, signup and password resets.
var RateLimitAuth = RateLimitConfig{Requests: 5, Window: time.Minute}

// ChiMiddleware provides Chi-compatible middleware factories.
type ChiMiddleware struct {
	config *ChiMiddlewareConfig
	cors   func(http.Handler) http.Handler
}

// NewChiMiddleware creates a new Chi middleware factory with the given configuration.
func NewChiMiddleware(config *ChiMiddlewareConfig) *ChiMiddleware {
	if config == nil {
		config = DefaultChiMiddlewareConfig()
	}

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   config.CORSAllowedOrigins,
		AllowedMethods:   config.CORSAllowedMethods,
		AllowedHeaders:   config.CORSAllowedHeaders,
		ExposedHeaders:   config.CORSExposedHeaders,
		AllowCredentials: config.CORSAllowCredentials,
		MaxAge:           config.CORSMaxAge,
	})

	return &ChiMiddleware{
		config: config,
		cors:   corsHandler,
	}
}

// NewChiMiddlewareFromConfig bridges the security settings to the
// middleware factories.
func NewChiMiddlewareFromConfig(cfg *config.SecurityConfig) *ChiMiddleware {
	c := DefaultChiMiddlewareConfig()
	c.CORSAllowedOrigins = cfg.CORSOrigins
	c.RateLimitRequests = cfg.RateLimitReqs
	c.RateLimitWindow = cfg.RateLimitWindow
	c.RateLimitDisabled = cfg.RateLimitDisabled
	return NewChiMiddleware(c)
}

// CORS returns the go-chi/cors middleware.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit returns the general API limiter.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	return m.limiter("api", RateLimitConfig{Requests: m.config.RateLimitRequests, Window: m.config.RateLimitWindow})
}

// AuthRateLimit returns the strict limiter for credential endpoints.
func (m *ChiMiddleware) AuthRateLimit() func(http.Handler) http.Handler {
	return m.limiter("auth", RateLimitAuth)
}

func (m *ChiMiddleware) limiter(name string, limit RateLimitConfig) func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	keyFunc := m.config.RateLimitKeyFunc
	if keyFunc == nil {
		keyFunc = httprate.KeyByIP
	}

	return httprate.Limit(
		limit.Requests,
		limit.Window,
		httprate.WithKeyFuncs(keyFunc),
		httprate.WithLimitHandler(limitHandler(name)),
	)
}

// limitHandler answers a rejected request in the API error shape.
func limitHandler(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metrics.RateLimitHits.WithLabelValues(name).Inc()
		logging.Ctx(r.Context()).Warn().
			Str("limiter", name).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Msg("Rate limit exceeded")
		respondJSON(w, http.StatusTooManyRequests, errorResponse{Status: "fail", Message: msgTooManyRequests})
	}
}
