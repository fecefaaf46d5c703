// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package api

import (
	"html/template"
	"time"

	"github.com/arko8919/cotswold-cycling-adventures/internal/auth"
	"github.com/arko8919/cotswold-cycling-adventures/internal/authz"
	"github.com/arko8919/cotswold-cycling-adventures/internal/booking"
	"github.com/arko8919/cotswold-cycling-adventures/internal/cache"
	"github.com/arko8919/cotswold-cycling-adventures/internal/config"
	"github.com/arko8919/cotswold-cycling-adventures/internal/database"
	"github.com/arko8919/cotswold-cycling-adventures/internal/database/query"
	"github.com/arko8919/cotswold-cycling-adventures/internal/email"
	"github.com/arko8919/cotswold-cycling-adventures/internal/imaging"
	"github.com/arko8919/cotswold-cycling-adventures/internal/logging"
	"github.com/arko8919/cotswold-cycling-adventures/internal/models"
)

// overviewKey is the cache key of the public adventure list.
const overviewKey = "overview"

// HealthChecker reports whether a backing store is usable.
type HealthChecker interface {
	Healthy() error
}

// Dependencies are the services the handlers use.
type Dependencies struct {
	Config   *config.Config
	DB       *database.DB
	Ledger   HealthChecker
	JWT      *auth.JWTManager
	Enforcer *authz.Enforcer
	Bookings *booking.Service
	Mailer   *email.Mailer
	Images   *imaging.Processor
	Throttle *auth.LoginThrottle
}

// Handler serves the JSON API and the rendered pages.
//
// Handler methods are split across files by resource:
//   - handlers_adventures.go, handlers_reviews.go, handlers_users.go
//   - handlers_auth.go, handlers_bookings.go, handlers_webhook.go
//   - views.go for pages, handlers_health.go for probes
type Handler struct {
	cfg      *config.Config
	db       *database.DB
	ledger   HealthChecker
	jwt      *auth.JWTManager
	auth     *auth.Middleware
	authz    *authz.Middleware
	bookings *booking.Service
	mailer   *email.Mailer
	images   *imaging.Processor
	throttle *auth.LoginThrottle
	security *logging.SecurityLogger

	overviewCache *cache.LRUCache[[]models.Adventure]
	slugCache     *cache.LRUCache[*models.Adventure]

	pages     map[string]*template.Template
	startTime time.Time
	now       func() time.Time
}

// NewHandler wires the handlers. Authentication and authorization failures
// are answered through handleError.
func NewHandler(deps Dependencies) (*Handler, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}

	h := &Handler{
		cfg:      deps.Config,
		db:       deps.DB,
		ledger:   deps.Ledger,
		jwt:      deps.JWT,
		bookings: deps.Bookings,
		mailer:   deps.Mailer,
		images:   deps.Images,
		throttle: deps.Throttle,
		security: logging.NewSecurityLogger(),

		overviewCache: cache.NewLRUCache[[]models.Adventure]("overview", 4, time.Minute),
		slugCache:     cache.NewLRUCache[*models.Adventure]("adventure_slug", 256, 5*time.Minute),

		pages:     pages,
		startTime: time.Now(),
		now:       time.Now,
	}
	h.auth = auth.NewMiddleware(deps.JWT, deps.DB, deps.Config.Security.CookieExpiresIn, deps.Config.IsProduction(), h.handleError)
	h.authz = authz.NewMiddleware(deps.Enforcer, h.handleError)
	return h, nil
}

// SetClockForTesting replaces the handler clock.
func (h *Handler) SetClockForTesting(now func() time.Time) {
	h.now = now
}

// queryDefaults bounds pagination for list endpoints.
func (h *Handler) queryDefaults() query.Defaults {
	return query.Defaults{PageSize: h.cfg.API.DefaultPageSize, MaxPageSize: h.cfg.API.MaxPageSize}
}

// purgeAdventureCaches drops cached adventure pages after any write that
// changes what they show.
func (h *Handler) purgeAdventureCaches() {
	h.overviewCache.Purge()
	h.slugCache.Purge()
}
