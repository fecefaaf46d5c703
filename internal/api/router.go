// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arko8919/cotswold-cycling-adventures/internal/config"
	"github.com/arko8919/cotswold-cycling-adventures/internal/middleware"
)

// Router binds the handlers to their routes.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	cfg           *config.Config
}

// NewRouter creates a router for handler.
func NewRouter(handler *Handler, cfg *config.Config) *Router {
	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddlewareFromConfig(&cfg.Security),
		cfg:           cfg,
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	h := router.handler
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Compression)
	r.Use(middleware.PrometheusMetrics)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		h.handleError(w, req, appErrorf(http.StatusNotFound, "Can't find %s on this server!", req.URL.Path))
	})

	r.Get("/health", h.Health)
	r.Get("/health/live", h.HealthLive)
	r.Handle("/metrics", promhttp.Handler())

	// The payment provider signs the raw body, so this stays outside the
	// JSON body limit and the API rate limiter.
	r.Post(webhookPath, h.WebhookCheckout)

	static := http.FileServer(http.Dir(router.cfg.Uploads.PublicDir))
	r.Handle("/img/*", static)
	r.Handle("/css/*", static)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(middleware.BodyLimit(router.cfg.Server.BodyLimit, router.cfg.Server.UploadLimit))

		r.Route("/adventures", router.adventureRoutes)
		r.Route("/reviews", router.reviewRoutes)
		r.Route("/users", router.userRoutes)
		r.Route("/bookings", router.bookingRoutes)
	})

	router.viewRoutes(r)
	return r
}

func (router *Router) adventureRoutes(r chi.Router) {
	h := router.handler
	protect := h.auth.Protect
	canWrite := h.authz.RestrictTo("adventures", "write")

	r.With(AliasTopAdventures).Get("/top-5-cheap", h.GetAllAdventures)
	r.Get("/adventure-stats", h.AdventureStats)
	r.With(protect, h.authz.RestrictTo("monthly-plan", "read")).Get("/monthly-plan/{year}", h.MonthlyPlan)
	r.Get("/adventures-within/{distance}/center/{latlng}/unit/{unit}", h.AdventuresWithin)
	r.Get("/distances/{latlng}/unit/{unit}", h.AdventureDistances)

	r.Get("/", h.GetAllAdventures)
	r.With(protect, canWrite).Post("/", h.CreateAdventure)
	r.Get("/{id}", h.GetAdventure)
	r.With(protect, canWrite).Patch("/{id}", h.UpdateAdventure)
	r.With(protect, canWrite).Delete("/{id}", h.DeleteAdventure)

	r.Route("/{adventureId}/reviews", router.reviewRoutes)
}

func (router *Router) reviewRoutes(r chi.Router) {
	h := router.handler
	canWrite := h.authz.RestrictTo("reviews", "write")

	r.Use(h.auth.Protect)
	r.Get("/", h.GetAllReviews)
	r.With(h.authz.RestrictTo("reviews", "create")).Post("/", h.CreateReview)
	r.Get("/{id}", h.GetReview)
	r.With(canWrite).Patch("/{id}", h.UpdateReview)
	r.With(canWrite).Delete("/{id}", h.DeleteReview)
}

func (router *Router) userRoutes(r chi.Router) {
	h := router.handler

	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.AuthRateLimit())
		r.Post("/signup", h.Signup)
		r.Post("/login", h.Login)
		r.Post("/forgotPassword", h.ForgotPassword)
		r.Patch("/resetPassword/{token}", h.ResetPassword)
	})
	r.With(h.auth.IsLoggedIn).Get("/logout", h.Logout)

	r.Group(func(r chi.Router) {
		r.Use(h.auth.Protect)
		r.Patch("/updateMyPassword", h.UpdateMyPassword)
		r.Get("/me", h.GetMe)
		r.Patch("/updateMe", h.UpdateMe)
		r.Delete("/deleteMe", h.DeleteMe)

		r.Group(func(r chi.Router) {
			r.Use(h.authz.RestrictTo("users", "admin"))
			r.Get("/", h.GetAllUsers)
			r.Post("/", h.CreateUser)
			r.Get("/{id}", h.GetUser)
			r.Patch("/{id}", h.UpdateUser)
			r.Delete("/{id}", h.DeleteUser)
		})
	})
}

func (router *Router) bookingRoutes(r chi.Router) {
	h := router.handler

	r.Use(h.auth.Protect)
	r.Get("/checkout-session/{adventureId}", h.GetCheckoutSession)
	r.With(h.authz.RestrictTo("bookings", "export")).Get("/export.xlsx", h.ExportBookings)

	r.Group(func(r chi.Router) {
		r.Use(h.authz.RestrictTo("bookings", "admin"))
		r.Get("/", h.GetAllBookings)
		r.Post("/", h.CreateBooking)
		r.Get("/{id}", h.GetBooking)
		r.Patch("/{id}", h.UpdateBooking)
		r.Delete("/{id}", h.DeleteBooking)
	})
}

func (router *Router) viewRoutes(r chi.Router) {
	h := router.handler

	r.Group(func(r chi.Router) {
		r.Use(h.auth.IsLoggedIn)
		r.With(Alerts).Get("/", h.Overview)
		r.Get("/adventure/{slug}", h.AdventurePage)
		r.Get("/login", h.LoginPage)
		r.Get("/signup", h.SignupPage)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.auth.Protect)
		r.Get("/me", h.AccountPage)
		r.Get("/me/{section}", h.AccountPage)
		r.With(Alerts).Get("/my-adventures", h.MyAdventures)
		r.Post("/submit-user-data", h.SubmitUserData)
	})
}
