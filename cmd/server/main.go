// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arko8919/cotswold-cycling-adventures/internal/api"
	"github.com/arko8919/cotswold-cycling-adventures/internal/auth"
	"github.com/arko8919/cotswold-cycling-adventures/internal/authz"
	"github.com/arko8919/cotswold-cycling-adventures/internal/booking"
	"github.com/arko8919/cotswold-cycling-adventures/internal/config"
	"github.com/arko8919/cotswold-cycling-adventures/internal/database"
	"github.com/arko8919/cotswold-cycling-adventures/internal/email"
	"github.com/arko8919/cotswold-cycling-adventures/internal/imaging"
	"github.com/arko8919/cotswold-cycling-adventures/internal/ledger"
	"github.com/arko8919/cotswold-cycling-adventures/internal/logging"
	"github.com/arko8919/cotswold-cycling-adventures/internal/payments"
	"github.com/arko8919/cotswold-cycling-adventures/internal/supervisor"
	"github.com/arko8919/cotswold-cycling-adventures/internal/supervisor/services"
)

// Failed logins allowed per email and client before the login route answers 429.
const (
	loginAttempts = 10
	loginWindow   = 15 * time.Minute
)

//nolint:gocyclo // Sequential setup steps
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("db_path", cfg.Database.Path).
		Str("ledger_path", cfg.Ledger.Path).
		Msg("Starting Cotswold Cycling Adventures")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	ldg, err := ledger.Open(&cfg.Ledger)
	if err != nil {
		closeAndExit(err, "Failed to open ledger", db)
	}
	defer func() {
		if err := ldg.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing ledger")
		}
	}()

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		closeAndExit(err, "Failed to initialize JWT manager", db, ldg)
	}

	enforcer, err := authz.NewEnforcer(authz.ConfigFromSecurity(&cfg.Security))
	if err != nil {
		closeAndExit(err, "Failed to initialize authorization", db, ldg)
	}
	defer enforcer.Close()

	mailer, err := email.NewMailer(&cfg.Email)
	if err != nil {
		closeAndExit(err, "Failed to initialize mailer", db, ldg)
	}
	if cfg.Email.Host == "" {
		logging.Warn().Msg("EMAIL_HOST not set: outgoing mail is logged, not sent")
	}

	if cfg.Payments.StripeSecretKey == "" {
		logging.Warn().Msg("STRIPE_SECRET_KEY not set: checkout sessions will fail")
	}
	provider := payments.NewStripeProvider(&cfg.Payments)
	bookings := booking.NewService(db, ldg, provider, cfg)

	throttle := auth.NewLoginThrottle(loginAttempts, loginWindow)
	defer throttle.Stop()

	handler, err := api.NewHandler(api.Dependencies{
		Config:   cfg,
		DB:       db,
		Ledger:   ldg,
		JWT:      jwtManager,
		Enforcer: enforcer,
		Bookings: bookings,
		Mailer:   mailer,
		Images:   imaging.NewProcessor(&cfg.Uploads),
		Throttle: throttle,
	})
	if err != nil {
		closeAndExit(err, "Failed to initialize handlers", db, ldg)
	}

	router := api.NewRouter(handler, cfg)
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.Timeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		closeAndExit(err, "Failed to create supervisor tree", db, ldg)
	}

	tree.AddDataService(booking.NewScheduler(bookings, cfg.Bookings.SweepInterval))
	tree.AddDataService(services.NewLedgerGCService(ldg, cfg.Ledger.GCInterval, cfg.Ledger.GCDiscardRatio))
	tree.AddDataService(services.NewConfigReloadService(config.FindConfigFile(), config.Load, services.ApplyLogLevel))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for services to stop")
		if err := tree.WaitStopped(errCh); err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	stop()

	if n := tree.LogUnstopped(); n > 0 {
		logging.Warn().Int("count", n).Msg("Services failed to stop within timeout")
	}

	logging.Info().Msg("Server stopped")
}

// closeAndExit closes the stores opened so far before exiting, since
// deferred calls do not run after os.Exit.
func closeAndExit(err error, msg string, closers ...io.Closer) {
	closeStores(closers...)
	logging.Error().Err(err).Msg(msg)
	os.Exit(1)
}

// closeStores closes every store in order and reports how many failed.
func closeStores(closers ...io.Closer) int {
	failed := 0
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store during startup failure")
			failed++
		}
	}
	return failed
}
