// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

/*
Package supervisor runs the booking platform's long-running services under a
suture v4 supervisor tree.

# Overview

	RootSupervisor ("cotswold")
	├── DataSupervisor ("data-layer")
	│   ├── booking.Scheduler ("hold-expiry")
	│   ├── LedgerGCService ("ledger-gc")
	│   └── ConfigReloadService ("config-reload")
	└── APISupervisor ("api-layer")
	    └── HTTPServerService ("http-server")

Crashed services restart with backoff. Each layer counts failures on its
own, so a misbehaving sweep cannot stop checkout traffic.

# Usage

	logger := slog.New(logging.NewSlogHandler())
	tree, err := supervisor.NewSupervisorTree(logger, supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddDataService(booking.NewScheduler(bookingService, cfg.Bookings.SweepInterval))
	tree.AddDataService(services.NewLedgerGCService(ldg, cfg.Ledger.GCInterval, cfg.Ledger.GCDiscardRatio))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := tree.ServeBackground(ctx)
	<-ctx.Done()
	<-errCh
	tree.LogUnstopped()

Suture events (starts, failures, backoff) are logged through sutureslog into
the zerolog stream via logging.SlogHandler.
*/
package supervisor
