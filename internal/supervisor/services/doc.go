// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

/*
Package services adapts long-running components to suture.Service.

Each wrapper turns a component's own lifecycle into a context-aware
Serve(ctx) error and names itself through fmt.Stringer so suture's events
identify it.

# Available Services

HTTP Server (HTTPServerService):
  - Runs ListenAndServe in a goroutine
  - Drains connections with Shutdown when the context is canceled

Ledger GC (LedgerGCService):
  - Calls RunGC on the Badger ledger at a fixed interval
  - Logs failures and keeps running

Config Reload (ConfigReloadService):
  - Watches the YAML config file with koanf's file provider
  - Reloads and validates the config on change, then applies the log level

The hold-expiry sweep (booking.Scheduler) already implements suture.Service
and is added to the tree directly.
*/
package services
