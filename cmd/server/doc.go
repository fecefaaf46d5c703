// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

/*
Package main is the entry point for the Cotswold Cycling Adventures server.

The server hosts the adventure catalogue, user accounts, reviews and Stripe
checkout for guided cycling tours, behind a JSON API and a set of
server-rendered pages.

# Application Architecture

	RootSupervisor ("cotswold")
	├── DataSupervisor ("data-layer")
	│   ├── Hold expiry sweep
	│   └── Ledger value log GC
	└── APISupervisor ("api-layer")
	    └── HTTP Server

Startup order:

 1. Configuration: Koanf v2 with defaults, config.yaml, .env and the environment
 2. DuckDB store for adventures, users, reviews and bookings
 3. Badger ledger for webhook idempotency and seat holds
 4. JWT manager, Casbin enforcer, mailer and Stripe provider
 5. HTTP router, then the supervisor tree

# Configuration

Required in production:
  - JWT_SECRET: 32+ character signing secret
  - STRIPE_SECRET_KEY and STRIPE_WEBHOOK_SECRET
  - EMAIL_HOST, EMAIL_USERNAME and EMAIL_PASSWORD

# Signal Handling

SIGINT and SIGTERM cancel the tree. The HTTP server drains for up to 10s,
then the ledger and the database are closed.

# Example Usage

	export JWT_SECRET=$(openssl rand -base64 32)
	export STRIPE_SECRET_KEY=sk_test_...
	export STRIPE_WEBHOOK_SECRET=whsec_...
	./cotswold-server
*/
package main
