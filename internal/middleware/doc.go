// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

/*
Package middleware provides the HTTP middleware shared by every route.

All middleware has the chi signature func(http.Handler) http.Handler and
is installed by the api package in this order:

  - RequestID: assigns X-Request-ID and seeds the logging context
  - SecurityHeaders: CSP, frame, sniffing, referrer and HSTS headers
  - Compression: gzip for clients that accept it
  - PrometheusMetrics: request count, latency and in-flight gauge,
    labelled by chi route pattern
  - BodyLimit: caps JSON bodies and multipart uploads separately

CORS, RealIP, Recoverer and rate limiting come from go-chi directly and
are configured in the api package.
*/
package middleware
