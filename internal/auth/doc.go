// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

/*
Package auth provides JWT sessions, password hashing and reset tokens, and
the HTTP middleware that attaches the current user to a request.

Tokens are HS256 JWTs carrying the user id and role. They are accepted from
an "Authorization: Bearer" header or the "jwt" cookie. A token issued before
the user's last password change is rejected.

Passwords are hashed with bcrypt (cost 12). Reset tokens are 32 random
bytes sent to the user in hex; only their SHA-256 digest is stored, and they
expire after ten minutes.

LoginThrottle limits failed logins per email and client IP with
golang.org/x/time/rate.
*/
package auth
