// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

/*
Package authz decides which roles may use which routes, using Casbin.

Each guarded route names a resource and an action. The embedded policy
grants them to roles:

	monthly-plan/read   admin, lead-guide, guide
	adventures/write    admin, lead-guide
	reviews/create      user
	reviews/write       user, admin
	users/admin         admin
	bookings/admin      admin, lead-guide
	bookings/export     admin

The model and policy can be replaced with files through
security.casbin_model_path and security.casbin_policy_path. Decisions are
cached per (role, resource, action) until the policy is reloaded.

Usage:

	enforcer, err := authz.NewEnforcer(&authz.EnforcerConfig{CacheTTL: 5 * time.Minute})
	guard := authz.NewMiddleware(enforcer, handler.handleError)
	r.With(authMW.Protect, guard.RestrictTo("adventures", "write")).Post("/", handler.CreateAdventure)
*/
package authz
