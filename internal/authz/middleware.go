// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package authz

import (
	"errors"
	"net/http"

	"github.com/arko8919/cotswold-cycling-adventures/internal/auth"
	"github.com/arko8919/cotswold-cycling-adventures/internal/logging"
)

// ErrForbidden is answered with 403 when the policy denies a request.
var ErrForbidden = errors.New("You do not have permission to perform this action!")

// Middleware guards routes with the enforcer. It must run after
// auth.Middleware.Protect.
type Middleware struct {
	enforcer *Enforcer
	onError  auth.ErrorWriter
	security *logging.SecurityLogger
}

// NewMiddleware creates a new authorization middleware.
func NewMiddleware(enforcer *Enforcer, onError auth.ErrorWriter) *Middleware {
	return &Middleware{
		enforcer: enforcer,
		onError:  onError,
		security: logging.NewSecurityLogger(),
	}
}

// RestrictTo allows the request only when the user's role may perform
// action on resource.
func (m *Middleware) RestrictTo(resource, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := auth.UserFromContext(r.Context())
			if user == nil {
				m.onError(w, r, auth.ErrNotLoggedIn)
				return
			}

			allowed, err := m.enforcer.Enforce(user.Role, resource, action)
			if err != nil {
				m.onError(w, r, err)
				return
			}
			if !allowed {
				m.security.LogAccessDenied(user.ID, user.Role, resource, action)
				m.onError(w, r, ErrForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Allowed reports whether role may perform action on resource. Lookup
// errors deny.
func (m *Middleware) Allowed(role, resource, action string) bool {
	allowed, err := m.enforcer.Enforce(role, resource, action)
	return err == nil && allowed
}
