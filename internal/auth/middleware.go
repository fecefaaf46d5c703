// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/arko8919/cotswold-cycling-adventures/internal/database"
	"github.com/arko8919/cotswold-cycling-adventures/internal/logging"
	"github.com/arko8919/cotswold-cycling-adventures/internal/models"
)

type contextKey string

const userContextKey contextKey = "user"

// CookieName is the cookie carrying the session token.
const CookieName = "jwt"

// loggedOutValue replaces the token on logout.
const loggedOutValue = "loggedout"

// Error is an authentication failure shown to the client as 401.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrNotLoggedIn     = &Error{Message: "You are not logged in. Please log in to get access."}
	ErrUserGone        = &Error{Message: "The user belonging to this token does no longer exist."}
	ErrPasswordChanged = &Error{Message: "User recently changed password! Please log in again."}
)

// UserStore loads active users by id.
type UserStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// ErrorWriter renders an error response.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Middleware authenticates requests.
type Middleware struct {
	jwt           *JWTManager
	users         UserStore
	onError       ErrorWriter
	cookieTTL     time.Duration
	secureCookies bool
}

// NewMiddleware creates the authentication middleware. Failures are passed
// to onError. secureCookies forces the Secure attribute on session cookies.
func NewMiddleware(jwtManager *JWTManager, users UserStore, cookieTTL time.Duration, secureCookies bool, onError ErrorWriter) *Middleware {
	return &Middleware{
		jwt:           jwtManager,
		users:         users,
		onError:       onError,
		cookieTTL:     cookieTTL,
		secureCookies: secureCookies,
	}
}

// Protect requires a valid token for a user that still exists and has not
// changed their password since the token was issued.
func (m *Middleware) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r, true)
		if token == "" {
			m.onError(w, r, ErrNotLoggedIn)
			return
		}

		user, err := m.authenticate(r.Context(), token)
		if err != nil {
			m.onError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

// IsLoggedIn attaches the user named by the session cookie, if any. It
// never rejects a request.
func (m *Middleware) IsLoggedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r, false)
		if token == "" || token == loggedOutValue {
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.authenticate(r.Context(), token)
		if err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Msg("Ignoring session cookie")
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

func (m *Middleware) authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := m.jwt.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	user, err := m.users.GetUser(ctx, claims.ID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUserGone
	}
	if err != nil {
		return nil, err
	}

	if claims.IssuedAt != nil && ChangedPasswordAfter(user.PasswordChangedAt, claims.IssuedAt.Time) {
		return nil, ErrPasswordChanged
	}
	return user, nil
}

// extractToken reads the bearer token, falling back to the session cookie.
func extractToken(r *http.Request, allowHeader bool) string {
	if allowHeader {
		authHeader := r.Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		}
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func withUser(ctx context.Context, user *models.User) context.Context {
	ctx = context.WithValue(ctx, userContextKey, user)
	logger := logging.LoggerFromContext(ctx).With().Str("user_id", user.ID).Logger()
	return logging.ContextWithLogger(ctx, logger)
}

// ContextWithUser attaches user to ctx.
func ContextWithUser(ctx context.Context, user *models.User) context.Context {
	return withUser(ctx, user)
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userContextKey).(*models.User)
	return user
}

// SetTokenCookie stores token in the session cookie.
func (m *Middleware) SetTokenCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(m.cookieTTL),
		HttpOnly: true,
		Secure:   m.secureCookies || isHTTPS(r),
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearTokenCookie overwrites the session cookie with a short-lived
// placeholder.
func (m *Middleware) ClearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    loggedOutValue,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Second),
		HttpOnly: true,
	})
}

func isHTTPS(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
}
