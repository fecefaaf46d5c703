// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package logging

import (
	"strings"

	"github.com/rs/zerolog"
)

// SecurityEvent is one authentication or account event.
type SecurityEvent struct {
	Event     string
	UserID    string
	Email     string
	IPAddress string
	Success   bool
	Reason    string
}

// SecurityLogger writes account events with emails and tokens masked.
type SecurityLogger struct {
	logger zerolog.Logger
}

// NewSecurityLogger creates a security logger on top of the global logger.
func NewSecurityLogger() *SecurityLogger {
	return &SecurityLogger{logger: WithComponent("auth")}
}

// NewSecurityLoggerWithLogger creates a security logger on top of logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSecurityLoggerWithLogger(logger zerolog.Logger) *SecurityLogger {
	return &SecurityLogger{logger: logger.With().Str("component", "auth").Logger()}
}

// LogEvent writes event.
func (l *SecurityLogger) LogEvent(event *SecurityEvent) {
	e := l.logger.Info()
	if !event.Success {
		e = l.logger.Warn()
	}
	e = e.Str("event", event.Event).Bool("success", event.Success)

	if event.UserID != "" {
		e = e.Str("user_id", event.UserID)
	}
	if event.Email != "" {
		e = e.Str("email", SanitizeEmail(event.Email))
	}
	if event.IPAddress != "" {
		e = e.Str("ip", event.IPAddress)
	}
	if event.Reason != "" {
		e = e.Str("reason", truncateString(event.Reason, 200))
	}
	e.Msg("security event")
}

// LogSignup records a new account.
func (l *SecurityLogger) LogSignup(userID, email, ip string) {
	l.LogEvent(&SecurityEvent{Event: "signup", UserID: userID, Email: email, IPAddress: ip, Success: true})
}

// LogLoginSuccess records a successful login.
func (l *SecurityLogger) LogLoginSuccess(userID, email, ip string) {
	l.LogEvent(&SecurityEvent{Event: "login", UserID: userID, Email: email, IPAddress: ip, Success: true})
}

// LogLoginFailure records a rejected login.
func (l *SecurityLogger) LogLoginFailure(email, ip, reason string) {
	l.LogEvent(&SecurityEvent{Event: "login", Email: email, IPAddress: ip, Reason: reason})
}

// LogLogout records a logout.
func (l *SecurityLogger) LogLogout(userID, ip string) {
	l.LogEvent(&SecurityEvent{Event: "logout", UserID: userID, IPAddress: ip, Success: true})
}

// LogPasswordResetRequested records a forgot-password request.
func (l *SecurityLogger) LogPasswordResetRequested(userID, email, ip string, success bool) {
	l.LogEvent(&SecurityEvent{Event: "password_reset_requested", UserID: userID, Email: email, IPAddress: ip, Success: success})
}

// LogPasswordChanged records a password change through reset or update.
func (l *SecurityLogger) LogPasswordChanged(userID, via, ip string) {
	l.LogEvent(&SecurityEvent{Event: "password_changed", UserID: userID, IPAddress: ip, Success: true, Reason: via})
}

// LogAccessDenied records a request rejected by authorization.
func (l *SecurityLogger) LogAccessDenied(userID, role, resource, action string) {
	l.logger.Warn().
		Str("event", "access_denied").
		Str("user_id", userID).
		Str("role", role).
		Str("resource", resource).
		Str("action", action).
		Msg("security event")
}

// SanitizeToken keeps the first and last four characters of a token.
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeEmail masks the local part of an address.
// "jane.doe@example.com" becomes "ja***@example.com".
func SanitizeEmail(email string) string {
	if email == "" {
		return ""
	}
	at := strings.Index(email, "@")
	if at <= 0 {
		return "***"
	}
	local, domain := email[:at], email[at:]
	if len(local) <= 2 {
		return "***" + domain
	}
	return local[:2] + "***" + domain
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
