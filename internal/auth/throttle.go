// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package auth

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Default login throttle: five failures refill over fifteen minutes.
const (
	DefaultLoginAttempts = 5
	DefaultLoginWindow   = 15 * time.Minute
)

// LoginThrottle limits failed logins per email and client IP. Only
// failures consume tokens, and a successful login resets the key.
type LoginThrottle struct {
	mu       sync.Mutex
	limiters map[string]*throttleEntry
	rate     rate.Limit
	burst    int
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

type throttleEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewLoginThrottle allows attempts failures per window. Call Stop to end the
// cleanup goroutine.
func NewLoginThrottle(attempts int, window time.Duration) *LoginThrottle {
	t := &LoginThrottle{
		limiters: make(map[string]*throttleEntry),
		rate:     rate.Every(window / time.Duration(attempts)),
		burst:    attempts,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go t.cleanupLoop(window)
	return t
}

func throttleKey(email, ip string) string {
	return strings.ToLower(strings.TrimSpace(email)) + "|" + ip
}

// Blocked reports whether the key has no failures left.
func (t *LoginThrottle) Blocked(email, ip string) bool {
	t.mu.Lock()
	entry, ok := t.limiters[throttleKey(email, ip)]
	t.mu.Unlock()
	if !ok {
		return false
	}
	return entry.limiter.TokensAt(t.now()) < 1
}

// Failure records a failed login.
func (t *LoginThrottle) Failure(email, ip string) {
	now := t.now()
	key := throttleKey(email, ip)

	t.mu.Lock()
	entry, ok := t.limiters[key]
	if !ok {
		entry = &throttleEntry{limiter: rate.NewLimiter(t.rate, t.burst)}
		t.limiters[key] = entry
	}
	entry.lastAccess = now
	limiter := entry.limiter
	t.mu.Unlock()

	limiter.AllowN(now, 1)
}

// Success forgets earlier failures for the key.
func (t *LoginThrottle) Success(email, ip string) {
	t.mu.Lock()
	delete(t.limiters, throttleKey(email, ip))
	t.mu.Unlock()
}

func (t *LoginThrottle) cleanupLoop(window time.Duration) {
	ticker := time.NewTicker(window)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			t.cleanup(window)
		case <-t.stop:
			return
		}
	}
}

func (t *LoginThrottle) cleanup(window time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	threshold := t.now().Add(-window)
	for key, entry := range t.limiters {
		if entry.lastAccess.Before(threshold) {
			delete(t.limiters, key)
		}
	}
}

// Stop ends the cleanup goroutine.
func (t *LoginThrottle) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
}
