// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package auth

import (
	"testing"
	"time"
)

func TestLoginThrottle(t *testing.T) {
	throttle := NewLoginThrottle(3, 3*time.Minute)
	defer throttle.Stop()

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	throttle.now = func() time.Time { return now }

	if throttle.Blocked("a@example.com", "1.2.3.4") {
		t.Fatal("Blocked() = true before any failure")
	}
	for i := 0; i < 3; i++ {
		throttle.Failure("A@example.com", "1.2.3.4")
	}
	if !throttle.Blocked("a@example.com", "1.2.3.4") {
		t.Error("Blocked() = false after 3 failures")
	}
	if throttle.Blocked("a@example.com", "5.6.7.8") {
		t.Error("Blocked() = true for another IP")
	}

	now = now.Add(time.Minute)
	if throttle.Blocked("a@example.com", "1.2.3.4") {
		t.Error("Blocked() = true after a token refilled")
	}

	throttle.Failure("a@example.com", "1.2.3.4")
	throttle.Success("a@example.com", "1.2.3.4")
	if throttle.Blocked("a@example.com", "1.2.3.4") {
		t.Error("Blocked() = true after Success")
	}
}

func TestLoginThrottle_Cleanup(t *testing.T) {
	throttle := NewLoginThrottle(DefaultLoginAttempts, DefaultLoginWindow)
	defer throttle.Stop()

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	throttle.now = func() time.Time { return now }
	throttle.Failure("a@example.com", "1.2.3.4")

	now = now.Add(2 * DefaultLoginWindow)
	throttle.cleanup(DefaultLoginWindow)

	throttle.mu.Lock()
	n := len(throttle.limiters)
	throttle.mu.Unlock()
	if n != 0 {
		t.Errorf("len(limiters) = %d, want 0", n)
	}
	throttle.Stop()
}
