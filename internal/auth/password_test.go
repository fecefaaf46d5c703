// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package auth

import (
	"os"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	bcryptCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("pass1234")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "pass1234" {
		t.Error("HashPassword() returned the plain password")
	}
	if !CheckPassword(hash, "pass1234") {
		t.Error("CheckPassword() = false for the right password")
	}
	if CheckPassword(hash, "pass12345") {
		t.Error("CheckPassword() = true for a wrong password")
	}
	if CheckPassword("not-a-hash", "pass1234") {
		t.Error("CheckPassword() = true for a malformed hash")
	}
}

func TestNewResetToken(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	plain, hashed, expires, err := NewResetToken(now)
	if err != nil {
		t.Fatalf("NewResetToken() error = %v", err)
	}
	if len(plain) != 64 {
		t.Errorf("len(plain) = %d, want 64", len(plain))
	}
	if hashed != HashResetToken(plain) {
		t.Error("hashed does not match HashResetToken(plain)")
	}
	if hashed == plain {
		t.Error("hashed token equals the plain token")
	}
	if !expires.Equal(now.Add(10 * time.Minute)) {
		t.Errorf("expires = %v, want now+10m", expires)
	}

	again, _, _, _ := NewResetToken(now)
	if again == plain {
		t.Error("NewResetToken() returned the same token twice")
	}
}

func TestChangedPasswordAfter(t *testing.T) {
	changed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		changedAt *time.Time
		iat       time.Time
		want      bool
	}{
		{"never changed", nil, changed, false},
		{"token older", &changed, changed.Add(-time.Minute), true},
		{"token newer", &changed, changed.Add(time.Minute), false},
		{"same second", &changed, changed.Add(500 * time.Millisecond), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ChangedPasswordAfter(tt.changedAt, tt.iat); got != tt.want {
				t.Errorf("ChangedPasswordAfter() = %v, want %v", got, tt.want)
			}
		})
	}
}
