// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ResetTokenTTL is how long a password reset token stays valid.
const ResetTokenTTL = 10 * time.Minute

// bcryptCost is lowered by tests.
var bcryptCost = 12

// SetHashCostForTesting lowers the bcrypt cost for packages that hash many
// passwords in tests.
func SetHashCostForTesting(cost int) {
	bcryptCost = cost
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NewResetToken returns a random token for the user, its SHA-256 digest for
// storage and the moment it stops being valid.
func NewResetToken(now time.Time) (plain, hashed string, expires time.Time, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", time.Time{}, fmt.Errorf("generate reset token: %w", err)
	}
	plain = hex.EncodeToString(buf)
	return plain, HashResetToken(plain), now.Add(ResetTokenTTL), nil
}

// HashResetToken returns the stored form of a reset token.
func HashResetToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

// ChangedPasswordAfter reports whether the password changed after a token
// issued at iat.
func ChangedPasswordAfter(changedAt *time.Time, iat time.Time) bool {
	if changedAt == nil {
		return false
	}
	return iat.Unix() < changedAt.Unix()
}
