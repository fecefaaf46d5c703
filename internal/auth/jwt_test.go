// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/arko8919/cotswold-cycling-adventures/internal/config"
)

const testSecret = "k3yk3yk3yk3yk3yk3yk3yk3yk3yk3yk3yk3y"

func newTestJWTManager(t *testing.T) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(&config.SecurityConfig{JWTSecret: testSecret, JWTExpiresIn: time.Hour})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	return m
}

func TestNewJWTManager_EmptySecret(t *testing.T) {
	if _, err := NewJWTManager(&config.SecurityConfig{}); err == nil {
		t.Error("NewJWTManager() expected error for empty secret")
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	m := newTestJWTManager(t)

	token, err := m.GenerateToken("user-1", "admin")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.ID != "user-1" {
		t.Errorf("ID = %q, want user-1", claims.ID)
	}
	if claims.Role != "admin" {
		t.Errorf("Role = %q, want admin", claims.Role)
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		t.Fatal("expected exp and iat claims")
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != time.Hour {
		t.Errorf("exp - iat = %v, want 1h", got)
	}
}

func TestValidateToken_Expired(t *testing.T) {
	m := newTestJWTManager(t)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := m.GenerateToken("user-1", "user")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	m.now = time.Now

	if _, err := m.ValidateToken(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("ValidateToken() error = %v, want ErrTokenExpired", err)
	}
}

func TestValidateToken_Invalid(t *testing.T) {
	m := newTestJWTManager(t)
	good, _ := m.GenerateToken("user-1", "user")
	swapped, _ := m.GenerateToken("user-2", "admin")
	goodParts := strings.Split(good, ".")
	tampered := goodParts[0] + "." + strings.Split(swapped, ".")[1] + "." + goodParts[2]

	other, _ := NewJWTManager(&config.SecurityConfig{
		JWTSecret:    "another-secret-another-secret-another",
		JWTExpiresIn: time.Hour,
	})
	foreign, _ := other.GenerateToken("user-1", "user")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		ID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString(none) error = %v", err)
	}

	tests := map[string]string{
		"garbage":      "not-a-token",
		"empty":        "",
		"tampered":     tampered,
		"wrong secret": foreign,
		"alg none":     unsigned,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := m.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("ValidateToken() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestTTL(t *testing.T) {
	if got := newTestJWTManager(t).TTL(); got != time.Hour {
		t.Errorf("TTL() = %v, want 1h", got)
	}
}
