// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arko8919/cotswold-cycling-adventures/internal/config"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestChiMiddlewareCORS(t *testing.T) {
	m := NewChiMiddlewareFromConfig(&config.SecurityConfig{
		CORSOrigins:     []string{"https://cotswold.example.org"},
		RateLimitReqs:   100,
		RateLimitWindow: time.Hour,
	})
	handler := m.CORS()(okHandler())

	tests := []struct {
		origin string
		want   string
	}{
		{"https://cotswold.example.org", "https://cotswold.example.org"},
		{"https://evil.example.com", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/adventures", nil)
		req.Header.Set("Origin", tt.origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
			t.Errorf("Allow-Origin for %s = %q, want %q", tt.origin, got, tt.want)
		}
	}
}

func TestChiMiddlewareRateLimit(t *testing.T) {
	m := NewChiMiddlewareFromConfig(&config.SecurityConfig{
		RateLimitReqs:   2,
		RateLimitWindow: time.Hour,
	})
	handler := m.RateLimit()(okHandler())

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/adventures", nil)
		req.RemoteAddr = "203.0.113.7:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := send(); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i+1, rec.Code)
		}
	}
	rec := send()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["message"] != msgTooManyRequests {
		t.Errorf("message = %v, want %q", body["message"], msgTooManyRequests)
	}
	if body["status"] != "fail" {
		t.Errorf("status = %v, want fail", body["status"])
	}
}

func TestChiMiddlewareRateLimitDisabled(t *testing.T) {
	m := NewChiMiddlewareFromConfig(&config.SecurityConfig{
		RateLimitReqs:     1,
		RateLimitWindow:   time.Hour,
		RateLimitDisabled: true,
	})
	handler := m.AuthRateLimit()(okHandler())

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200 with limiting disabled", i+1, rec.Code)
		}
	}
}

func TestNotFoundRoute(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(http.MethodGet, "/api/v1/rides", nil, "")
	expectStatus(t, rec, http.StatusNotFound)
	expectMessage(t, rec, "Can't find /api/v1/rides on this server!")
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(http.MethodGet, "/health/live", nil, "")
	expectStatus(t, rec, http.StatusOK)
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("X-Content-Type-Options header missing")
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}
}

func TestBodyLimit(t *testing.T) {
	env := newTestEnv(t)

	big := map[string]string{"email": string(make([]byte, 20<<10)), "password": "x"}
	rec := env.request(http.MethodPost, "/api/v1/users/login", big, "")
	expectStatus(t, rec, http.StatusRequestEntityTooLarge)
}
