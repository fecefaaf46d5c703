// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/arko8919/cotswold-cycling-adventures/internal/logging"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		incoming string
		reuse    bool
	}{
		{"generates when missing", "", false},
		{"reuses upstream id", "req-123.abc_DEF", true},
		{"rejects header injection", "bad id\r\nX-Evil: 1", false},
		{"rejects oversized id", strings.Repeat("a", 65), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var ctxID, correlationID string
			handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctxID = logging.RequestIDFromContext(r.Context())
				correlationID = logging.CorrelationIDFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/adventures", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			got := rec.Header().Get(RequestIDHeader)
			if got == "" || got != ctxID {
				t.Errorf("header id = %q, context id = %q", got, ctxID)
			}
			if tt.reuse && got != tt.incoming {
				t.Errorf("id = %q, want upstream %q", got, tt.incoming)
			}
			if !tt.reuse && got == tt.incoming {
				t.Errorf("id = %q, want a generated id", got)
			}
			if correlationID == "" {
				t.Error("correlation id not set")
			}
		})
	}
}

func TestRequestID_Unique(t *testing.T) {
	t.Parallel()

	handler := RequestID(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		id := rec.Header().Get(RequestIDHeader)
		if seen[id] {
			t.Fatalf("duplicate request id %q", id)
		}
		seen[id] = true
	}
}
