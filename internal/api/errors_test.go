// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/arko8919/cotswold-cycling-adventures/internal/auth"
	"github.com/arko8919/cotswold-cycling-adventures/internal/authz"
	"github.com/arko8919/cotswold-cycling-adventures/internal/config"
	"github.com/arko8919/cotswold-cycling-adventures/internal/database"
	"github.com/arko8919/cotswold-cycling-adventures/internal/imaging"
	"github.com/arko8919/cotswold-cycling-adventures/internal/payments"
	"github.com/arko8919/cotswold-cycling-adventures/internal/validation"
)

func TestToAppError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
		operational bool
	}{
		{
			name:        "app error passes through",
			err:         newAppError(http.StatusTeapot, "short and stout"),
			wantStatus:  http.StatusTeapot,
			wantMessage: "short and stout",
			operational: true,
		},
		{
			name:        "not found",
			err:         fmt.Errorf("get adventure: %w", database.ErrNotFound),
			wantStatus:  http.StatusNotFound,
			wantMessage: msgNotFound,
			operational: true,
		},
		{
			name:        "duplicate",
			err:         &database.DuplicateError{Field: "name", Value: "Cotswold Way"},
			wantStatus:  http.StatusBadRequest,
			wantMessage: `Duplicate field "name" with value "Cotswold Way". Please use a different value!`,
			operational: true,
		},
		{
			name:        "validation",
			err:         validation.NewError("price", "An adventure must have a price"),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid input data. An adventure must have a price",
			operational: true,
		},
		{
			name:        "not logged in",
			err:         auth.ErrNotLoggedIn,
			wantStatus:  http.StatusUnauthorized,
			wantMessage: auth.ErrNotLoggedIn.Message,
			operational: true,
		},
		{
			name:        "expired token",
			err:         auth.ErrTokenExpired,
			wantStatus:  http.StatusUnauthorized,
			wantMessage: msgTokenExpired,
			operational: true,
		},
		{
			name:        "invalid token",
			err:         auth.ErrInvalidToken,
			wantStatus:  http.StatusUnauthorized,
			wantMessage: msgInvalidToken,
			operational: true,
		},
		{
			name:        "forbidden",
			err:         authz.ErrForbidden,
			wantStatus:  http.StatusForbidden,
			wantMessage: "You do not have permission to perform this action!",
			operational: true,
		},
		{
			name:        "not an image",
			err:         imaging.ErrNotImage,
			wantStatus:  http.StatusBadRequest,
			wantMessage: imaging.ErrNotImage.Error(),
			operational: true,
		},
		{
			name:        "fully booked",
			err:         &database.CapacityError{AdventureID: "a1", Capacity: 8},
			wantStatus:  http.StatusConflict,
			wantMessage: msgFullyBooked,
			operational: true,
		},
		{
			name:        "bad signature",
			err:         payments.ErrInvalidSignature,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Webhook error: invalid webhook signature",
			operational: true,
		},
		{
			name:        "body too large",
			err:         &http.MaxBytesError{Limit: 10240},
			wantStatus:  http.StatusRequestEntityTooLarge,
			wantMessage: "Request body too large. The limit is 10240 bytes.",
			operational: true,
		},
		{
			name:        "unknown",
			err:         errors.New("disk on fire"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "disk on fire",
			operational: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toAppError(tt.err)
			if got.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", got.StatusCode, tt.wantStatus)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", got.Message, tt.wantMessage)
			}
			if got.Operational != tt.operational {
				t.Errorf("Operational = %v, want %v", got.Operational, tt.operational)
			}
		})
	}
}

func TestAppErrorStatus(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{http.StatusBadRequest, "fail"},
		{http.StatusNotFound, "fail"},
		{http.StatusTooManyRequests, "fail"},
		{http.StatusInternalServerError, "error"},
		{http.StatusServiceUnavailable, "error"},
	}
	for _, tt := range tests {
		if got := newAppError(tt.code, "x").Status(); got != tt.want {
			t.Errorf("Status() for %d = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func errorHandler(t *testing.T, env string) *Handler {
	t.Helper()
	pages, err := parsePages()
	if err != nil {
		t.Fatalf("parsePages() error = %v", err)
	}
	cfg := &config.Config{}
	cfg.Server.Environment = env
	return &Handler{cfg: cfg, pages: pages}
}

func TestHandleErrorDevelopment(t *testing.T) {
	h := errorHandler(t, "development")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/adventures", nil)
	rec := httptest.NewRecorder()
	h.handleError(rec, req, errors.New("boom"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "error" {
		t.Errorf("status = %v, want error", body["status"])
	}
	if body["message"] != "boom" {
		t.Errorf("message = %v, want boom", body["message"])
	}
	if body["error"] != "boom" {
		t.Errorf("error = %v, want boom", body["error"])
	}
}

func TestHandleErrorProduction(t *testing.T) {
	h := errorHandler(t, "production")

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{"operational detail is shown", newAppError(http.StatusBadRequest, "Invalid year: abc"), http.StatusBadRequest, "Invalid year: abc"},
		{"programming error is hidden", errors.New("nil pointer somewhere"), http.StatusInternalServerError, msgSomethingWrong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/adventures", nil)
			rec := httptest.NewRecorder()
			h.handleError(rec, req, tt.err)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			body := decodeBody(t, rec)
			if body["message"] != tt.wantMessage {
				t.Errorf("message = %v, want %q", body["message"], tt.wantMessage)
			}
			if _, ok := body["error"]; ok {
				t.Errorf("production response leaks error field: %v", body)
			}
		})
	}
}

func TestHandleErrorRendersPageOutsideAPI(t *testing.T) {
	h := errorHandler(t, "production")

	req := httptest.NewRequest(http.MethodGet, "/adventure/unknown", nil)
	rec := httptest.NewRecorder()
	h.handleError(rec, req, newAppError(http.StatusNotFound, msgAdventureByName))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	if !strings.Contains(rec.Body.String(), msgAdventureByName) {
		t.Errorf("page does not show %q", msgAdventureByName)
	}
}
