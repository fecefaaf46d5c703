// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCompression_WithGzipAccept(t *testing.T) {
	body := strings.Repeat("adventure data ", 200)
	handler := Compression(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "3000")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/adventures", nil)
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("Content-Encoding = %q, want gzip", rec.Header().Get("Content-Encoding"))
	}
	if rec.Header().Get("Content-Length") != "" {
		t.Error("Content-Length was not removed")
	}
	if rec.Header().Get("Vary") != "Accept-Encoding" {
		t.Errorf("Vary = %q", rec.Header().Get("Vary"))
	}

	reader, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("gzip.NewReader() error = %v", err)
	}
	defer reader.Close()
	got, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(got) != body {
		t.Error("decompressed body does not match")
	}
}

func TestCompression_ImplicitStatus(t *testing.T) {
	handler := Compression(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Header().Get("Content-Encoding") != "gzip" {
		t.Errorf("code = %d, encoding = %q", rec.Code, rec.Header().Get("Content-Encoding"))
	}
}

func TestCompression_PassThrough(t *testing.T) {
	tests := []struct {
		name   string
		method string
		accept string
		status int
		preset string
	}{
		{"client without gzip", http.MethodGet, "", http.StatusOK, ""},
		{"no content", http.MethodDelete, "gzip", http.StatusNoContent, ""},
		{"not modified", http.MethodGet, "gzip", http.StatusNotModified, ""},
		{"head request", http.MethodHead, "gzip", http.StatusOK, ""},
		{"already encoded", http.MethodGet, "gzip", http.StatusOK, "br"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := Compression(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.preset != "" {
					w.Header().Set("Content-Encoding", tt.preset)
				}
				w.WriteHeader(tt.status)
			}))

			req := httptest.NewRequest(tt.method, "/", nil)
			if tt.accept != "" {
				req.Header.Set("Accept-Encoding", tt.accept)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if got := rec.Header().Get("Content-Encoding"); got != tt.preset {
				t.Errorf("Content-Encoding = %q, want %q", got, tt.preset)
			}
			if rec.Body.Len() != 0 {
				t.Errorf("body length = %d, want 0", rec.Body.Len())
			}
		})
	}
}
