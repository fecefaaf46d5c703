// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// gzipResponseWriter compresses the body once the status allows one.
type gzipResponseWriter struct {
	http.ResponseWriter
	gz          *gzip.Writer
	method      string
	wroteHeader bool
	compress    bool
	started     bool
}

func (w *gzipResponseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true

	h := w.Header()
	if bodyAllowed(status) && w.method != http.MethodHead && h.Get("Content-Encoding") == "" {
		w.compress = true
		h.Set("Content-Encoding", "gzip")
		h.Del("Content-Length")
		h.Add("Vary", "Accept-Encoding")
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if !w.compress {
		return w.ResponseWriter.Write(b)
	}
	if !w.started {
		w.gz.Reset(w.ResponseWriter)
		w.started = true
	}
	return w.gz.Write(b)
}

func (w *gzipResponseWriter) close() {
	if w.started {
		_ = w.gz.Close() // Best effort, the response is already committed
	}
}

func bodyAllowed(status int) bool {
	return status >= 200 && status != http.StatusNoContent && status != http.StatusNotModified
}

// gzipWriterPool pools gzip writers to reduce allocations
var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		return gzip.NewWriter(io.Discard)
	},
}

// Compression gzips response bodies for clients that accept it. Responses
// without a body (HEAD, 204, 304) and bodies that are already encoded are
// passed through.
func Compression(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		gz := gzipWriterPool.Get().(*gzip.Writer)
		defer gzipWriterPool.Put(gz)

		gzw := &gzipResponseWriter{ResponseWriter: w, gz: gz, method: r.Method}
		defer gzw.close()

		next.ServeHTTP(gzw, r)
	})
}
