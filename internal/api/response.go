// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/arko8919/cotswold-cycling-adventures/internal/logging"
)

const statusSuccess = "success"

// listResponse is the envelope for collections.
type listResponse struct {
	Status      string      `json:"status"`
	RequestedAt time.Time   `json:"requestedAt"`
	Results     int         `json:"results"`
	Data        dataWrapper `json:"data"`
}

// dataResponse is the envelope for a single document.
type dataResponse struct {
	Status string      `json:"status"`
	Data   dataWrapper `json:"data"`
}

type dataWrapper struct {
	Data interface{} `json:"data"`
}

// authResponse is returned whenever a token is issued.
type authResponse struct {
	Status string                 `json:"status"`
	Token  string                 `json:"token"`
	Data   map[string]interface{} `json:"data"`
}

// messageResponse carries only a status and a message.
type messageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// respondJSON sends v as JSON with status.
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func (h *Handler) respondList(w http.ResponseWriter, items []interface{}) {
	respondJSON(w, http.StatusOK, listResponse{
		Status:      statusSuccess,
		RequestedAt: h.now().UTC(),
		Results:     len(items),
		Data:        dataWrapper{Data: items},
	})
}

// listItems boxes a typed slice for respondList.
func listItems[T any](items []T) []interface{} {
	out := make([]interface{}, len(items))
	for i := range items {
		out[i] = items[i]
	}
	return out
}

func respondOne(w http.ResponseWriter, status int, doc interface{}) {
	respondJSON(w, status, dataResponse{Status: statusSuccess, Data: dataWrapper{Data: doc}})
}

// respondData sends {status, data:{key: value}}.
func respondData(w http.ResponseWriter, key string, value interface{}) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": statusSuccess,
		"data":   map[string]interface{}{key: value},
	})
}

func respondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// decodeJSON reads the request body into dst. An empty body leaves dst
// untouched.
func decodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return maxErr
	}
	if err != nil {
		return newAppError(http.StatusBadRequest, fmt.Sprintf("Invalid JSON body: %s", jsonErrorDetail(err)))
	}
	return nil
}

// jsonErrorDetail keeps the decoder message short and free of input echoes.
func jsonErrorDetail(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, "\n"); i >= 0 {
		msg = msg[:i]
	}
	if len(msg) > 120 {
		msg = msg[:120]
	}
	return msg
}

// isMultipart reports whether the body is multipart/form-data.
func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// pathID returns the named path parameter after checking it is a uuid.
func pathID(r *http.Request, name string) (string, error) {
	id := chi.URLParam(r, name)
	if _, err := uuid.Parse(id); err != nil {
		return "", invalidIDError(id)
	}
	return id, nil
}

// requestBase returns scheme://host of r.
func requestBase(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// baseURL prefers the configured public URL over the request's host.
func (h *Handler) baseURL(r *http.Request) string {
	if h.cfg.Server.BaseURL != "" {
		return strings.TrimSuffix(h.cfg.Server.BaseURL, "/")
	}
	return requestBase(r)
}
