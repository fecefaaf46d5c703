// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package api

import (
	"context"
	"net/http"
	"time"
)

// healthStatus is the body of the health probes.
type healthStatus struct {
	Status   string  `json:"status"`
	Database string  `json:"database"`
	Ledger   string  `json:"ledger"`
	Uptime   float64 `json:"uptime"`
}

func componentStatus(err error) string {
	if err != nil {
		return "down"
	}
	return "up"
}

// Health reports database and ledger connectivity. It answers 503 when
// either is unavailable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbErr := h.db.Ping(ctx)
	ledgerErr := h.ledger.Healthy()

	health := healthStatus{
		Status:   "healthy",
		Database: componentStatus(dbErr),
		Ledger:   componentStatus(ledgerErr),
		Uptime:   time.Since(h.startTime).Seconds(),
	}
	statusCode := http.StatusOK
	if dbErr != nil || ledgerErr != nil {
		health.Status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	respondJSON(w, statusCode, health)
}

// HealthLive answers 200 while the process is serving.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}
