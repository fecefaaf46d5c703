// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package api

import (
	"io"
	"net/http"
)

// webhookPath receives payment provider events.
const webhookPath = "/webhook-checkout"

// maxWebhookBody is the largest payment event accepted.
const maxWebhookBody = 64 << 10

// WebhookCheckout confirms bookings from payment provider events. The raw
// body is needed for signature verification. A bad signature answers 400;
// other failures answer 500 so the provider retries.
func (h *Handler) WebhookCheckout(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	if err := h.bookings.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"received": true})
}
