// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

// Package payments creates hosted checkout sessions and verifies the
// webhooks the payment provider sends back.
package payments

import (
	"context"
	"errors"
	"math"
)

// ErrCircuitOpen is returned while the provider's circuit breaker is open.
var ErrCircuitOpen = errors.New("payment provider temporarily unavailable")

// ErrInvalidSignature is returned for webhook payloads that fail verification.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// EventCheckoutCompleted is the webhook event type that confirms a booking.
const EventCheckoutCompleted = "checkout.session.completed"

// CheckoutRequest describes one seat purchase.
type CheckoutRequest struct {
	BookingID     string
	UserID        string
	CustomerEmail string

	AdventureID  string
	Name         string
	Summary      string
	ImageCover   string
	Price        float64
	ImageBaseURL string

	SuccessURL string
	CancelURL  string
}

// CheckoutSession is a hosted payment page.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// WebhookEvent is a verified provider event. Session fields are only set
// for checkout events.
type WebhookEvent struct {
	ID                string
	Type              string
	SessionID         string
	ClientReferenceID string
	CustomerEmail     string
	AmountTotal       int64
	BookingID         string
	UserID            string
}

// Provider is a hosted checkout backend.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

// UnitAmount converts a price to integer cents.
func UnitAmount(price float64) int64 {
	return int64(math.Round(price * 100))
}
