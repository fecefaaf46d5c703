// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/arko8919/cotswold-cycling-adventures/internal/config"
	"github.com/arko8919/cotswold-cycling-adventures/internal/logging"
	"github.com/arko8919/cotswold-cycling-adventures/internal/metrics"
)

// StripeProvider creates Stripe Checkout sessions behind a circuit breaker.
type StripeProvider struct {
	sessions      *session.Client
	webhookSecret string
	currency      string
	imageBaseURL  string
	breaker       *breaker
}

// Option customizes a StripeProvider.
type Option func(*StripeProvider)

// WithBackend routes API calls to b. Tests point it at a local server.
func WithBackend(b stripe.Backend) Option {
	return func(p *StripeProvider) {
		p.sessions.B = b
	}
}

// NewStripeProvider creates a provider from the payments config.
func NewStripeProvider(cfg *config.PaymentsConfig, opts ...Option) *StripeProvider {
	currency := cfg.Currency
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	p := &StripeProvider{
		sessions: &session.Client{
			B:   stripe.GetBackend(stripe.APIBackend),
			Key: cfg.StripeSecretKey,
		},
		webhookSecret: cfg.StripeWebhookSecret,
		currency:      strings.ToLower(currency),
		imageBaseURL:  strings.TrimSuffix(cfg.ImageBaseURL, "/"),
		breaker:       newBreaker("stripe", cfg.BreakerFailures, cfg.BreakerTimeout),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CreateCheckoutSession opens a card payment for one seat.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	params := p.sessionParams(req)
	params.Context = ctx

	s, err := p.breaker.execute(func() (*stripe.CheckoutSession, error) {
		return p.sessions.New(params)
	})
	metrics.RecordCheckout(err)
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().
		Str("session_id", s.ID).
		Str("booking_id", req.BookingID).
		Str("adventure_id", req.AdventureID).
		Msg("Checkout session created")
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (p *StripeProvider) sessionParams(req CheckoutRequest) *stripe.CheckoutSessionParams {
	product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name: stripe.String(req.Name + " Adventure"),
	}
	if req.Summary != "" {
		product.Description = stripe.String(req.Summary)
	}
	if req.ImageCover != "" {
		base := p.imageBaseURL
		if base == "" {
			base = strings.TrimSuffix(req.ImageBaseURL, "/")
		}
		product.Images = stripe.StringSlice([]string{base + "/" + req.ImageCover})
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
		CustomerEmail:      stripe.String(req.CustomerEmail),
		ClientReferenceID:  stripe.String(req.AdventureID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String(p.currency),
					UnitAmount:  stripe.Int64(UnitAmount(req.Price)),
					ProductData: product,
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.AddMetadata("booking_id", req.BookingID)
	params.AddMetadata("user_id", req.UserID)
	return params
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event.
func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	if p.webhookSecret == "" {
		return nil, errors.New("stripe webhook secret is not configured")
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if out.Type != EventCheckoutCompleted || event.Data == nil {
		return out, nil
	}

	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	out.SessionID = s.ID
	out.ClientReferenceID = s.ClientReferenceID
	out.AmountTotal = s.AmountTotal
	if s.CustomerDetails != nil {
		out.CustomerEmail = s.CustomerDetails.Email
	}
	if out.CustomerEmail == "" {
		out.CustomerEmail = s.CustomerEmail
	}
	out.BookingID = s.Metadata["booking_id"]
	out.UserID = s.Metadata["user_id"]
	return out, nil
}
