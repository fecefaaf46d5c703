// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

// Package booking runs the checkout flow: a seat is held while the hosted
// payment page is open, the payment webhook confirms it, and a scheduler
// releases holds whose session lapsed.
package booking

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arko8919/cotswold-cycling-adventures/internal/config"
	"github.com/arko8919/cotswold-cycling-adventures/internal/database"
	"github.com/arko8919/cotswold-cycling-adventures/internal/ledger"
	"github.com/arko8919/cotswold-cycling-adventures/internal/logging"
	"github.com/arko8919/cotswold-cycling-adventures/internal/metrics"
	"github.com/arko8919/cotswold-cycling-adventures/internal/models"
	"github.com/arko8919/cotswold-cycling-adventures/internal/payments"
)

const (
	// eventRetention is how long processed webhook ids are remembered.
	eventRetention = 30 * 24 * time.Hour

	// holdGrace extends the ledger TTL of a hold past its expiry. The
	// sweep normally drops the record first.
	holdGrace = 24 * time.Hour
)

// ErrIncompleteBooking is returned when the success URL lacks a value.
var ErrIncompleteBooking = errors.New("A booking needs an adventure, a user and a price")

// Service creates and confirms bookings paid through a checkout session.
type Service struct {
	db       *database.DB
	ledger   *ledger.Ledger
	provider payments.Provider
	holdTTL  time.Duration
	baseURL  string
	now      func() time.Time
}

// NewService wires the booking flow.
func NewService(db *database.DB, l *ledger.Ledger, provider payments.Provider, cfg *config.Config) *Service {
	return &Service{
		db:       db,
		ledger:   l,
		provider: provider,
		holdTTL:  cfg.Bookings.HoldTTL,
		baseURL:  strings.TrimSuffix(cfg.Server.BaseURL, "/"),
		now:      time.Now,
	}
}

// SetClockForTesting replaces the service clock.
func (s *Service) SetClockForTesting(now func() time.Time) {
	s.now = now
}

// Checkout holds a seat for user on the adventure's departure and opens a
// payment session for it. requestBase is used for links when no base URL
// is configured.
func (s *Service) Checkout(ctx context.Context, user *models.User, adventureID string, startDate *time.Time, requestBase string) (*payments.CheckoutSession, error) {
	adventure, err := s.db.GetAdventure(ctx, adventureID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	hold := models.Hold{
		BookingID:   uuid.New().String(),
		AdventureID: adventure.ID,
		UserID:      user.ID,
		Price:       adventure.Price,
		StartDate:   startDate,
		ExpiresAt:   now.Add(s.holdTTL),
	}
	booking, err := s.db.HoldSeat(ctx, hold)
	if err != nil {
		metrics.RecordCheckout(err)
		return nil, err
	}

	base := s.base(requestBase)
	session, err := s.provider.CreateCheckoutSession(ctx, payments.CheckoutRequest{
		BookingID:     booking.ID,
		UserID:        user.ID,
		CustomerEmail: user.Email,
		AdventureID:   adventure.ID,
		Name:          adventure.Name,
		Summary:       adventure.Summary,
		ImageCover:    adventure.ImageCover,
		Price:         adventure.Price,
		ImageBaseURL:  base + "/img/adventures",
		SuccessURL:    successURL(base, adventure.ID, user.ID, adventure.Price),
		CancelURL:     base + "/adventure/" + adventure.Slug,
	})
	if err != nil {
		s.release(ctx, booking.ID)
		return nil, err
	}

	if err := s.db.AttachSession(ctx, booking.ID, session.ID); err != nil {
		s.release(ctx, booking.ID)
		return nil, err
	}

	rec := ledger.HoldRecord{
		BookingID:   booking.ID,
		AdventureID: adventure.ID,
		UserID:      user.ID,
		Price:       adventure.Price,
		StartDate:   startDate,
		ExpiresAt:   hold.ExpiresAt,
		CreatedAt:   now,
	}
	if err := s.ledger.PutHold(session.ID, rec, holdGrace); err != nil {
		// The booking row carries the session id, so the webhook still works.
		logging.Ctx(ctx).Warn().Err(err).Str("session_id", session.ID).Msg("Failed to record hold in ledger")
	}

	metrics.BookingsCreated.WithLabelValues("checkout").Inc()
	logging.Ctx(ctx).Info().
		Str("booking_id", booking.ID).
		Str("adventure_id", adventure.ID).
		Time("expires_at", hold.ExpiresAt).
		Msg("Seat held for checkout")
	return session, nil
}

func (s *Service) release(ctx context.Context, bookingID string) {
	if err := s.db.ExpireHold(ctx, bookingID); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("booking_id", bookingID).Msg("Failed to release seat hold")
	}
}

func (s *Service) base(requestBase string) string {
	if s.baseURL != "" {
		return s.baseURL
	}
	return strings.TrimSuffix(requestBase, "/")
}

// successURL returns the page the provider sends the customer to after
// paying. The provider fills in the session id.
func successURL(base, adventureID, userID string, price float64) string {
	q := url.Values{}
	q.Set("alert", "booking")
	q.Set("adventure", adventureID)
	q.Set("user", userID)
	q.Set("price", strconv.FormatFloat(price, 'f', -1, 64))
	return base + "/my-adventures?" + q.Encode() + "&session_id={CHECKOUT_SESSION_ID}"
}

// HandleWebhook verifies a provider event and confirms the booking it pays
// for. Each event id is applied at most once.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.ParseWebhook(payload, signature)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("unknown", "rejected").Inc()
		return err
	}
	logger := logging.Ctx(ctx).With().Str("event_id", event.ID).Str("event_type", event.Type).Logger()

	if event.Type != payments.EventCheckoutCompleted {
		metrics.WebhookEvents.WithLabelValues(event.Type, "ignored").Inc()
		return nil
	}

	first, err := s.ledger.MarkProcessed(event.ID, eventRetention)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues(event.Type, "error").Inc()
		return err
	}
	if !first {
		metrics.WebhookEvents.WithLabelValues(event.Type, "duplicate").Inc()
		logger.Info().Msg("Duplicate webhook event ignored")
		return nil
	}

	result, err := s.confirm(ctx, event)
	if err != nil {
		if unmarkErr := s.ledger.Unmark(event.ID); unmarkErr != nil {
			logger.Error().Err(unmarkErr).Msg("Failed to unmark webhook event")
		}
		metrics.WebhookEvents.WithLabelValues(event.Type, "error").Inc()
		return err
	}
	metrics.WebhookEvents.WithLabelValues(event.Type, result).Inc()
	return nil
}

// confirm applies a completed checkout. Outcomes the provider cannot fix
// by redelivering are logged and acknowledged.
func (s *Service) confirm(ctx context.Context, event *payments.WebhookEvent) (string, error) {
	logger := logging.Ctx(ctx).With().Str("session_id", event.SessionID).Logger()

	result := "confirmed"
	booking, err := s.db.ConfirmBooking(ctx, event.SessionID)
	if errors.Is(err, database.ErrNotFound) {
		result = "recovered"
		booking, err = s.rebuildFromLedger(ctx, event.SessionID)
	}
	var capErr *database.CapacityError
	switch {
	case errors.Is(err, database.ErrNotFound), errors.Is(err, ledger.ErrNotFound), errors.Is(err, database.ErrUnknownStartDate):
		logger.Warn().Err(err).Msg("Webhook for unknown checkout session")
		return "unknown_session", nil
	case errors.As(err, &capErr):
		logger.Error().Str("adventure_id", capErr.AdventureID).Msg("Payment received for a full departure; refund required")
		return "overbooked", nil
	case err != nil:
		return "", err
	}

	if err := s.ledger.DeleteHold(event.SessionID); err != nil {
		logger.Warn().Err(err).Msg("Failed to drop ledger hold")
	}
	metrics.BookingsCreated.WithLabelValues("webhook").Inc()
	logger.Info().Str("booking_id", booking.ID).Str("result", result).Msg("Booking confirmed")
	return result, nil
}

// rebuildFromLedger recreates a paid booking whose row was removed while
// its checkout was open. The ledger hold supplies the booking id, price and
// departure. The seat is held again under the usual capacity rules and then
// confirmed.
func (s *Service) rebuildFromLedger(ctx context.Context, sessionID string) (*models.Booking, error) {
	rec, err := s.ledger.GetHold(sessionID)
	if err != nil {
		return nil, err
	}

	_, err = s.db.HoldSeat(ctx, models.Hold{
		BookingID:   rec.BookingID,
		AdventureID: rec.AdventureID,
		UserID:      rec.UserID,
		Price:       rec.Price,
		StartDate:   rec.StartDate,
		ExpiresAt:   s.now().Add(s.holdTTL),
	})
	if err != nil {
		return nil, err
	}
	if err := s.db.AttachSession(ctx, rec.BookingID, sessionID); err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Warn().
		Str("session_id", sessionID).
		Str("booking_id", rec.BookingID).
		Msg("Booking row missing for paid session, rebuilt from ledger hold")
	return s.db.ConfirmBooking(ctx, sessionID)
}

// ConfirmFromQuery handles the success page's query string. It reports
// whether the caller should redirect to the bare URL. A session id means
// the webhook confirms the booking; without one a paid booking is created
// from the adventure, user and price values.
func (s *Service) ConfirmFromQuery(ctx context.Context, q url.Values) (bool, error) {
	adventureID, userID, rawPrice := q.Get("adventure"), q.Get("user"), q.Get("price")
	if adventureID == "" && userID == "" && rawPrice == "" {
		return false, nil
	}
	if q.Get("session_id") != "" {
		return true, nil
	}
	if adventureID == "" || userID == "" || rawPrice == "" {
		return false, ErrIncompleteBooking
	}
	price, err := strconv.ParseFloat(rawPrice, 64)
	if err != nil || price <= 0 {
		return false, ErrIncompleteBooking
	}

	booking, err := s.db.CreateBookingCheckout(ctx, adventureID, userID, price)
	if err != nil {
		return false, fmt.Errorf("create booking from success url: %w", err)
	}
	metrics.BookingsCreated.WithLabelValues("success_url").Inc()
	logging.Ctx(ctx).Info().Str("booking_id", booking.ID).Msg("Booking created from success URL")
	return true, nil
}

// ExpireHolds releases holds that lapsed by now and drops their ledger
// records. It returns the number released.
func (s *Service) ExpireHolds(ctx context.Context) (int, error) {
	expired, err := s.db.ExpireHolds(ctx, s.now())
	if err != nil {
		return 0, err
	}
	for i := range expired {
		if expired[i].SessionID == "" {
			continue
		}
		if err := s.ledger.DeleteHold(expired[i].SessionID); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("session_id", expired[i].SessionID).Msg("Failed to drop ledger hold")
		}
	}
	metrics.BookingsExpired.Add(float64(len(expired)))
	return len(expired), nil
}
