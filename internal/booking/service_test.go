// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package booking

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/arko8919/cotswold-cycling-adventures/internal/config"
	"github.com/arko8919/cotswold-cycling-adventures/internal/database"
	"github.com/arko8919/cotswold-cycling-adventures/internal/database/query"
	"github.com/arko8919/cotswold-cycling-adventures/internal/ledger"
	"github.com/arko8919/cotswold-cycling-adventures/internal/models"
	"github.com/arko8919/cotswold-cycling-adventures/internal/payments"
)

// testDBSemaphore serializes DuckDB tests in this package.
var testDBSemaphore = make(chan struct{}, 1)

type fakeProvider struct {
	mu       sync.Mutex
	requests []payments.CheckoutRequest
	failWith error
	events   map[string]*payments.WebhookEvent
}

func (p *fakeProvider) CreateCheckoutSession(_ context.Context, req payments.CheckoutRequest) (*payments.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failWith != nil {
		return nil, p.failWith
	}
	p.requests = append(p.requests, req)
	id := fmt.Sprintf("cs_test_%d", len(p.requests))
	return &payments.CheckoutSession{ID: id, URL: "https://checkout.example.org/" + id}, nil
}

// ParseWebhook treats the payload as an event id and the signature as a
// pass/fail flag.
func (p *fakeProvider) ParseWebhook(payload []byte, signature string) (*payments.WebhookEvent, error) {
	if signature != "valid" {
		return nil, payments.ErrInvalidSignature
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	event, ok := p.events[string(payload)]
	if !ok {
		return nil, fmt.Errorf("unknown event %s", payload)
	}
	return event, nil
}

func (p *fakeProvider) addEvent(e *payments.WebhookEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events == nil {
		p.events = make(map[string]*payments.WebhookEvent)
	}
	p.events[e.ID] = e
}

type fixture struct {
	svc       *Service
	db        *database.DB
	ledger    *ledger.Ledger
	provider  *fakeProvider
	adventure *models.Adventure
	users     []*models.User
	departure time.Time
	now       *time.Time
}

func setup(t *testing.T, riders int) *fixture {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "1GB"})
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	l, err := ledger.Open(&config.LedgerConfig{InMemory: true})
	if err != nil {
		t.Fatalf("ledger.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })

	now := time.Date(2026, time.February, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	db.SetClockForTesting(clock)

	cfg := &config.Config{}
	cfg.Bookings.HoldTTL = 30 * time.Minute
	cfg.Server.BaseURL = "https://cotswold.example.org/"

	provider := &fakeProvider{}
	svc := NewService(db, l, provider, cfg)
	svc.SetClockForTesting(clock)

	departure := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	ctx := context.Background()
	adventure, err := db.CreateAdventure(ctx, &models.Adventure{
		Name:         "The Cotswold Classic",
		Duration:     5,
		MaxGroupSize: 2,
		Difficulty:   models.DifficultyEasy,
		Price:        397,
		Summary:      "Rolling lanes through honey-stone villages",
		ImageCover:   "cover.jpg",
		StartDates:   []time.Time{departure},
	})
	if err != nil {
		t.Fatalf("CreateAdventure() error = %v", err)
	}

	f := &fixture{
		svc:       svc,
		db:        db,
		ledger:    l,
		provider:  provider,
		adventure: adventure,
		departure: departure,
		now:       &now,
	}
	for i := 0; i < riders; i++ {
		u, err := db.CreateUser(ctx, &models.User{
			Name:     "Rider Number",
			Email:    fmt.Sprintf("rider%d@example.com", i),
			Password: "$2a$12$hash",
		})
		if err != nil {
			t.Fatalf("CreateUser() error = %v", err)
		}
		f.users = append(f.users, u)
	}
	return f
}

func (f *fixture) checkout(t *testing.T, user int) *payments.CheckoutSession {
	t.Helper()
	d := f.departure
	s, err := f.svc.Checkout(context.Background(), f.users[user], f.adventure.ID, &d, "http://ignored")
	if err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}
	return s
}

func TestCheckout(t *testing.T) {
	f := setup(t, 1)
	ctx := context.Background()

	session := f.checkout(t, 0)

	if len(f.provider.requests) != 1 {
		t.Fatalf("provider requests = %d, want 1", len(f.provider.requests))
	}
	req := f.provider.requests[0]
	if req.Price != 397 || req.Name != "The Cotswold Classic" || req.CustomerEmail != "rider0@example.com" {
		t.Errorf("request = %+v", req)
	}
	if req.CancelURL != "https://cotswold.example.org/adventure/the-cotswold-classic" {
		t.Errorf("CancelURL = %q", req.CancelURL)
	}
	if !strings.HasPrefix(req.SuccessURL, "https://cotswold.example.org/my-adventures?") ||
		!strings.Contains(req.SuccessURL, "adventure="+f.adventure.ID) ||
		!strings.HasSuffix(req.SuccessURL, "session_id={CHECKOUT_SESSION_ID}") {
		t.Errorf("SuccessURL = %q", req.SuccessURL)
	}

	booking, err := f.db.GetBookingBySession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetBookingBySession() error = %v", err)
	}
	if booking.Status != models.BookingHeld || booking.Paid {
		t.Errorf("booking = %s paid=%v, want held unpaid", booking.Status, booking.Paid)
	}
	if booking.ID != req.BookingID {
		t.Errorf("booking id = %s, want %s", booking.ID, req.BookingID)
	}

	rec, err := f.ledger.GetHold(session.ID)
	if err != nil {
		t.Fatalf("GetHold() error = %v", err)
	}
	if rec.BookingID != booking.ID || !rec.ExpiresAt.Equal(f.now.Add(30*time.Minute)) {
		t.Errorf("hold record = %+v", rec)
	}
}

func TestCheckout_Errors(t *testing.T) {
	f := setup(t, 3)
	ctx := context.Background()

	if _, err := f.svc.Checkout(ctx, f.users[0], "missing", nil, ""); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("Checkout(missing) error = %v, want ErrNotFound", err)
	}

	f.checkout(t, 0)
	f.checkout(t, 1)

	d := f.departure
	_, err := f.svc.Checkout(ctx, f.users[2], f.adventure.ID, &d, "")
	var capErr *database.CapacityError
	if !errors.As(err, &capErr) {
		t.Errorf("Checkout(full) error = %v, want *CapacityError", err)
	}
}

func TestCheckout_ProviderFailureReleasesSeat(t *testing.T) {
	f := setup(t, 2)
	ctx := context.Background()
	d := f.departure

	f.provider.failWith = payments.ErrCircuitOpen
	for i := 0; i < 2; i++ {
		if _, err := f.svc.Checkout(ctx, f.users[i], f.adventure.ID, &d, ""); !errors.Is(err, payments.ErrCircuitOpen) {
			t.Fatalf("Checkout() error = %v, want ErrCircuitOpen", err)
		}
	}

	f.provider.failWith = nil
	f.checkout(t, 0)
	f.checkout(t, 1)
}

func TestHandleWebhook(t *testing.T) {
	f := setup(t, 1)
	ctx := context.Background()
	session := f.checkout(t, 0)

	f.provider.addEvent(&payments.WebhookEvent{ID: "evt_1", Type: payments.EventCheckoutCompleted, SessionID: session.ID})

	if err := f.svc.HandleWebhook(ctx, []byte("evt_1"), "bad"); !errors.Is(err, payments.ErrInvalidSignature) {
		t.Errorf("HandleWebhook(bad signature) error = %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := f.svc.HandleWebhook(ctx, []byte("evt_1"), "valid"); err != nil {
			t.Fatalf("HandleWebhook() delivery %d error = %v", i, err)
		}
	}

	booking, err := f.db.GetBookingBySession(ctx, session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if booking.Status != models.BookingConfirmed || !booking.Paid {
		t.Errorf("booking = %s paid=%v, want confirmed paid", booking.Status, booking.Paid)
	}
	if _, err := f.ledger.GetHold(session.ID); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("GetHold() error = %v, want ErrNotFound", err)
	}
}

func TestHandleWebhook_RebuildsDeletedBooking(t *testing.T) {
	f := setup(t, 2)
	ctx := context.Background()
	session := f.checkout(t, 0)

	held, err := f.db.GetBookingBySession(ctx, session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.db.DeleteBooking(ctx, held.ID); err != nil {
		t.Fatalf("DeleteBooking() error = %v", err)
	}

	f.provider.addEvent(&payments.WebhookEvent{ID: "evt_rebuild", Type: payments.EventCheckoutCompleted, SessionID: session.ID})
	if err := f.svc.HandleWebhook(ctx, []byte("evt_rebuild"), "valid"); err != nil {
		t.Fatalf("HandleWebhook() error = %v", err)
	}

	got, err := f.db.GetBookingBySession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetBookingBySession() error = %v", err)
	}
	if got.ID != held.ID {
		t.Errorf("booking id = %s, want %s", got.ID, held.ID)
	}
	if got.Status != models.BookingConfirmed || !got.Paid || got.Price != 397 {
		t.Errorf("booking = %s paid=%v price=%v, want confirmed paid 397", got.Status, got.Paid, got.Price)
	}
	if got.StartDate == nil || !got.StartDate.Equal(f.departure) {
		t.Errorf("StartDate = %v, want %v", got.StartDate, f.departure)
	}
	if _, err := f.ledger.GetHold(session.ID); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("GetHold() error = %v, want ErrNotFound", err)
	}
}

func TestHandleWebhook_IgnoredEvents(t *testing.T) {
	f := setup(t, 0)
	ctx := context.Background()

	f.provider.addEvent(&payments.WebhookEvent{ID: "evt_other", Type: "payment_intent.created"})
	f.provider.addEvent(&payments.WebhookEvent{ID: "evt_unknown", Type: payments.EventCheckoutCompleted, SessionID: "cs_nope"})

	for _, id := range []string{"evt_other", "evt_unknown"} {
		if err := f.svc.HandleWebhook(ctx, []byte(id), "valid"); err != nil {
			t.Errorf("HandleWebhook(%s) error = %v", id, err)
		}
	}
}

func TestExpireHolds(t *testing.T) {
	f := setup(t, 3)
	ctx := context.Background()

	first := f.checkout(t, 0)
	f.checkout(t, 1)

	*f.now = f.now.Add(31 * time.Minute)
	n, err := f.svc.ExpireHolds(ctx)
	if err != nil {
		t.Fatalf("ExpireHolds() error = %v", err)
	}
	if n != 2 {
		t.Errorf("ExpireHolds() = %d, want 2", n)
	}
	if _, err := f.ledger.GetHold(first.ID); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("GetHold() error = %v, want ErrNotFound", err)
	}

	f.checkout(t, 2)
}

func TestConfirmFromQuery(t *testing.T) {
	f := setup(t, 1)
	ctx := context.Background()
	userID := f.users[0].ID

	tests := []struct {
		name         string
		raw          string
		wantRedirect bool
		wantErr      error
	}{
		{"no values", "alert=booking", false, nil},
		{"with session", "adventure=" + f.adventure.ID + "&user=" + userID + "&price=397&session_id=cs_1", true, nil},
		{"missing price", "adventure=" + f.adventure.ID + "&user=" + userID, false, ErrIncompleteBooking},
		{"bad price", "adventure=" + f.adventure.ID + "&user=" + userID + "&price=free", false, ErrIncompleteBooking},
		{"legacy", "adventure=" + f.adventure.ID + "&user=" + userID + "&price=397", true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.raw)
			redirect, err := f.svc.ConfirmFromQuery(ctx, q)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ConfirmFromQuery() error = %v, want %v", err, tt.wantErr)
			}
			if redirect != tt.wantRedirect {
				t.Errorf("redirect = %v, want %v", redirect, tt.wantRedirect)
			}
		})
	}

	booked, err := f.db.BookedAdventuresForUser(ctx, userID)
	if err != nil {
		t.Fatal(err)
	}
	if len(booked) != 1 || booked[0].ID != f.adventure.ID {
		t.Errorf("booked adventures = %v, want the legacy booking", booked)
	}
}

func TestScheduler(t *testing.T) {
	f := setup(t, 1)
	f.checkout(t, 0)
	*f.now = f.now.Add(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	sched := NewScheduler(f.svc, 10*time.Millisecond)
	if sched.String() != "hold-expiry" {
		t.Errorf("String() = %q", sched.String())
	}

	done := make(chan error, 1)
	go func() { done <- sched.Serve(ctx) }()

	deadline := time.After(5 * time.Second)
	for {
		bookings, err := f.db.ListBookings(context.Background(), query.Default(query.Defaults{PageSize: 10, MaxPageSize: 10}))
		if err == nil && len(bookings) == 1 && bookings[0].Status == models.BookingExpired {
			break
		}
		select {
		case <-deadline:
			t.Fatal("scheduler did not expire the hold")
		case <-time.After(20 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v, want context.Canceled", err)
	}
}
