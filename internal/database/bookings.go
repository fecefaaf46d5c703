// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/arko8919/cotswold-cycling-adventures/internal/database/query"
	"github.com/arko8919/cotswold-cycling-adventures/internal/models"
)

const bookingColumns = `id, adventure_id, user_id, price, paid, status, start_date, session_id,
	expires_at, created_at, adventure_name, adventure_slug, user_name, user_email, user_photo`

type bookingRow struct {
	ID            string         `db:"id"`
	AdventureID   string         `db:"adventure_id"`
	UserID        string         `db:"user_id"`
	Price         float64        `db:"price"`
	Paid          bool           `db:"paid"`
	Status        string         `db:"status"`
	StartDate     sql.NullTime   `db:"start_date"`
	SessionID     sql.NullString `db:"session_id"`
	ExpiresAt     sql.NullTime   `db:"expires_at"`
	CreatedAt     time.Time      `db:"created_at"`
	AdventureName string         `db:"adventure_name"`
	AdventureSlug string         `db:"adventure_slug"`
	UserName      string         `db:"user_name"`
	UserEmail     string         `db:"user_email"`
	UserPhoto     string         `db:"user_photo"`
}

func (r *bookingRow) toModel() models.Booking {
	return models.Booking{
		ID:        r.ID,
		Adventure: models.AdventureSummary{ID: r.AdventureID, Name: r.AdventureName, Slug: r.AdventureSlug},
		User:      models.UserSummary{ID: r.UserID, Name: r.UserName, Email: r.UserEmail, Photo: r.UserPhoto},
		Price:     r.Price,
		Paid:      r.Paid,
		Status:    r.Status,
		StartDate: timePtr(r.StartDate),
		SessionID: r.SessionID.String,
		ExpiresAt: timePtr(r.ExpiresAt),
		CreatedAt: r.CreatedAt.UTC(),
	}
}

func getBookingRow(ctx context.Context, q sqlx.QueryerContext, where string, args ...interface{}) (*bookingRow, error) {
	var row bookingRow
	err := sqlx.GetContext(ctx, q, &row, "SELECT "+bookingColumns+" FROM booking_details WHERE "+where, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return &row, nil
}

// CreateBooking inserts a booking directly. Status defaults to confirmed.
// A booking with a start date is still subject to the departure capacity.
func (db *DB) CreateBooking(ctx context.Context, b *models.Booking) (created *models.Booking, err error) {
	defer db.observe("create_booking", time.Now(), &err)

	booking := *b
	if booking.Status == "" {
		booking.Status = models.BookingConfirmed
	}
	if err := db.reserve(ctx, &booking); err != nil {
		return nil, err
	}
	return db.GetBooking(ctx, booking.ID)
}

// CreateBookingCheckout records a paid booking for the success-URL flow.
func (db *DB) CreateBookingCheckout(ctx context.Context, adventureID, userID string, price float64) (created *models.Booking, err error) {
	defer db.observe("create_booking_checkout", time.Now(), &err)

	booking := models.Booking{
		Adventure: models.AdventureSummary{ID: adventureID},
		User:      models.UserSummary{ID: userID},
		Price:     price,
		Paid:      true,
		Status:    models.BookingConfirmed,
	}
	if err := db.reserve(ctx, &booking); err != nil {
		return nil, err
	}
	return db.GetBooking(ctx, booking.ID)
}

func insertBooking(ctx context.Context, tx *sqlx.Tx, b *models.Booking) error {
	var session interface{}
	if b.SessionID != "" {
		session = b.SessionID
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO bookings (id, adventure_id, user_id, price, paid, status, start_date, session_id, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Adventure.ID, b.User.ID, b.Price, b.Paid, b.Status,
		nullTime(b.StartDate), session, nullTime(b.ExpiresAt), b.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

// GetBooking returns a booking with adventure and user populated.
func (db *DB) GetBooking(ctx context.Context, id string) (b *models.Booking, err error) {
	defer db.observe("get_booking", time.Now(), &err)

	row, err := getBookingRow(ctx, db.x, "id = ?", id)
	if err != nil {
		return nil, err
	}
	booking := row.toModel()
	return &booking, nil
}

// GetBookingBySession returns the booking created for a checkout session.
func (db *DB) GetBookingBySession(ctx context.Context, sessionID string) (b *models.Booking, err error) {
	defer db.observe("get_booking_by_session", time.Now(), &err)

	row, err := getBookingRow(ctx, db.x, "session_id = ?", sessionID)
	if err != nil {
		return nil, err
	}
	booking := row.toModel()
	return &booking, nil
}

// ListBookings returns bookings matching f.
func (db *DB) ListBookings(ctx context.Context, f *query.Features) (bookings []models.Booking, err error) {
	defer db.observe("list_bookings", time.Now(), &err)

	where, args, orderBy, limit, offset := f.Build(query.NewWhereBuilder())
	q := fmt.Sprintf("SELECT %s FROM booking_details WHERE %s ORDER BY %s LIMIT %d OFFSET %d",
		bookingColumns, where, orderBy, limit, offset)
	return db.selectBookings(ctx, q, args...)
}

func (db *DB) selectBookings(ctx context.Context, q string, args ...interface{}) ([]models.Booking, error) {
	var rows []bookingRow
	if err := db.x.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("select bookings: %w", err)
	}
	out := make([]models.Booking, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toModel())
	}
	return out, nil
}

// UpdateBooking lets apply change price, paid, status and start date. A
// booking that ends up occupying a departure is checked against its
// capacity.
func (db *DB) UpdateBooking(ctx context.Context, id string, apply func(*models.Booking) error) (updated *models.Booking, err error) {
	defer db.observe("update_booking", time.Now(), &err)

	current, err := db.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	target := *current
	if err := apply(&target); err != nil {
		return nil, err
	}

	mu := db.departureLock(target.Adventure.ID, target.StartDate)
	mu.Lock()
	defer mu.Unlock()

	err = db.retryOnConflict(ctx, func() error {
		return db.withTx(ctx, func(tx *sqlx.Tx) error {
			row, err := getBookingRow(ctx, tx, "id = ?", id)
			if err != nil {
				return err
			}
			b := row.toModel()
			if err := apply(&b); err != nil {
				return err
			}

			if takesNewSeat(row, &b) {
				adv, err := getAdventureRow(ctx, tx, "id = ?", row.AdventureID)
				if err != nil {
					return err
				}
				if err := checkCapacity(ctx, tx, adv, *b.StartDate, db.now(), id); err != nil {
					return err
				}
			}

			_, err = tx.ExecContext(ctx, `UPDATE bookings SET price = ?, paid = ?, status = ?, start_date = ? WHERE id = ?`,
				b.Price, b.Paid, b.Status, nullTime(b.StartDate), id)
			if err != nil {
				return fmt.Errorf("update booking: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return db.GetBooking(ctx, id)
}

// takesNewSeat reports whether the update moves the booking onto a seat it
// did not hold before.
func takesNewSeat(before *bookingRow, after *models.Booking) bool {
	if !occupiesSeat(after) {
		return false
	}
	prev := before.toModel()
	return !occupiesSeat(&prev) || !sameDate(prev.StartDate, after.StartDate)
}

func occupiesSeat(b *models.Booking) bool {
	return b.StartDate != nil && (b.Status == models.BookingConfirmed || b.Status == models.BookingHeld)
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// DeleteBooking removes a booking.
func (db *DB) DeleteBooking(ctx context.Context, id string) (err error) {
	defer db.observe("delete_booking", time.Now(), &err)

	return db.execOne(ctx, `DELETE FROM bookings WHERE id = ?`, id)
}

// BookedAdventuresForUser returns the public adventures the user holds a
// confirmed booking for.
func (db *DB) BookedAdventuresForUser(ctx context.Context, userID string) (adventures []models.Adventure, err error) {
	defer db.observe("booked_adventures", time.Now(), &err)

	q := fmt.Sprintf(`SELECT %s FROM adventures
		WHERE secret_adventure = false AND id IN (
			SELECT adventure_id FROM bookings WHERE user_id = ? AND status = ?
		)
		ORDER BY created_at DESC, id ASC`, adventureColumns)
	return db.selectAdventures(ctx, q, userID, models.BookingConfirmed)
}
