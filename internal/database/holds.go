// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/arko8919/cotswold-cycling-adventures/internal/logging"
	"github.com/arko8919/cotswold-cycling-adventures/internal/models"
)

// departureLock returns the mutex serializing seat changes for one
// departure. Bookings without a start date share a per-adventure key.
func (db *DB) departureLock(adventureID string, startDate *time.Time) *sync.Mutex {
	key := adventureID + "|"
	if startDate != nil {
		key += startDate.UTC().Format(time.RFC3339)
	}
	lock, _ := db.holdLocks.LoadOrStore(key, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// reserve inserts b after checking that its adventure and user exist and,
// when it names a departure, that a seat is free.
func (db *DB) reserve(ctx context.Context, b *models.Booking) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	b.CreatedAt = db.now().UTC()

	mu := db.departureLock(b.Adventure.ID, b.StartDate)
	mu.Lock()
	defer mu.Unlock()

	return db.retryOnConflict(ctx, func() error {
		return db.withTx(ctx, func(tx *sqlx.Tx) error {
			adv, err := getAdventureRow(ctx, tx, "id = ?", b.Adventure.ID)
			if err != nil {
				return err
			}
			if _, err := getUserRow(ctx, tx, "id = ?", b.User.ID); err != nil {
				return err
			}
			if occupiesSeat(b) {
				if err := checkCapacity(ctx, tx, adv, *b.StartDate, db.now(), b.ID); err != nil {
					return err
				}
			}
			return insertBooking(ctx, tx, b)
		})
	})
}

// checkCapacity fails when startDate is not one of the adventure's
// departures or when confirmed bookings plus live holds, other than
// excludeID, already fill it.
func checkCapacity(ctx context.Context, tx *sqlx.Tx, adv *adventureRow, startDate, now time.Time, excludeID string) error {
	var scheduled int
	if err := tx.GetContext(ctx, &scheduled,
		`SELECT count(*) FROM adventure_start_dates WHERE adventure_id = ? AND start_date = ?`,
		adv.ID, startDate.UTC()); err != nil {
		return fmt.Errorf("check start date: %w", err)
	}
	if scheduled == 0 {
		return ErrUnknownStartDate
	}

	var taken int
	if err := tx.GetContext(ctx, &taken, `
		SELECT count(*) FROM bookings
		WHERE adventure_id = ? AND start_date = ? AND id <> ?
			AND (status = ? OR (status = ? AND expires_at > ?))`,
		adv.ID, startDate.UTC(), excludeID,
		models.BookingConfirmed, models.BookingHeld, now.UTC()); err != nil {
		return fmt.Errorf("count seats: %w", err)
	}
	if taken >= adv.MaxGroupSize {
		d := startDate.UTC()
		return &CapacityError{AdventureID: adv.ID, StartDate: &d, Capacity: adv.MaxGroupSize}
	}
	return nil
}

// HoldSeat reserves a seat with a held booking that lapses at
// hold.ExpiresAt unless confirmed. Holds for the same departure are
// serialized so the group size is never exceeded.
func (db *DB) HoldSeat(ctx context.Context, hold models.Hold) (booking *models.Booking, err error) {
	defer db.observe("hold_seat", time.Now(), &err)

	expires := hold.ExpiresAt.UTC()
	b := models.Booking{
		ID:        hold.BookingID,
		Adventure: models.AdventureSummary{ID: hold.AdventureID},
		User:      models.UserSummary{ID: hold.UserID},
		Price:     hold.Price,
		Paid:      false,
		Status:    models.BookingHeld,
		StartDate: hold.StartDate,
		ExpiresAt: &expires,
	}
	if err := db.reserve(ctx, &b); err != nil {
		return nil, err
	}
	return db.GetBooking(ctx, b.ID)
}

// AttachSession records the checkout session that pays for a booking.
func (db *DB) AttachSession(ctx context.Context, bookingID, sessionID string) (err error) {
	defer db.observe("attach_session", time.Now(), &err)

	return db.execOne(ctx, `UPDATE bookings SET session_id = ? WHERE id = ?`, sessionID, bookingID)
}

// ConfirmBooking marks the booking for sessionID as confirmed and paid.
// Confirming twice is a no-op. A hold that already lapsed is confirmed
// only if its seat is still free.
func (db *DB) ConfirmBooking(ctx context.Context, sessionID string) (booking *models.Booking, err error) {
	defer db.observe("confirm_booking", time.Now(), &err)

	current, err := db.GetBookingBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if current.Status == models.BookingConfirmed {
		return current, nil
	}

	mu := db.departureLock(current.Adventure.ID, current.StartDate)
	mu.Lock()
	defer mu.Unlock()

	err = db.retryOnConflict(ctx, func() error {
		return db.withTx(ctx, func(tx *sqlx.Tx) error {
			row, err := getBookingRow(ctx, tx, "session_id = ?", sessionID)
			if err != nil {
				return err
			}
			if row.Status == models.BookingConfirmed {
				return nil
			}

			now := db.now()
			live := row.Status == models.BookingHeld && row.ExpiresAt.Valid && row.ExpiresAt.Time.After(now)
			if !live && row.StartDate.Valid {
				adv, err := getAdventureRow(ctx, tx, "id = ?", row.AdventureID)
				if err != nil {
					return err
				}
				if err := checkCapacity(ctx, tx, adv, row.StartDate.Time, now, row.ID); err != nil {
					return err
				}
			}

			_, err = tx.ExecContext(ctx,
				`UPDATE bookings SET status = ?, paid = true, expires_at = NULL WHERE id = ?`,
				models.BookingConfirmed, row.ID)
			if err != nil {
				return fmt.Errorf("confirm booking: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return db.GetBooking(ctx, current.ID)
}

// ExpireHold releases one held booking immediately.
func (db *DB) ExpireHold(ctx context.Context, bookingID string) (err error) {
	defer db.observe("expire_hold", time.Now(), &err)

	return db.execOne(ctx, `UPDATE bookings SET status = ? WHERE id = ? AND status = ?`,
		models.BookingExpired, bookingID, models.BookingHeld)
}

// ExpireHolds marks every hold that lapsed by now as expired and returns
// the affected bookings.
func (db *DB) ExpireHolds(ctx context.Context, now time.Time) (expired []models.Booking, err error) {
	defer db.observe("expire_holds", time.Now(), &err)

	err = db.retryOnConflict(ctx, func() error {
		return db.withTx(ctx, func(tx *sqlx.Tx) error {
			var rows []bookingRow
			if err := tx.SelectContext(ctx, &rows,
				"SELECT "+bookingColumns+" FROM booking_details WHERE status = ? AND expires_at <= ? ORDER BY expires_at, id",
				models.BookingHeld, now.UTC()); err != nil {
				return fmt.Errorf("select lapsed holds: %w", err)
			}
			if len(rows) == 0 {
				expired = nil
				return nil
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE bookings SET status = ? WHERE status = ? AND expires_at <= ?`,
				models.BookingExpired, models.BookingHeld, now.UTC()); err != nil {
				return fmt.Errorf("expire holds: %w", err)
			}

			expired = make([]models.Booking, 0, len(rows))
			for i := range rows {
				b := rows[i].toModel()
				b.Status = models.BookingExpired
				expired = append(expired, b)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if len(expired) > 0 {
		logging.Debug().Int("count", len(expired)).Msg("Expired booking holds")
	}
	return expired, nil
}
