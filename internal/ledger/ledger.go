// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

// Package ledger records processed payment webhooks and open checkout holds
// in an embedded BadgerDB.
//
// Keys are namespaced by prefix:
//
//	event:<provider event id>   -> first-seen timestamp, expires after ttl
//	hold:<checkout session id>  -> HoldRecord
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/arko8919/cotswold-cycling-adventures/internal/config"
	"github.com/arko8919/cotswold-cycling-adventures/internal/logging"
)

const (
	prefixEvent = "event:"
	prefixHold  = "hold:"
)

// ErrNotFound is returned when no hold exists for a session.
var ErrNotFound = errors.New("ledger entry not found")

// HoldRecord ties a checkout session to the held booking it pays for.
type HoldRecord struct {
	BookingID   string     `json:"booking_id"`
	AdventureID string     `json:"adventure_id"`
	UserID      string     `json:"user_id"`
	Price       float64    `json:"price"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	ExpiresAt   time.Time  `json:"expires_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

type eventRecord struct {
	FirstSeen time.Time `json:"first_seen"`
}

// Ledger wraps the Badger database.
type Ledger struct {
	db *badger.DB
}

// Open opens (or creates) the ledger at cfg.Path, or in memory when
// cfg.InMemory is set.
func Open(cfg *config.LedgerConfig) (*Ledger, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil
	opts.SyncWrites = true
	opts.ValueLogFileSize = 16 << 20

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger ledger: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Msg("Ledger opened")

	return &Ledger{db: db}, nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Healthy reports an error when the ledger is closed.
func (l *Ledger) Healthy() error {
	if l.db.IsClosed() {
		return errors.New("ledger is closed")
	}
	return nil
}

// MarkProcessed records eventID and reports whether this is the first time
// it was seen. The marker expires after ttl.
func (l *Ledger) MarkProcessed(eventID string, ttl time.Duration) (bool, error) {
	if eventID == "" {
		return false, errors.New("event id cannot be empty")
	}
	key := []byte(prefixEvent + eventID)

	const maxRetries = 3
	var first bool
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err = l.db.Update(func(txn *badger.Txn) error {
			_, getErr := txn.Get(key)
			if getErr == nil {
				first = false
				return nil
			}
			if !errors.Is(getErr, badger.ErrKeyNotFound) {
				return getErr
			}

			data, mErr := json.Marshal(eventRecord{FirstSeen: time.Now().UTC()})
			if mErr != nil {
				return mErr
			}
			first = true
			return txn.SetEntry(badger.NewEntry(key, data).WithTTL(ttl))
		})
		// A concurrent writer for the same key wins; the retry sees it.
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
	}
	if err != nil {
		return false, fmt.Errorf("mark event %s: %w", eventID, err)
	}
	return first, nil
}

// PutHold stores the hold for a checkout session. The record outlives the
// hold by ttl so a late webhook can still find it.
func (l *Ledger) PutHold(sessionID string, rec HoldRecord, ttl time.Duration) error {
	if sessionID == "" {
		return errors.New("session id cannot be empty")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode hold: %w", err)
	}

	return l.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(prefixHold+sessionID), data)
		if ttl > 0 {
			e = e.WithTTL(time.Until(rec.ExpiresAt) + ttl)
		}
		return txn.SetEntry(e)
	})
}

// GetHold returns the hold recorded for a checkout session.
func (l *Ledger) GetHold(sessionID string) (*HoldRecord, error) {
	var rec HoldRecord
	err := l.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixHold + sessionID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// DeleteHold removes the hold for a checkout session. Deleting a missing
// hold is not an error.
func (l *Ledger) DeleteHold(sessionID string) error {
	return l.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(prefixHold + sessionID))
	})
}

// Unmark forgets eventID so a redelivery is processed again. Used when
// applying an event failed after it was marked.
func (l *Ledger) Unmark(eventID string) error {
	return l.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(prefixEvent + eventID))
	})
}

// RunGC rewrites value log files until Badger finds nothing worth
// reclaiming at discardRatio.
func (l *Ledger) RunGC(discardRatio float64) error {
	rewrites := 0
	for {
		err := l.db.RunValueLogGC(discardRatio)
		switch {
		case err == nil:
			rewrites++
			continue
		case errors.Is(err, badger.ErrNoRewrite), errors.Is(err, badger.ErrGCInMemoryMode):
			if rewrites > 0 {
				logging.Debug().Int("rewrites", rewrites).Msg("Ledger value log GC complete")
			}
			return nil
		default:
			return fmt.Errorf("ledger value log GC: %w", err)
		}
	}
}
