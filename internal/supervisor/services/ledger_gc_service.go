// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package services

import (
	"context"
	"time"

	"github.com/arko8919/cotswold-cycling-adventures/internal/logging"
)

// GarbageCollector reclaims space in a value log. Satisfied by *ledger.Ledger.
type GarbageCollector interface {
	RunGC(discardRatio float64) error
}

// LedgerGCService runs value log GC on the webhook and hold ledger.
//
// Processed-event markers and seat holds expire by TTL, so the ledger's
// value log accumulates garbage that Badger only reclaims when asked.
type LedgerGCService struct {
	gc           GarbageCollector
	interval     time.Duration
	discardRatio float64
	name         string
}

// NewLedgerGCService creates the GC service. A non-positive interval becomes
// 10 minutes and a ratio outside (0, 1) becomes 0.5.
func NewLedgerGCService(gc GarbageCollector, interval time.Duration, discardRatio float64) *LedgerGCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if discardRatio <= 0 || discardRatio >= 1 {
		discardRatio = 0.5
	}
	return &LedgerGCService{
		gc:           gc,
		interval:     interval,
		discardRatio: discardRatio,
		name:         "ledger-gc",
	}
}

// Serve implements suture.Service. GC errors are logged and the loop
// carries on; a failing store is reported by the health endpoint instead.
func (s *LedgerGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.gc.RunGC(s.discardRatio); err != nil {
				logging.Warn().Err(err).Msg("Ledger GC failed")
			}
		}
	}
}

// String implements fmt.Stringer for suture logging.
func (s *LedgerGCService) String() string {
	return s.name
}
