// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package booking

import (
	"context"
	"time"

	"github.com/arko8919/cotswold-cycling-adventures/internal/logging"
)

// Scheduler releases lapsed seat holds on a fixed interval. It implements
// suture.Service.
type Scheduler struct {
	service  *Service
	interval time.Duration
	name     string
}

// NewScheduler creates a hold-expiry scheduler.
func NewScheduler(service *Service, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		service:  service,
		interval: interval,
		name:     "hold-expiry",
	}
}

// Serve sweeps once immediately, then on every tick until ctx is done.
func (s *Scheduler) Serve(ctx context.Context) error {
	logger := logging.WithComponent(s.name)
	logger.Info().Dur("interval", s.interval).Msg("Hold expiry scheduler started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.sweep(ctx)
		select {
		case <-ctx.Done():
			logger.Info().Msg("Hold expiry scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	n, err := s.service.ExpireHolds(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logging.Error().Err(err).Msg("Failed to expire seat holds")
		}
		return
	}
	if n > 0 {
		logging.Info().Int("released", n).Msg("Released lapsed seat holds")
	}
}

// String implements fmt.Stringer for suture logging.
func (s *Scheduler) String() string {
	return s.name
}
