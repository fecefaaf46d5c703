// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package payments

import (
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v79"

	"github.com/arko8919/cotswold-cycling-adventures/internal/logging"
	"github.com/arko8919/cotswold-cycling-adventures/internal/metrics"
)

// breaker trips after a run of consecutive provider failures.
type breaker struct {
	name string
	cb   *gobreaker.CircuitBreaker[*stripe.CheckoutSession]
}

func newBreaker(name string, failures uint32, timeout time.Duration) *breaker {
	if failures == 0 {
		failures = 5
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker[*stripe.CheckoutSession](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Card declines and bad requests are the caller's problem, not an outage.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var stripeErr *stripe.Error
			return errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode >= 400 && stripeErr.HTTPStatusCode < 500 &&
				stripeErr.HTTPStatusCode != 429
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})
	b := &breaker{name: name, cb: cb}
	b.publishState()
	return b
}

// publishState writes the current state to the breaker gauge. State changes
// are published by OnStateChange; this covers the state at construction.
func (b *breaker) publishState() {
	metrics.CircuitBreakerState.WithLabelValues(b.name).Set(stateToFloat(b.state()))
}

func (b *breaker) execute(fn func() (*stripe.CheckoutSession, error)) (*stripe.CheckoutSession, error) {
	s, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		logging.Warn().Str("breaker", b.name).Err(err).Msg("Request rejected by circuit breaker")
		return nil, ErrCircuitOpen
	}
	return s, err
}

func (b *breaker) state() gobreaker.State {
	return b.cb.State()
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
