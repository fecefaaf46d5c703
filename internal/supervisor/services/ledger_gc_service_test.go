// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/arko8919/cotswold-cycling-adventures/internal/config"
	"github.com/arko8919/cotswold-cycling-adventures/internal/ledger"
)

type fakeGC struct {
	mu     sync.Mutex
	ratios []float64
	err    error
}

func (f *fakeGC) RunGC(discardRatio float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ratios = append(f.ratios, discardRatio)
	return f.err
}

func (f *fakeGC) calls() []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]float64(nil), f.ratios...)
}

var _ GarbageCollector = (*ledger.Ledger)(nil)

func TestNewLedgerGCServiceDefaults(t *testing.T) {
	tests := []struct {
		name         string
		interval     time.Duration
		ratio        float64
		wantInterval time.Duration
		wantRatio    float64
	}{
		{"explicit", time.Minute, 0.7, time.Minute, 0.7},
		{"zero", 0, 0, 10 * time.Minute, 0.5},
		{"ratio too high", time.Minute, 1, time.Minute, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewLedgerGCService(&fakeGC{}, tt.interval, tt.ratio)
			if svc.interval != tt.wantInterval {
				t.Errorf("interval = %v, want %v", svc.interval, tt.wantInterval)
			}
			if svc.discardRatio != tt.wantRatio {
				t.Errorf("discardRatio = %v, want %v", svc.discardRatio, tt.wantRatio)
			}
		})
	}
}

func TestLedgerGCServiceRunsOnTick(t *testing.T) {
	gc := &fakeGC{err: errors.New("value log busy")}
	svc := NewLedgerGCService(gc, 10*time.Millisecond, 0.25)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() error = %v, want context.DeadlineExceeded", err)
	}

	calls := gc.calls()
	if len(calls) < 2 {
		t.Fatalf("RunGC calls = %d, want several despite errors", len(calls))
	}
	if calls[0] != 0.25 {
		t.Errorf("discard ratio = %v, want 0.25", calls[0])
	}
	if svc.String() != "ledger-gc" {
		t.Errorf("String() = %q, want ledger-gc", svc.String())
	}
}

func TestLedgerGCServiceInMemoryLedger(t *testing.T) {
	l, err := ledger.Open(&config.LedgerConfig{InMemory: true})
	if err != nil {
		t.Fatalf("ledger.Open() error = %v", err)
	}
	defer l.Close()

	svc := NewLedgerGCService(l, 5*time.Millisecond, 0.5)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() error = %v, want context.DeadlineExceeded", err)
	}
}
