// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

// fakeServer stands in for *http.Server.
type fakeServer struct {
	listenErr   error
	shutdownErr error
	block       bool

	listens   atomic.Int32
	shutdowns atomic.Int32
	started   chan struct{}
	stop      chan struct{}
	stopOnce  sync.Once
}

func newFakeServer(block bool) *fakeServer {
	return &fakeServer{
		block:   block,
		started: make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}
}

func (f *fakeServer) ListenAndServe() error {
	f.listens.Add(1)
	select {
	case f.started <- struct{}{}:
	default:
	}
	if f.listenErr != nil {
		return f.listenErr
	}
	if f.block {
		<-f.stop
		return http.ErrServerClosed
	}
	return nil
}

func (f *fakeServer) Shutdown(context.Context) error {
	f.shutdowns.Add(1)
	f.stopOnce.Do(func() { close(f.stop) })
	return f.shutdownErr
}

func (f *fakeServer) waitStarted(t *testing.T) {
	t.Helper()
	select {
	case <-f.started:
	case <-time.After(time.Second):
		t.Fatal("ListenAndServe was not called")
	}
}

var _ suture.Service = (*HTTPServerService)(nil)

func TestNewHTTPServerService(t *testing.T) {
	tests := []struct {
		timeout time.Duration
		want    time.Duration
	}{
		{30 * time.Second, 30 * time.Second},
		{0, 10 * time.Second},
		{-time.Second, 10 * time.Second},
	}
	for _, tt := range tests {
		svc := NewHTTPServerService(newFakeServer(false), tt.timeout)
		if svc.shutdownTimeout != tt.want {
			t.Errorf("NewHTTPServerService(%v).shutdownTimeout = %v, want %v", tt.timeout, svc.shutdownTimeout, tt.want)
		}
	}

	if got := NewHTTPServerService(newFakeServer(false), 0).String(); got != "http-server" {
		t.Errorf("String() = %q, want http-server", got)
	}
}

func TestHTTPServerServiceGracefulShutdown(t *testing.T) {
	server := newFakeServer(true)
	svc := NewHTTPServerService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	server.waitStarted(t)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}

	if n := server.listens.Load(); n != 1 {
		t.Errorf("ListenAndServe calls = %d, want 1", n)
	}
	if n := server.shutdowns.Load(); n != 1 {
		t.Errorf("Shutdown calls = %d, want 1", n)
	}
}

func TestHTTPServerServiceListenError(t *testing.T) {
	bindErr := errors.New("listen tcp :3000: bind: address already in use")
	server := newFakeServer(false)
	server.listenErr = bindErr

	err := NewHTTPServerService(server, time.Second).Serve(context.Background())
	if !errors.Is(err, bindErr) {
		t.Errorf("Serve() error = %v, want %v", err, bindErr)
	}
}

func TestHTTPServerServiceShutdownError(t *testing.T) {
	drainErr := errors.New("context deadline exceeded")
	server := newFakeServer(true)
	server.shutdownErr = drainErr
	svc := NewHTTPServerService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	server.waitStarted(t)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, drainErr) {
			t.Errorf("Serve() error = %v, want %v", err, drainErr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}
}

func TestHTTPServerServiceUnderSupervisor(t *testing.T) {
	server := newFakeServer(true)

	sup := suture.New("test", suture.Spec{
		FailureThreshold: 3,
		FailureBackoff:   10 * time.Millisecond,
		Timeout:          2 * time.Second,
	})
	sup.Add(NewHTTPServerService(server, time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := sup.ServeBackground(ctx)

	server.waitStarted(t)
	cancel()
	<-errCh

	if server.shutdowns.Load() < 1 {
		t.Error("Shutdown was not called when the supervisor stopped")
	}
}
