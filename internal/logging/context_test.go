// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestGenerateCorrelationID(t *testing.T) {
	t.Parallel()

	a, b := GenerateCorrelationID(), GenerateCorrelationID()
	if len(a) != 8 {
		t.Errorf("len(GenerateCorrelationID()) = %d, want 8", len(a))
	}
	if a == b {
		t.Errorf("GenerateCorrelationID() returned %q twice", a)
	}
}

func TestRequestIDContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if got := RequestIDFromContext(ctx); got != "" {
		t.Errorf("RequestIDFromContext(empty) = %q, want empty", got)
	}

	ctx = ContextWithRequestID(ctx, "req-123")
	if got := RequestIDFromContext(ctx); got != "req-123" {
		t.Errorf("RequestIDFromContext() = %q, want %q", got, "req-123")
	}
}

func TestContextWithNewCorrelationID(t *testing.T) {
	t.Parallel()

	ctx := ContextWithNewCorrelationID(context.Background())
	if got := CorrelationIDFromContext(ctx); len(got) != 8 {
		t.Errorf("CorrelationIDFromContext() = %q, want 8 chars", got)
	}
}

func TestLoggerFromContext_Fallback(t *testing.T) {
	t.Parallel()

	// No logger stored: falls back to the global logger without panicking.
	logger := LoggerFromContext(context.Background())
	_ = logger.Info()
}

func TestCtx(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))
	ctx = ContextWithRequestID(ctx, "req-abc")
	ctx = ContextWithCorrelationID(ctx, "corr1234")

	Ctx(ctx).Info().Msg("booking confirmed")

	out := buf.String()
	for _, want := range []string{`"request_id":"req-abc"`, `"correlation_id":"corr1234"`, "booking confirmed"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}
