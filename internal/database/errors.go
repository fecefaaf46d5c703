// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package database

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/arko8919/cotswold-cycling-adventures/internal/database/query"
	"github.com/arko8919/cotswold-cycling-adventures/internal/logging"
)

// ErrNotFound is returned when no row matches the requested id or key.
var ErrNotFound = errors.New("document not found")

// ErrUnknownStartDate is returned when a booking names a departure the
// adventure does not run on.
var ErrUnknownStartDate = errors.New("start date is not scheduled for this adventure")

// DuplicateError reports a unique constraint violation.
type DuplicateError struct {
	Field string
	Value string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate field %q with value %q", e.Field, e.Value)
}

// CapacityError is returned by HoldSeat when a departure is full.
type CapacityError struct {
	AdventureID string
	StartDate   *time.Time
	Capacity    int
}

func (e *CapacityError) Error() string {
	date := "any date"
	if e.StartDate != nil {
		date = e.StartDate.Format("2006-01-02")
	}
	return fmt.Sprintf("adventure %s is fully booked for %s (capacity %d)", e.AdventureID, date, e.Capacity)
}

// isClientError reports errors caused by the request rather than the
// database. They are not counted as query errors.
func isClientError(err error) bool {
	if err == nil {
		return false
	}
	var dup *DuplicateError
	var capErr *CapacityError
	var qe *query.Error
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUnknownStartDate) ||
		errors.As(err, &dup) ||
		errors.As(err, &capErr) ||
		errors.As(err, &qe)
}

var duplicateKeyPattern = regexp.MustCompile(`Duplicate key "([^"]*)"`)

// columnFields maps constraint columns back to API field names.
var columnFields = map[string]string{
	"adventure_id": "adventure",
	"user_id":      "user",
}

// translateError converts DuckDB constraint violations into
// *DuplicateError. Other errors are returned unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	m := duplicateKeyPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return err
	}

	// The key reads "col: value" or "col1: v1, col2: v2".
	var fields, values []string
	for _, part := range strings.Split(m[1], ", ") {
		col, val, ok := strings.Cut(part, ": ")
		if !ok {
			continue
		}
		if name, mapped := columnFields[col]; mapped {
			col = name
		}
		fields = append(fields, col)
		values = append(values, val)
	}
	if len(fields) == 0 {
		return &DuplicateError{Field: "key", Value: m[1]}
	}
	return &DuplicateError{Field: strings.Join(fields, ", "), Value: strings.Join(values, ", ")}
}

// isTransactionConflict checks if an error is a DuckDB transaction conflict.
// These occur when concurrent transactions modify the same rows and can be retried.
func isTransactionConflict(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "Transaction conflict") ||
		strings.Contains(errStr, "Conflict on update") ||
		strings.Contains(errStr, "cannot update a table that has been altered")
}

// isInternalError checks if an error is a DuckDB INTERNAL error.
func isInternalError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "INTERNAL Error")
}

// isConnectionError checks if the error indicates a lost connection.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	return strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "connection reset") ||
		strings.Contains(errMsg, "broken pipe") ||
		strings.Contains(errMsg, "bad connection") ||
		strings.Contains(errMsg, "database is closed")
}

// closeWithLog closes a resource and logs any error.
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource and explicitly ignores any error.
// Use this for cleanup in error paths where Close() errors are not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
