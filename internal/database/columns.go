// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/arko8919/cotswold-cycling-adventures/internal/models"
)

// scanJSON decodes a VARCHAR column holding JSON into dst.
func scanJSON(src interface{}, dst interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("cannot scan %T into JSON column", src)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// encodeJSON renders v for a JSON text column. Values are bound as plain
// strings so the driver never sees custom types.
func encodeJSON(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode JSON column: %w", err)
	}
	return string(raw), nil
}

// encodeStrings renders a string list, writing nil as an empty array.
func encodeStrings(v []string) (string, error) {
	if v == nil {
		return "[]", nil
	}
	return encodeJSON(v)
}

// encodePoints renders a point list, writing nil as an empty array.
func encodePoints(v []models.GeoPoint) (string, error) {
	if v == nil {
		return "[]", nil
	}
	return encodeJSON(v)
}

// encodePoint renders an optional point as JSON or SQL NULL.
func encodePoint(p *models.GeoPoint) (interface{}, error) {
	if p == nil {
		return nil, nil
	}
	return encodeJSON(p)
}

// jsonStrings is a []string stored as a JSON array.
type jsonStrings []string

func (s *jsonStrings) Scan(src interface{}) error {
	*s = jsonStrings{}
	return scanJSON(src, (*[]string)(s))
}

// jsonPoints is a []models.GeoPoint stored as a JSON array.
type jsonPoints []models.GeoPoint

func (p *jsonPoints) Scan(src interface{}) error {
	*p = jsonPoints{}
	return scanJSON(src, (*[]models.GeoPoint)(p))
}

// jsonPoint is a nullable GeoPoint.
type jsonPoint struct {
	Point *models.GeoPoint
}

func (p *jsonPoint) Scan(src interface{}) error {
	p.Point = nil
	if src == nil {
		return nil
	}
	var gp models.GeoPoint
	if err := scanJSON(src, &gp); err != nil {
		return err
	}
	p.Point = &gp
	return nil
}

// nullFloat binds an optional number as a plain value or NULL.
func nullFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// nullTime binds an optional time as UTC or NULL.
func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// timePtr converts a scanned nullable timestamp.
func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}
