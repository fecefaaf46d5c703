// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// Referential integrity is kept by the write paths (cascading deletes run
// in one transaction) rather than by foreign keys, which DuckDB cannot
// combine with updates of the referenced row.
var tableCreationQueries = []string{
	`CREATE TABLE IF NOT EXISTS adventures (
		id VARCHAR PRIMARY KEY,
		name VARCHAR NOT NULL UNIQUE,
		slug VARCHAR NOT NULL,
		duration INTEGER NOT NULL,
		distance DOUBLE NOT NULL DEFAULT 0,
		max_group_size INTEGER NOT NULL,
		difficulty VARCHAR NOT NULL,
		ratings_average DOUBLE NOT NULL DEFAULT 4.5,
		ratings_quantity INTEGER NOT NULL DEFAULT 0,
		price DOUBLE NOT NULL,
		price_discount DOUBLE,
		summary VARCHAR NOT NULL,
		description VARCHAR NOT NULL DEFAULT '',
		image_cover VARCHAR NOT NULL DEFAULT '',
		images VARCHAR NOT NULL DEFAULT '[]',
		start_location VARCHAR,
		start_lng DOUBLE,
		start_lat DOUBLE,
		locations VARCHAR NOT NULL DEFAULT '[]',
		guides VARCHAR NOT NULL DEFAULT '[]',
		secret_adventure BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS adventure_start_dates (
		adventure_id VARCHAR NOT NULL,
		start_date TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id VARCHAR PRIMARY KEY,
		name VARCHAR NOT NULL,
		email VARCHAR NOT NULL UNIQUE,
		photo VARCHAR NOT NULL DEFAULT 'default.jpg',
		role VARCHAR NOT NULL DEFAULT 'user',
		password VARCHAR NOT NULL,
		password_changed_at TIMESTAMP,
		password_reset_token VARCHAR,
		password_reset_expires TIMESTAMP,
		active BOOLEAN NOT NULL DEFAULT true,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id VARCHAR PRIMARY KEY,
		review VARCHAR NOT NULL,
		rating DOUBLE NOT NULL,
		adventure_id VARCHAR NOT NULL,
		user_id VARCHAR NOT NULL,
		created_at TIMESTAMP NOT NULL,
		UNIQUE (adventure_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id VARCHAR PRIMARY KEY,
		adventure_id VARCHAR NOT NULL,
		user_id VARCHAR NOT NULL,
		price DOUBLE NOT NULL,
		paid BOOLEAN NOT NULL DEFAULT true,
		status VARCHAR NOT NULL DEFAULT 'confirmed',
		start_date TIMESTAMP,
		session_id VARCHAR,
		expires_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL
	)`,
}

// Only columns that are never updated are indexed. DuckDB rewrites an
// update of an indexed column as delete plus insert.
var indexCreationQueries = []string{
	`CREATE INDEX IF NOT EXISTS idx_start_dates_adventure ON adventure_start_dates(adventure_id)`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_adventure ON reviews(adventure_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_adventure ON bookings(adventure_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_user ON bookings(user_id)`,
}

// Views flatten the populated references so list queries can filter and
// sort on one relation.
var viewCreationQueries = []string{
	`CREATE OR REPLACE VIEW review_details AS
		SELECT r.id, r.review, r.rating, r.adventure_id, r.user_id, r.created_at,
			COALESCE(u.name, '') AS user_name,
			COALESCE(u.photo, '') AS user_photo
		FROM reviews r
		LEFT JOIN users u ON u.id = r.user_id AND u.active`,
	`CREATE OR REPLACE VIEW booking_details AS
		SELECT b.id, b.adventure_id, b.user_id, b.price, b.paid, b.status,
			b.start_date, b.session_id, b.expires_at, b.created_at,
			COALESCE(a.name, '') AS adventure_name,
			COALESCE(a.slug, '') AS adventure_slug,
			COALESCE(u.name, '') AS user_name,
			COALESCE(u.email, '') AS user_email,
			COALESCE(u.photo, '') AS user_photo
		FROM bookings b
		LEFT JOIN adventures a ON a.id = b.adventure_id
		LEFT JOIN users u ON u.id = b.user_id AND u.active`,
}

func (db *DB) execAll(queries []string) error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, q := range queries {
		if _, err := db.conn.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", q, err)
		}
	}
	return nil
}

func (db *DB) createTables() error {
	return db.execAll(tableCreationQueries)
}

func (db *DB) createIndexes() error {
	return db.execAll(indexCreationQueries)
}

func (db *DB) createViews() error {
	return db.execAll(viewCreationQueries)
}
