// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package database

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"

	"github.com/arko8919/cotswold-cycling-adventures/internal/logging"
	"github.com/arko8919/cotswold-cycling-adventures/internal/models"
)

// seedAdventure is the dev-data shape of an adventure: guides are ids.
type seedAdventure struct {
	models.Adventure
	Guides []string `json:"guides"`
}

type seedUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Photo    string `json:"photo"`
	Password string `json:"password"`
}

type seedReview struct {
	ID        string  `json:"id"`
	Review    string  `json:"review"`
	Rating    float64 `json:"rating"`
	Adventure string  `json:"adventure"`
	User      string  `json:"user"`
}

// ImportAdventures reads a JSON array of adventures and inserts them,
// keeping their ids so users and reviews can refer to them.
func (db *DB) ImportAdventures(ctx context.Context, r io.Reader) (int, error) {
	var items []seedAdventure
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return 0, fmt.Errorf("decode adventures: %w", err)
	}

	for i := range items {
		adv := items[i].Adventure
		adv.Guides = make([]models.UserSummary, 0, len(items[i].Guides))
		for _, id := range items[i].Guides {
			adv.Guides = append(adv.Guides, models.UserSummary{ID: id})
		}
		if _, err := db.CreateAdventure(ctx, &adv); err != nil {
			return i, fmt.Errorf("import adventure %q: %w", adv.Name, err)
		}
	}
	logging.Info().Int("count", len(items)).Msg("Imported adventures")
	return len(items), nil
}

// ImportUsers reads a JSON array of users with plain passwords and inserts
// them, hashing each password with hash.
func (db *DB) ImportUsers(ctx context.Context, r io.Reader, hash func(string) (string, error)) (int, error) {
	var items []seedUser
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return 0, fmt.Errorf("decode users: %w", err)
	}

	for i, item := range items {
		hashed, err := hash(item.Password)
		if err != nil {
			return i, fmt.Errorf("hash password for %s: %w", item.Email, err)
		}
		u := models.User{
			ID:       item.ID,
			Name:     item.Name,
			Email:    item.Email,
			Role:     item.Role,
			Photo:    item.Photo,
			Password: hashed,
		}
		if _, err := db.CreateUser(ctx, &u); err != nil {
			return i, fmt.Errorf("import user %s: %w", item.Email, err)
		}
	}
	logging.Info().Int("count", len(items)).Msg("Imported users")
	return len(items), nil
}

// ImportReviews reads a JSON array of reviews and inserts them, updating
// rating aggregates as it goes.
func (db *DB) ImportReviews(ctx context.Context, r io.Reader) (int, error) {
	var items []seedReview
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return 0, fmt.Errorf("decode reviews: %w", err)
	}

	for i, item := range items {
		review := models.Review{
			ID:        item.ID,
			Review:    item.Review,
			Rating:    item.Rating,
			Adventure: item.Adventure,
			User:      models.UserSummary{ID: item.User},
		}
		if _, err := db.CreateReview(ctx, &review); err != nil {
			return i, fmt.Errorf("import review %d: %w", i, err)
		}
	}
	logging.Info().Int("count", len(items)).Msg("Imported reviews")
	return len(items), nil
}

// DeleteAll removes every adventure, user, review and booking.
func (db *DB) DeleteAll(ctx context.Context) (err error) {
	defer db.observe("delete_all", time.Now(), &err)

	tables := []string{"bookings", "reviews", "adventure_start_dates", "adventures", "users"}
	for _, table := range tables {
		if _, err := db.conn.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	logging.Info().Strs("tables", tables).Msg("Deleted all data")
	return nil
}
