// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/arko8919/cotswold-cycling-adventures/internal/database/query"
	"github.com/arko8919/cotswold-cycling-adventures/internal/models"
)

const reviewColumns = `id, review, rating, adventure_id, user_id, created_at, user_name, user_photo`

type reviewRow struct {
	ID          string    `db:"id"`
	Review      string    `db:"review"`
	Rating      float64   `db:"rating"`
	AdventureID string    `db:"adventure_id"`
	UserID      string    `db:"user_id"`
	CreatedAt   time.Time `db:"created_at"`
	UserName    string    `db:"user_name"`
	UserPhoto   string    `db:"user_photo"`
}

func (r *reviewRow) toModel() models.Review {
	return models.Review{
		ID:        r.ID,
		Review:    r.Review,
		Rating:    r.Rating,
		CreatedAt: r.CreatedAt.UTC(),
		Adventure: r.AdventureID,
		User:      models.UserSummary{ID: r.UserID, Name: r.UserName, Photo: r.UserPhoto},
	}
}

func getReviewRow(ctx context.Context, q sqlx.QueryerContext, id string) (*reviewRow, error) {
	var row reviewRow
	err := sqlx.GetContext(ctx, q, &row, "SELECT "+reviewColumns+" FROM review_details WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	return &row, nil
}

// CreateReview inserts a review and refreshes the adventure's rating
// aggregate in the same transaction.
func (db *DB) CreateReview(ctx context.Context, r *models.Review) (created *models.Review, err error) {
	defer db.observe("create_review", time.Now(), &err)

	review := *r
	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	review.CreatedAt = db.now().UTC()

	err = db.retryOnConflict(ctx, func() error {
		return db.withTx(ctx, func(tx *sqlx.Tx) error {
			if _, err := getAdventureRow(ctx, tx, "id = ?", review.Adventure); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO reviews (id, review, rating, adventure_id, user_id, created_at)
				VALUES (?, ?, ?, ?, ?, ?)`,
				review.ID, review.Review, review.Rating, review.Adventure, review.User.ID, review.CreatedAt)
			if err != nil {
				return fmt.Errorf("insert review: %w", err)
			}
			return calcAverageRatings(ctx, tx, review.Adventure)
		})
	})
	if err != nil {
		return nil, translateError(err)
	}
	return db.GetReview(ctx, review.ID)
}

// GetReview returns a review with its author populated.
func (db *DB) GetReview(ctx context.Context, id string) (r *models.Review, err error) {
	defer db.observe("get_review", time.Now(), &err)

	row, err := getReviewRow(ctx, db.x, id)
	if err != nil {
		return nil, err
	}
	review := row.toModel()
	return &review, nil
}

// ListReviews returns reviews matching f, limited to one adventure when
// adventureID is set.
func (db *DB) ListReviews(ctx context.Context, f *query.Features, adventureID string) (reviews []models.Review, err error) {
	defer db.observe("list_reviews", time.Now(), &err)

	wb := query.NewWhereBuilder()
	if adventureID != "" {
		wb.AddClause("adventure_id = ?", adventureID)
	}
	where, args, orderBy, limit, offset := f.Build(wb)
	q := fmt.Sprintf("SELECT %s FROM review_details WHERE %s ORDER BY %s LIMIT %d OFFSET %d",
		reviewColumns, where, orderBy, limit, offset)

	var rows []reviewRow
	if err := db.x.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviewModels(rows), nil
}

func listReviewsForAdventure(ctx context.Context, q sqlx.QueryerContext, adventureID string) ([]models.Review, error) {
	var rows []reviewRow
	err := sqlx.SelectContext(ctx, q, &rows,
		"SELECT "+reviewColumns+" FROM review_details WHERE adventure_id = ? ORDER BY created_at DESC, id ASC",
		adventureID)
	if err != nil {
		return nil, fmt.Errorf("list adventure reviews: %w", err)
	}
	return reviewModels(rows), nil
}

func reviewModels(rows []reviewRow) []models.Review {
	out := make([]models.Review, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toModel())
	}
	return out
}

// UpdateReview lets apply change the text and rating, then refreshes the
// adventure's aggregate.
func (db *DB) UpdateReview(ctx context.Context, id string, apply func(*models.Review) error) (updated *models.Review, err error) {
	defer db.observe("update_review", time.Now(), &err)

	err = db.retryOnConflict(ctx, func() error {
		return db.withTx(ctx, func(tx *sqlx.Tx) error {
			row, err := getReviewRow(ctx, tx, id)
			if err != nil {
				return err
			}
			review := row.toModel()
			if err := apply(&review); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `UPDATE reviews SET review = ?, rating = ? WHERE id = ?`,
				review.Review, review.Rating, id); err != nil {
				return fmt.Errorf("update review: %w", err)
			}
			return calcAverageRatings(ctx, tx, row.AdventureID)
		})
	})
	if err != nil {
		return nil, translateError(err)
	}
	return db.GetReview(ctx, id)
}

// DeleteReview removes a review and refreshes the adventure's aggregate.
// It returns the adventure id the review belonged to.
func (db *DB) DeleteReview(ctx context.Context, id string) (adventureID string, err error) {
	defer db.observe("delete_review", time.Now(), &err)

	err = db.retryOnConflict(ctx, func() error {
		return db.withTx(ctx, func(tx *sqlx.Tx) error {
			row, err := getReviewRow(ctx, tx, id)
			if err != nil {
				return err
			}
			adventureID = row.AdventureID
			if _, err := tx.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id); err != nil {
				return fmt.Errorf("delete review: %w", err)
			}
			return calcAverageRatings(ctx, tx, row.AdventureID)
		})
	})
	return adventureID, err
}

// calcAverageRatings writes the review count and the rounded average rating
// onto the adventure. With no reviews the defaults are restored.
func calcAverageRatings(ctx context.Context, tx *sqlx.Tx, adventureID string) error {
	var agg struct {
		Num int     `db:"num"`
		Avg float64 `db:"avg_rating"`
	}
	err := tx.GetContext(ctx, &agg,
		`SELECT count(*) AS num, COALESCE(avg(rating), 0) AS avg_rating FROM reviews WHERE adventure_id = ?`,
		adventureID)
	if err != nil {
		return fmt.Errorf("aggregate ratings: %w", err)
	}

	quantity, average := 0, models.DefaultRatingsAverage
	if agg.Num > 0 {
		quantity, average = agg.Num, models.RoundRating(agg.Avg)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE adventures SET ratings_quantity = ?, ratings_average = ? WHERE id = ?`,
		quantity, average, adventureID); err != nil {
		return fmt.Errorf("update ratings: %w", err)
	}
	return nil
}
