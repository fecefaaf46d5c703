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
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/arko8919/cotswold-cycling-adventures/internal/database/query"
	"github.com/arko8919/cotswold-cycling-adventures/internal/models"
)

const adventureColumns = `id, name, slug, duration, distance, max_group_size, difficulty,
	ratings_average, ratings_quantity, price, price_discount, summary, description,
	image_cover, images, start_location, locations, guides, secret_adventure, created_at`

type adventureRow struct {
	ID              string          `db:"id"`
	Name            string          `db:"name"`
	Slug            string          `db:"slug"`
	Duration        int             `db:"duration"`
	Distance        float64         `db:"distance"`
	MaxGroupSize    int             `db:"max_group_size"`
	Difficulty      string          `db:"difficulty"`
	RatingsAverage  float64         `db:"ratings_average"`
	RatingsQuantity int             `db:"ratings_quantity"`
	Price           float64         `db:"price"`
	PriceDiscount   sql.NullFloat64 `db:"price_discount"`
	Summary         string          `db:"summary"`
	Description     string          `db:"description"`
	ImageCover      string          `db:"image_cover"`
	Images          jsonStrings     `db:"images"`
	StartLocation   jsonPoint       `db:"start_location"`
	Locations       jsonPoints      `db:"locations"`
	Guides          jsonStrings     `db:"guides"`
	SecretAdventure bool            `db:"secret_adventure"`
	CreatedAt       time.Time       `db:"created_at"`
}

func (r *adventureRow) toModel() models.Adventure {
	a := models.Adventure{
		ID:              r.ID,
		Name:            r.Name,
		Duration:        r.Duration,
		Distance:        r.Distance,
		MaxGroupSize:    r.MaxGroupSize,
		Difficulty:      r.Difficulty,
		RatingsAverage:  r.RatingsAverage,
		RatingsQuantity: r.RatingsQuantity,
		Price:           r.Price,
		Summary:         r.Summary,
		Description:     r.Description,
		ImageCover:      r.ImageCover,
		Images:          []string(r.Images),
		StartLocation:   r.StartLocation.Point,
		Locations:       []models.GeoPoint(r.Locations),
		SecretAdventure: r.SecretAdventure,
		CreatedAt:       r.CreatedAt.UTC(),
	}
	if r.PriceDiscount.Valid {
		v := r.PriceDiscount.Float64
		a.PriceDiscount = &v
	}
	a.Guides = make([]models.UserSummary, 0, len(r.Guides))
	for _, id := range r.Guides {
		a.Guides = append(a.Guides, models.UserSummary{ID: id})
	}
	a.Normalize()
	return a
}

// CreateAdventure inserts a new adventure with its start dates. The id and
// createdAt are assigned here; ratings start at their defaults.
func (db *DB) CreateAdventure(ctx context.Context, a *models.Adventure) (created *models.Adventure, err error) {
	defer db.observe("create_adventure", time.Now(), &err)

	adv := *a
	if adv.ID == "" {
		adv.ID = uuid.New().String()
	}
	adv.CreatedAt = db.now().UTC()
	if adv.RatingsAverage == 0 {
		adv.RatingsAverage = models.DefaultRatingsAverage
	}
	adv.Normalize()

	err = db.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := insertAdventure(ctx, tx, &adv); err != nil {
			return err
		}
		return replaceStartDates(ctx, tx, adv.ID, adv.StartDates)
	})
	if err != nil {
		return nil, translateError(err)
	}
	return db.GetAdventure(ctx, adv.ID)
}

func insertAdventure(ctx context.Context, tx *sqlx.Tx, a *models.Adventure) error {
	images, err := encodeStrings(a.Images)
	if err != nil {
		return err
	}
	start, err := encodePoint(a.StartLocation)
	if err != nil {
		return err
	}
	locations, err := encodePoints(a.Locations)
	if err != nil {
		return err
	}
	guides, err := encodeStrings(a.GuideIDs())
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO adventures (id, name, slug, duration, distance, max_group_size, difficulty,
			ratings_average, ratings_quantity, price, price_discount, summary, description,
			image_cover, images, start_location, start_lng, start_lat, locations, guides,
			secret_adventure, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.Slug, a.Duration, a.Distance, a.MaxGroupSize, a.Difficulty,
		a.RatingsAverage, a.RatingsQuantity, a.Price, nullFloat(a.PriceDiscount), a.Summary, a.Description,
		a.ImageCover, images, start, startLng(a), startLat(a), locations, guides,
		a.SecretAdventure, a.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert adventure: %w", err)
	}
	return nil
}

func startLng(a *models.Adventure) interface{} {
	if a.StartLocation == nil || len(a.StartLocation.Coordinates) < 2 {
		return nil
	}
	return a.StartLocation.Lng()
}

func startLat(a *models.Adventure) interface{} {
	if a.StartLocation == nil || len(a.StartLocation.Coordinates) < 2 {
		return nil
	}
	return a.StartLocation.Lat()
}

func replaceStartDates(ctx context.Context, tx *sqlx.Tx, adventureID string, dates []time.Time) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM adventure_start_dates WHERE adventure_id = ?`, adventureID); err != nil {
		return fmt.Errorf("clear start dates: %w", err)
	}
	for _, d := range dates {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO adventure_start_dates (adventure_id, start_date) VALUES (?, ?)`,
			adventureID, d.UTC()); err != nil {
			return fmt.Errorf("insert start date: %w", err)
		}
	}
	return nil
}

func getAdventureRow(ctx context.Context, q sqlx.QueryerContext, where string, args ...interface{}) (*adventureRow, error) {
	var row adventureRow
	err := sqlx.GetContext(ctx, q, &row, "SELECT "+adventureColumns+" FROM adventures WHERE "+where, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get adventure: %w", err)
	}
	return &row, nil
}

// GetAdventure returns one adventure with its guides and reviews populated.
// Secret adventures are returned too; only lists hide them.
func (db *DB) GetAdventure(ctx context.Context, id string) (a *models.Adventure, err error) {
	defer db.observe("get_adventure", time.Now(), &err)
	return db.getAdventure(ctx, "id = ?", id)
}

// GetAdventureBySlug returns the public adventure with the given slug.
func (db *DB) GetAdventureBySlug(ctx context.Context, slug string) (a *models.Adventure, err error) {
	defer db.observe("get_adventure_by_slug", time.Now(), &err)
	return db.getAdventure(ctx, "slug = ? AND secret_adventure = false", slug)
}

func (db *DB) getAdventure(ctx context.Context, where string, args ...interface{}) (*models.Adventure, error) {
	row, err := getAdventureRow(ctx, db.x, where, args...)
	if err != nil {
		return nil, err
	}
	list, err := hydrateAdventures(ctx, db.x, []adventureRow{*row})
	if err != nil {
		return nil, err
	}
	adv := list[0]

	reviews, err := listReviewsForAdventure(ctx, db.x, adv.ID)
	if err != nil {
		return nil, err
	}
	adv.Reviews = reviews
	return &adv, nil
}

// ListAdventures returns the public adventures matching f.
func (db *DB) ListAdventures(ctx context.Context, f *query.Features) (adventures []models.Adventure, err error) {
	defer db.observe("list_adventures", time.Now(), &err)

	where, args, orderBy, limit, offset := f.Build(query.NewWhereBuilder().AddClause("secret_adventure = false"))
	q := fmt.Sprintf("SELECT %s FROM adventures WHERE %s ORDER BY %s LIMIT %d OFFSET %d",
		adventureColumns, where, orderBy, limit, offset)
	return db.selectAdventures(ctx, q, args...)
}

func (db *DB) selectAdventures(ctx context.Context, q string, args ...interface{}) ([]models.Adventure, error) {
	var rows []adventureRow
	if err := db.x.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("select adventures: %w", err)
	}
	return hydrateAdventures(ctx, db.x, rows)
}

// hydrateAdventures converts rows and fills start dates and guide summaries.
func hydrateAdventures(ctx context.Context, q sqlx.QueryerContext, rows []adventureRow) ([]models.Adventure, error) {
	out := make([]models.Adventure, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	ids := make([]string, len(rows))
	var guideIDs []string
	for i := range rows {
		out[i] = rows[i].toModel()
		ids[i] = rows[i].ID
		guideIDs = append(guideIDs, rows[i].Guides...)
	}

	dates, err := loadStartDates(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	guides, err := loadUserSummaries(ctx, q, guideIDs)
	if err != nil {
		return nil, err
	}

	for i := range out {
		if d, ok := dates[out[i].ID]; ok {
			out[i].StartDates = d
		}
		// Inactive or deleted guides drop out.
		populated := make([]models.UserSummary, 0, len(rows[i].Guides))
		for _, id := range rows[i].Guides {
			if g, ok := guides[id]; ok {
				populated = append(populated, g)
			}
		}
		out[i].Guides = populated
	}
	return out, nil
}

type startDateRow struct {
	AdventureID string    `db:"adventure_id"`
	StartDate   time.Time `db:"start_date"`
}

func loadStartDates(ctx context.Context, q sqlx.QueryerContext, ids []string) (map[string][]time.Time, error) {
	stmt, args, err := sqlx.In(`SELECT adventure_id, start_date FROM adventure_start_dates
		WHERE adventure_id IN (?) ORDER BY start_date`, ids)
	if err != nil {
		return nil, fmt.Errorf("build start date query: %w", err)
	}
	var rows []startDateRow
	if err := sqlx.SelectContext(ctx, q, &rows, stmt, args...); err != nil {
		return nil, fmt.Errorf("load start dates: %w", err)
	}

	dates := make(map[string][]time.Time, len(ids))
	for _, r := range rows {
		dates[r.AdventureID] = append(dates[r.AdventureID], r.StartDate.UTC())
	}
	return dates, nil
}

// UpdateAdventure loads the adventure, lets apply modify it and writes the
// result back. apply may run more than once if the write conflicts.
func (db *DB) UpdateAdventure(ctx context.Context, id string, apply func(*models.Adventure) error) (updated *models.Adventure, err error) {
	defer db.observe("update_adventure", time.Now(), &err)

	err = db.retryOnConflict(ctx, func() error {
		return db.withTx(ctx, func(tx *sqlx.Tx) error {
			row, err := getAdventureRow(ctx, tx, "id = ?", id)
			if err != nil {
				return err
			}
			list, err := hydrateAdventures(ctx, tx, []adventureRow{*row})
			if err != nil {
				return err
			}
			adv := list[0]
			if err := apply(&adv); err != nil {
				return err
			}
			adv.ID = row.ID
			adv.CreatedAt = row.CreatedAt
			adv.Normalize()

			if err := updateAdventureRow(ctx, tx, &adv, adv.Name != row.Name); err != nil {
				return err
			}
			return replaceStartDates(ctx, tx, adv.ID, adv.StartDates)
		})
	})
	if err != nil {
		return nil, translateError(err)
	}
	return db.GetAdventure(ctx, id)
}

func updateAdventureRow(ctx context.Context, tx *sqlx.Tx, a *models.Adventure, nameChanged bool) error {
	images, err := encodeStrings(a.Images)
	if err != nil {
		return err
	}
	start, err := encodePoint(a.StartLocation)
	if err != nil {
		return err
	}
	locations, err := encodePoints(a.Locations)
	if err != nil {
		return err
	}
	guides, err := encodeStrings(a.GuideIDs())
	if err != nil {
		return err
	}

	sets := []string{
		"duration = ?", "distance = ?", "max_group_size = ?", "difficulty = ?",
		"ratings_average = ?", "ratings_quantity = ?", "price = ?", "price_discount = ?",
		"summary = ?", "description = ?", "image_cover = ?", "images = ?",
		"start_location = ?", "start_lng = ?", "start_lat = ?", "locations = ?",
		"guides = ?", "secret_adventure = ?",
	}
	args := []interface{}{
		a.Duration, a.Distance, a.MaxGroupSize, a.Difficulty,
		a.RatingsAverage, a.RatingsQuantity, a.Price, nullFloat(a.PriceDiscount),
		a.Summary, a.Description, a.ImageCover, images,
		start, startLng(a), startLat(a), locations,
		guides, a.SecretAdventure,
	}
	// Indexed columns are only rewritten when they change.
	if nameChanged {
		sets = append(sets, "name = ?", "slug = ?")
		args = append(args, a.Name, a.Slug)
	}
	args = append(args, a.ID)

	res, err := tx.ExecContext(ctx, "UPDATE adventures SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update adventure: %w", err)
	}
	return requireRow(res)
}

// DeleteAdventure removes the adventure with its start dates and reviews
// and returns what was deleted.
func (db *DB) DeleteAdventure(ctx context.Context, id string) (deleted *models.Adventure, err error) {
	defer db.observe("delete_adventure", time.Now(), &err)

	var adv models.Adventure
	err = db.withTx(ctx, func(tx *sqlx.Tx) error {
		row, err := getAdventureRow(ctx, tx, "id = ?", id)
		if err != nil {
			return err
		}
		adv = row.toModel()

		for _, stmt := range []string{
			`DELETE FROM adventure_start_dates WHERE adventure_id = ?`,
			`DELETE FROM reviews WHERE adventure_id = ?`,
			`DELETE FROM adventures WHERE id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return fmt.Errorf("delete adventure: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &adv, nil
}

// requireRow maps an update or delete that touched nothing to ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
