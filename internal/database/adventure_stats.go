// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/arko8919/cotswold-cycling-adventures/internal/models"
)

// AdventureStats aggregates well-rated public adventures by difficulty,
// cheapest group first.
func (db *DB) AdventureStats(ctx context.Context) (stats []models.DifficultyStats, err error) {
	defer db.observe("adventure_stats", time.Now(), &err)

	stats = []models.DifficultyStats{}
	err = db.x.SelectContext(ctx, &stats, `
		SELECT
			upper(difficulty) AS difficulty,
			count(*) AS num,
			CAST(sum(ratings_quantity) AS BIGINT) AS num_ratings,
			avg(ratings_average) AS avg_rating,
			avg(price) AS avg_price,
			min(price) AS min_price,
			max(price) AS max_price
		FROM adventures
		WHERE ratings_average >= ? AND secret_adventure = false
		GROUP BY upper(difficulty)
		ORDER BY avg_price ASC`, models.DefaultRatingsAverage)
	if err != nil {
		return nil, fmt.Errorf("adventure stats: %w", err)
	}
	return stats, nil
}

type monthlyPlanRow struct {
	Month int         `db:"month"`
	Num   int         `db:"num"`
	Names jsonStrings `db:"names"`
}

// MonthlyPlan counts departures per month of year, busiest month first.
// The range is [year-01-01, year+1-01-01) so all of December 31 counts.
func (db *DB) MonthlyPlan(ctx context.Context, year int) (plan []models.MonthlyPlan, err error) {
	defer db.observe("monthly_plan", time.Now(), &err)

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	var rows []monthlyPlanRow
	err = db.x.SelectContext(ctx, &rows, `
		SELECT
			CAST(month(d.start_date) AS INTEGER) AS month,
			count(*) AS num,
			CAST(to_json(list(a.name ORDER BY a.name)) AS VARCHAR) AS names
		FROM adventure_start_dates d
		JOIN adventures a ON a.id = d.adventure_id
		WHERE d.start_date >= ? AND d.start_date < ? AND a.secret_adventure = false
		GROUP BY 1
		ORDER BY num DESC, month ASC
		LIMIT 12`, from, to)
	if err != nil {
		return nil, fmt.Errorf("monthly plan: %w", err)
	}

	plan = make([]models.MonthlyPlan, 0, len(rows))
	for _, r := range rows {
		plan = append(plan, models.MonthlyPlan{
			Month:              r.Month,
			NumAdventureStarts: r.Num,
			Adventures:         []string(r.Names),
		})
	}
	return plan, nil
}
