// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package models

// DifficultyStats aggregates well-rated adventures of one difficulty.
type DifficultyStats struct {
	Difficulty string  `json:"difficulty" db:"difficulty"`
	Num        int     `json:"numAdventures" db:"num"`
	NumRatings int     `json:"numRatings" db:"num_ratings"`
	AvgRating  float64 `json:"avgRating" db:"avg_rating"`
	AvgPrice   float64 `json:"avgPrice" db:"avg_price"`
	MinPrice   float64 `json:"minPrice" db:"min_price"`
	MaxPrice   float64 `json:"maxPrice" db:"max_price"`
}

// MonthlyPlan counts adventure departures in one calendar month.
type MonthlyPlan struct {
	Month              int      `json:"month"`
	NumAdventureStarts int      `json:"numAdventureStarts"`
	Adventures         []string `json:"adventures"`
}

// AdventureDistance is the distance from a point to an adventure's start.
type AdventureDistance struct {
	ID       string  `json:"id" db:"id"`
	Name     string  `json:"name" db:"name"`
	Distance float64 `json:"distance" db:"distance"`
}
