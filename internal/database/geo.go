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

// Earth radii used for spherical distances.
const (
	earthRadiusMiles  = 3963.2
	earthRadiusKm     = 6378.1
	earthRadiusMeters = 6378100.0

	metersToMiles = 0.000621371
	metersToKm    = 0.001
)

// centralAngleSQL is the haversine central angle in radians between the
// start point and (?lat, ?lng). Arguments: lat, lat, lng.
const centralAngleSQL = `2 * asin(least(1.0, sqrt(
	pow(sin(radians(start_lat - ?) / 2), 2) +
	cos(radians(?)) * cos(radians(start_lat)) * pow(sin(radians(start_lng - ?) / 2), 2))))`

func angleArgs(lat, lng float64) []interface{} {
	return []interface{}{lat, lat, lng}
}

// IsMiles reports whether unit selects miles. Anything else means km.
func IsMiles(unit string) bool {
	return unit == "mi"
}

// RadiusRadians converts a distance in unit to an angle on the sphere.
func RadiusRadians(distance float64, unit string) float64 {
	if IsMiles(unit) {
		return distance / earthRadiusMiles
	}
	return distance / earthRadiusKm
}

// AdventuresWithin returns public adventures starting within distance of
// (lat, lng).
func (db *DB) AdventuresWithin(ctx context.Context, distance, lat, lng float64, unit string) (adventures []models.Adventure, err error) {
	defer db.observe("adventures_within", time.Now(), &err)

	q := fmt.Sprintf(`SELECT %s FROM adventures
		WHERE secret_adventure = false AND start_lat IS NOT NULL AND start_lng IS NOT NULL
			AND %s <= ?
		ORDER BY created_at DESC, id ASC`, adventureColumns, centralAngleSQL)
	args := append(angleArgs(lat, lng), RadiusRadians(distance, unit))
	return db.selectAdventures(ctx, q, args...)
}

// Distances returns the distance from (lat, lng) to every public adventure
// start, nearest first.
func (db *DB) Distances(ctx context.Context, lat, lng float64, unit string) (distances []models.AdventureDistance, err error) {
	defer db.observe("adventure_distances", time.Now(), &err)

	multiplier := metersToKm
	if IsMiles(unit) {
		multiplier = metersToMiles
	}

	q := fmt.Sprintf(`SELECT id, name, %s * ? * ? AS distance FROM adventures
		WHERE secret_adventure = false AND start_lat IS NOT NULL AND start_lng IS NOT NULL
		ORDER BY distance ASC, id ASC`, centralAngleSQL)
	args := append(angleArgs(lat, lng), earthRadiusMeters, multiplier)

	distances = []models.AdventureDistance{}
	if err := db.x.SelectContext(ctx, &distances, q, args...); err != nil {
		return nil, fmt.Errorf("adventure distances: %w", err)
	}
	return distances, nil
}
