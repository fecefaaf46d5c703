// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

/*
Package models defines the documents the booking platform stores and serves.

Key Components:

  - Adventure: a bookable multi-day tour with start dates, a GeoJSON start
    point, day stops and assigned guides
  - User: an account with a role (user, guide, lead-guide, admin)
  - Review: a rating and text left by a user for one adventure
  - Booking: a seat on one departure, held during checkout and confirmed
    once paid

Model Categories:

1. Documents:
  - Adventure, User, Review, Booking
  - Hold: the checkout session to booking link kept in the ledger

2. Populated references:
  - AdventureSummary and UserSummary replace bare ids in API output

3. Aggregates:
  - DifficultyStats: per-difficulty rating and price figures
  - MonthlyPlan: departures per month for one year
  - AdventureDistance: distance from a point to each start location

Usage Example:

	adv := &models.Adventure{
	    Name:         "The Cotswold Way Explorer",
	    Duration:     5,
	    MaxGroupSize: 8,
	    Difficulty:   models.DifficultyMedium,
	    Price:        497,
	}
	adv.Normalize() // slug "the-cotswold-way-explorer", durationWeeks, empty slices

JSON field names follow the public API (camelCase), so a model encodes to
the same document the API returns.
*/
package models
