// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package models

import "time"

// Review is one user's rating of one adventure.
type Review struct {
	ID        string      `json:"id"`
	Review    string      `json:"review"`
	Rating    float64     `json:"rating"`
	CreatedAt time.Time   `json:"createdAt"`
	Adventure string      `json:"adventure"`
	User      UserSummary `json:"user"`
}
