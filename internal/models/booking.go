// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package models

import "time"

// Booking lifecycle states. A held booking reserves a seat while its
// checkout session is open.
const (
	BookingHeld      = "held"
	BookingConfirmed = "confirmed"
	BookingExpired   = "expired"
)

// Booking links a user to an adventure they paid for.
type Booking struct {
	ID        string           `json:"id"`
	Adventure AdventureSummary `json:"adventure"`
	User      UserSummary      `json:"user"`
	Price     float64          `json:"price"`
	Paid      bool             `json:"paid"`
	Status    string           `json:"status"`
	StartDate *time.Time       `json:"startDate,omitempty"`
	SessionID string           `json:"sessionId,omitempty"`
	ExpiresAt *time.Time       `json:"expiresAt,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

// Hold describes a seat reservation requested at checkout.
type Hold struct {
	BookingID   string
	AdventureID string
	UserID      string
	Price       float64
	StartDate   *time.Time
	ExpiresAt   time.Time
}
