// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package models

import "time"

// Roles a user can hold.
const (
	RoleUser      = "user"
	RoleGuide     = "guide"
	RoleLeadGuide = "lead-guide"
	RoleAdmin     = "admin"
)

// DefaultPhoto is assigned to users who never uploaded one.
const DefaultPhoto = "default.jpg"

// User is an account. Password hashes, reset tokens and the active flag
// never leave the server.
type User struct {
	ID                   string     `json:"id"`
	Name                 string     `json:"name"`
	Email                string     `json:"email"`
	Photo                string     `json:"photo"`
	Role                 string     `json:"role"`
	Password             string     `json:"-"`
	PasswordChangedAt    *time.Time `json:"passwordChangedAt,omitempty"`
	PasswordResetToken   string     `json:"-"`
	PasswordResetExpires *time.Time `json:"-"`
	Active               bool       `json:"-"`
	CreatedAt            time.Time  `json:"createdAt"`
}

// Summary returns the populated form used inside reviews and bookings.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Photo: u.Photo, Email: u.Email, Role: u.Role}
}

// FirstName returns the first word of the user's name.
func (u *User) FirstName() string {
	for i, r := range u.Name {
		if r == ' ' {
			return u.Name[:i]
		}
	}
	return u.Name
}

// UserSummary is the populated form of a user reference.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Photo string `json:"photo,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}
