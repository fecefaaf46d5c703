// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package models

import (
	"math"
	"strings"
	"time"
	"unicode"
)

// Difficulty levels accepted for an adventure.
const (
	DifficultyEasy      = "easy"
	DifficultyMedium    = "medium"
	DifficultyDifficult = "difficult"
)

// DefaultRatingsAverage is the rating an adventure carries before its first review.
const DefaultRatingsAverage = 4.5

// GeoPoint is a GeoJSON Point with the extra fields adventures carry.
// Coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
	Address     string    `json:"address,omitempty"`
	Description string    `json:"description,omitempty"`
	Day         int       `json:"day,omitempty"`
}

// Lng returns the longitude, or 0 when coordinates are missing.
func (p *GeoPoint) Lng() float64 {
	if p == nil || len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[0]
}

// Lat returns the latitude, or 0 when coordinates are missing.
func (p *GeoPoint) Lat() float64 {
	if p == nil || len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[1]
}

// Adventure is a bookable multi-day cycling tour.
type Adventure struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Slug            string        `json:"slug"`
	Duration        int           `json:"duration"`
	DurationWeeks   float64       `json:"durationWeeks"`
	Distance        float64       `json:"distance"`
	MaxGroupSize    int           `json:"maxGroupSize"`
	Difficulty      string        `json:"difficulty"`
	RatingsAverage  float64       `json:"ratingsAverage"`
	RatingsQuantity int           `json:"ratingsQuantity"`
	Price           float64       `json:"price"`
	PriceDiscount   *float64      `json:"priceDiscount,omitempty"`
	Summary         string        `json:"summary"`
	Description     string        `json:"description,omitempty"`
	ImageCover      string        `json:"imageCover"`
	Images          []string      `json:"images"`
	StartDates      []time.Time   `json:"startDates"`
	StartLocation   *GeoPoint     `json:"startLocation,omitempty"`
	Locations       []GeoPoint    `json:"locations"`
	Guides          []UserSummary `json:"guides"`
	SecretAdventure bool          `json:"secretAdventure"`
	CreatedAt       time.Time     `json:"createdAt"`

	// Populated on single reads only.
	Reviews []Review `json:"reviews,omitempty"`
}

// GuideIDs returns the ids of the assigned guides.
func (a *Adventure) GuideIDs() []string {
	ids := make([]string, 0, len(a.Guides))
	for _, g := range a.Guides {
		ids = append(ids, g.ID)
	}
	return ids
}

// Normalize derives computed fields and fills empty collections so they
// encode as [] rather than null.
func (a *Adventure) Normalize() {
	a.Slug = Slugify(a.Name)
	a.DurationWeeks = float64(a.Duration) / 7
	if a.Images == nil {
		a.Images = []string{}
	}
	if a.StartDates == nil {
		a.StartDates = []time.Time{}
	}
	if a.Locations == nil {
		a.Locations = []GeoPoint{}
	}
	if a.Guides == nil {
		a.Guides = []UserSummary{}
	}
}

// AdventureSummary is the populated form of an adventure reference.
type AdventureSummary struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Slug       string  `json:"slug,omitempty"`
	Price      float64 `json:"price,omitempty"`
	ImageCover string  `json:"imageCover,omitempty"`
}

// Slugify lower-cases name and joins its words with hyphens.
// "The Forest Hiker" becomes "the-forest-hiker".
func Slugify(name string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// RoundRating rounds to one decimal place, 4.666 becomes 4.7.
func RoundRating(v float64) float64 {
	return math.Round(v*10) / 10
}
