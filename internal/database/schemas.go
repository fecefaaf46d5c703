// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package database

import "github.com/arko8919/cotswold-cycling-adventures/internal/database/query"

// Query schemas map API field names to columns. Fields without a column
// are stored as JSON or computed and can only be projected.

var AdventureSchema = query.Schema{
	"id":              {Column: "id", Kind: query.KindString},
	"name":            {Column: "name", Kind: query.KindString},
	"slug":            {Column: "slug", Kind: query.KindString},
	"duration":        {Column: "duration", Kind: query.KindNumber},
	"durationWeeks":   {},
	"distance":        {Column: "distance", Kind: query.KindNumber},
	"maxGroupSize":    {Column: "max_group_size", Kind: query.KindNumber},
	"difficulty":      {Column: "difficulty", Kind: query.KindString},
	"ratingsAverage":  {Column: "ratings_average", Kind: query.KindNumber},
	"ratingsQuantity": {Column: "ratings_quantity", Kind: query.KindNumber},
	"price":           {Column: "price", Kind: query.KindNumber},
	"priceDiscount":   {Column: "price_discount", Kind: query.KindNumber},
	"summary":         {Column: "summary", Kind: query.KindString},
	"description":     {Column: "description", Kind: query.KindString},
	"imageCover":      {Column: "image_cover", Kind: query.KindString},
	"images":          {},
	"startDates":      {},
	"startLocation":   {},
	"locations":       {},
	"guides":          {},
	"secretAdventure": {},
	"createdAt":       {Column: "created_at", Kind: query.KindTime},
}

var UserSchema = query.Schema{
	"id":                {Column: "id", Kind: query.KindString},
	"name":              {Column: "name", Kind: query.KindString},
	"email":             {Column: "email", Kind: query.KindString},
	"photo":             {Column: "photo", Kind: query.KindString},
	"role":              {Column: "role", Kind: query.KindString},
	"passwordChangedAt": {},
	"createdAt":         {Column: "created_at", Kind: query.KindTime},
}

var ReviewSchema = query.Schema{
	"id":        {Column: "id", Kind: query.KindString},
	"review":    {Column: "review", Kind: query.KindString},
	"rating":    {Column: "rating", Kind: query.KindNumber},
	"adventure": {Column: "adventure_id", Kind: query.KindString},
	"user":      {Column: "user_id", Kind: query.KindString},
	"createdAt": {Column: "created_at", Kind: query.KindTime},
}

var BookingSchema = query.Schema{
	"id":        {Column: "id", Kind: query.KindString},
	"adventure": {Column: "adventure_id", Kind: query.KindString},
	"user":      {Column: "user_id", Kind: query.KindString},
	"price":     {Column: "price", Kind: query.KindNumber},
	"paid":      {Column: "paid", Kind: query.KindBool},
	"status":    {Column: "status", Kind: query.KindString},
	"startDate": {Column: "start_date", Kind: query.KindTime},
	"sessionId": {Column: "session_id", Kind: query.KindString},
	"expiresAt": {Column: "expires_at", Kind: query.KindTime},
	"createdAt": {Column: "created_at", Kind: query.KindTime},
}
