// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package api

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/arko8919/cotswold-cycling-adventures/internal/models"
)

func TestReviewsRequireLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(http.MethodGet, "/api/v1/reviews", nil, "")
	expectStatus(t, rec, http.StatusUnauthorized)
}

func TestCreateReviewNested(t *testing.T) {
	env := newTestEnv(t)
	rider := env.createUser("Rider", "rider@example.org", models.RoleUser)
	a := env.createAdventure(testAdventure("Cotswold Way Explorer"))
	token := env.token(rider)

	rec := env.request(http.MethodPost, "/api/v1/adventures/"+a.ID+"/reviews",
		map[string]interface{}{"review": "  Glorious lanes and tea stops ", "rating": 4}, token)
	expectStatus(t, rec, http.StatusCreated)

	doc := dataDoc(t, rec)
	if doc["adventure"] != a.ID {
		t.Errorf("adventure = %v, want %s", doc["adventure"], a.ID)
	}
	user, _ := doc["user"].(map[string]interface{})
	if user["id"] != rider.ID {
		t.Errorf("user.id = %v, want %s", user["id"], rider.ID)
	}
	if doc["review"] != "Glorious lanes and tea stops" {
		t.Errorf("review = %q, want trimmed text", doc["review"])
	}

	got, err := env.db.GetAdventure(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("GetAdventure() error = %v", err)
	}
	if got.RatingsQuantity != 1 || got.RatingsAverage != 4 {
		t.Errorf("ratings = %d/%v, want 1/4", got.RatingsQuantity, got.RatingsAverage)
	}

	// One review per user and adventure.
	rec = env.request(http.MethodPost, "/api/v1/adventures/"+a.ID+"/reviews",
		map[string]interface{}{"review": "Again", "rating": 5}, token)
	expectStatus(t, rec, http.StatusBadRequest)
	if msg, _ := decodeBody(t, rec)["message"].(string); !strings.HasPrefix(msg, "Duplicate field") {
		t.Errorf("message = %q, want duplicate field error", msg)
	}

	rec = env.request(http.MethodGet, "/api/v1/adventures/"+a.ID+"/reviews", nil, token)
	expectStatus(t, rec, http.StatusOK)
	if n := len(dataList(t, rec)); n != 1 {
		t.Errorf("len(nested reviews) = %d, want 1", n)
	}
}

func TestCreateReviewValidation(t *testing.T) {
	env := newTestEnv(t)
	rider := env.createUser("Rider", "rider@example.org", models.RoleUser)
	a := env.createAdventure(testAdventure("Cotswold Way Explorer"))
	token := env.token(rider)

	tests := []struct {
		name       string
		path       string
		body       map[string]interface{}
		wantStatus int
		want       string
	}{
		{
			name:       "empty review",
			path:       "/api/v1/adventures/" + a.ID + "/reviews",
			body:       map[string]interface{}{"review": "   ", "rating": 4},
			wantStatus: http.StatusBadRequest,
			want:       "Invalid input data. Review can not be empty",
		},
		{
			name:       "rating too high",
			path:       "/api/v1/adventures/" + a.ID + "/reviews",
			body:       map[string]interface{}{"review": "Fine", "rating": 6},
			wantStatus: http.StatusBadRequest,
			want:       "Invalid input data. Rating must be below 5.0",
		},
		{
			name:       "no adventure",
			path:       "/api/v1/reviews",
			body:       map[string]interface{}{"review": "Fine", "rating": 4},
			wantStatus: http.StatusBadRequest,
			want:       "Invalid input data. Review must belong to an adventure",
		},
		{
			name:       "unknown adventure",
			path:       "/api/v1/reviews",
			body:       map[string]interface{}{"review": "Fine", "rating": 4, "adventure": "6f0a1b5e-3c1d-4a44-9d0e-0a8f1b2c3d4e"},
			wantStatus: http.StatusNotFound,
			want:       msgNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.request(http.MethodPost, tt.path, tt.body, token)
			expectStatus(t, rec, tt.wantStatus)
			expectMessage(t, rec, tt.want)
		})
	}
}

func TestNestedReviewsInvalidAdventure(t *testing.T) {
	env := newTestEnv(t)
	rider := env.createUser("Rider", "rider@example.org", models.RoleUser)

	rec := env.request(http.MethodGet, "/api/v1/adventures/nope/reviews", nil, env.token(rider))
	expectStatus(t, rec, http.StatusBadRequest)
	expectMessage(t, rec, "Invalid ID: nope. Please provide a valid ID.")
}

func TestCreateReviewForbiddenForGuides(t *testing.T) {
	env := newTestEnv(t)
	guide := env.createUser("Guide", "guide@example.org", models.RoleGuide)
	a := env.createAdventure(testAdventure("Cotswold Way Explorer"))

	rec := env.request(http.MethodPost, "/api/v1/adventures/"+a.ID+"/reviews",
		map[string]interface{}{"review": "Fine", "rating": 4}, env.token(guide))
	expectStatus(t, rec, http.StatusForbidden)
}

func TestUpdateAndDeleteReview(t *testing.T) {
	env := newTestEnv(t)
	rider := env.createUser("Rider", "rider@example.org", models.RoleUser)
	a := env.createAdventure(testAdventure("Cotswold Way Explorer"))
	token := env.token(rider)

	rv, err := env.db.CreateReview(context.Background(), &models.Review{
		Review:    "Decent",
		Rating:    3,
		Adventure: a.ID,
		User:      models.UserSummary{ID: rider.ID},
	})
	if err != nil {
		t.Fatalf("CreateReview() error = %v", err)
	}

	rec := env.request(http.MethodPatch, "/api/v1/reviews/"+rv.ID, map[string]interface{}{"rating": 5}, token)
	expectStatus(t, rec, http.StatusOK)
	if doc := dataDoc(t, rec); doc["rating"] != float64(5) || doc["review"] != "Decent" {
		t.Errorf("updated review = %v, want rating 5 and unchanged text", doc)
	}

	got, err := env.db.GetAdventure(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("GetAdventure() error = %v", err)
	}
	if got.RatingsAverage != 5 {
		t.Errorf("ratingsAverage = %v, want 5 after update", got.RatingsAverage)
	}

	rec = env.request(http.MethodDelete, "/api/v1/reviews/"+rv.ID, nil, token)
	expectStatus(t, rec, http.StatusNoContent)

	got, err = env.db.GetAdventure(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("GetAdventure() error = %v", err)
	}
	if got.RatingsQuantity != 0 || got.RatingsAverage != models.DefaultRatingsAverage {
		t.Errorf("ratings after delete = %d/%v, want 0/%v", got.RatingsQuantity, got.RatingsAverage, models.DefaultRatingsAverage)
	}

	rec = env.request(http.MethodGet, "/api/v1/reviews/"+rv.ID, nil, token)
	expectStatus(t, rec, http.StatusNotFound)
}
