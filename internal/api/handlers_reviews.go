// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/arko8919/cotswold-cycling-adventures/internal/auth"
	"github.com/arko8919/cotswold-cycling-adventures/internal/database"
	"github.com/arko8919/cotswold-cycling-adventures/internal/database/query"
	"github.com/arko8919/cotswold-cycling-adventures/internal/models"
	"github.com/arko8919/cotswold-cycling-adventures/internal/validation"
)

// reviewInput is the body of review writes.
type reviewInput struct {
	Review    *string  `json:"review"`
	Rating    *float64 `json:"rating"`
	Adventure *string  `json:"adventure"`
	User      *string  `json:"user"`
}

type reviewRules struct {
	Review    string  `json:"review" validate:"notblank" msg:"Review can not be empty"`
	Rating    float64 `json:"rating" validate:"gte=1,lte=5" msg:"gte=Rating must be above 1.0|lte=Rating must be below 5.0"`
	Adventure string  `json:"adventure" validate:"required,uuid" msg:"Review must belong to an adventure"`
	User      string  `json:"user" validate:"required,uuid" msg:"Review must belong to a user"`
}

func validateReview(rv *models.Review) error {
	if err := validation.ValidateStruct(&reviewRules{
		Review:    rv.Review,
		Rating:    rv.Rating,
		Adventure: rv.Adventure,
		User:      rv.User.ID,
	}); err != nil {
		return err
	}
	return nil
}

// nestedAdventureID returns the {adventureId} of a nested route, or "".
func nestedAdventureID(r *http.Request) string {
	return chi.URLParam(r, "adventureId")
}

func (h *Handler) reviewResource() resource[models.Review] {
	return resource[models.Review]{
		schema: database.ReviewSchema,
		list: func(ctx context.Context, f *query.Features, r *http.Request) ([]models.Review, error) {
			return h.db.ListReviews(ctx, f, nestedAdventureID(r))
		},
		get: h.db.GetReview,
		remove: func(ctx context.Context, id string) error {
			_, err := h.db.DeleteReview(ctx, id)
			return err
		},
		afterWrite: h.purgeAdventureCaches,
	}
}

// GetAllReviews lists reviews, limited to one adventure on nested routes.
func (h *Handler) GetAllReviews(w http.ResponseWriter, r *http.Request) {
	if id := nestedAdventureID(r); id != "" {
		if _, err := pathID(r, "adventureId"); err != nil {
			h.handleError(w, r, err)
			return
		}
	}
	getAll(h, h.reviewResource())(w, r)
}

// GetReview returns one review.
func (h *Handler) GetReview(w http.ResponseWriter, r *http.Request) {
	getOne(h, h.reviewResource())(w, r)
}

// DeleteReview removes a review and refreshes the adventure's rating.
func (h *Handler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	deleteOne(h, h.reviewResource())(w, r)
}

// CreateReview stores a review. The adventure defaults to the nested
// route's and the author to the logged-in user.
func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var in reviewInput
	if err := decodeJSON(r, &in); err != nil {
		h.handleError(w, r, err)
		return
	}

	rv := &models.Review{}
	if in.Review != nil {
		rv.Review = strings.TrimSpace(*in.Review)
	}
	if in.Rating != nil {
		rv.Rating = *in.Rating
	}
	if in.Adventure != nil {
		rv.Adventure = *in.Adventure
	}
	if rv.Adventure == "" {
		rv.Adventure = nestedAdventureID(r)
	}
	if in.User != nil {
		rv.User.ID = *in.User
	}
	if rv.User.ID == "" {
		if user := auth.UserFromContext(r.Context()); user != nil {
			rv.User.ID = user.ID
		}
	}

	if err := validateReview(rv); err != nil {
		h.handleError(w, r, err)
		return
	}

	created, err := h.db.CreateReview(r.Context(), rv)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.purgeAdventureCaches()
	respondOne(w, http.StatusCreated, created)
}

// UpdateReview changes the text or rating of a review.
func (h *Handler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	updateOne(h, func(ctx context.Context, id string, in *reviewInput) (*models.Review, error) {
		updated, err := h.db.UpdateReview(ctx, id, func(rv *models.Review) error {
			if in.Review != nil {
				rv.Review = strings.TrimSpace(*in.Review)
			}
			if in.Rating != nil {
				rv.Rating = *in.Rating
			}
			return validateReview(rv)
		})
		if err != nil {
			return nil, err
		}
		h.purgeAdventureCaches()
		return updated, nil
	})(w, r)
}
