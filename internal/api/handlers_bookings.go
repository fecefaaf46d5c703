// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/arko8919/cotswold-cycling-adventures/internal/auth"
	"github.com/arko8919/cotswold-cycling-adventures/internal/database"
	"github.com/arko8919/cotswold-cycling-adventures/internal/database/query"
	"github.com/arko8919/cotswold-cycling-adventures/internal/export"
	"github.com/arko8919/cotswold-cycling-adventures/internal/logging"
	"github.com/arko8919/cotswold-cycling-adventures/internal/models"
	"github.com/arko8919/cotswold-cycling-adventures/internal/validation"
)

// maxExportRows bounds one spreadsheet export.
const maxExportRows = 10000

// bookingInput is the admin create and update body.
type bookingInput struct {
	Adventure *string  `json:"adventure"`
	User      *string  `json:"user"`
	Price     *float64 `json:"price"`
	Paid      *bool    `json:"paid"`
	Status    *string  `json:"status"`
	StartDate *string  `json:"startDate"`
}

type bookingRules struct {
	Adventure string  `json:"adventure" validate:"required,uuid" msg:"Booking must belong to an adventure!"`
	User      string  `json:"user" validate:"required,uuid" msg:"Booking must belong to a user!"`
	Price     float64 `json:"price" validate:"gt=0" msg:"Booking must have a price."`
	Status    string  `json:"status" validate:"oneof=held confirmed expired" msg:"Status is either: held, confirmed, expired"`
}

// apply copies the set fields onto b.
func (in *bookingInput) apply(b *models.Booking) error {
	if in.Price != nil {
		b.Price = *in.Price
	}
	if in.Paid != nil {
		b.Paid = *in.Paid
	}
	if in.Status != nil {
		b.Status = *in.Status
	}
	if in.StartDate != nil {
		if *in.StartDate == "" {
			b.StartDate = nil
		} else {
			t, err := parseStartDate(*in.StartDate)
			if err != nil {
				return err
			}
			b.StartDate = &t
		}
	}
	if err := validation.ValidateStruct(&bookingRules{
		Adventure: b.Adventure.ID,
		User:      b.User.ID,
		Price:     b.Price,
		Status:    b.Status,
	}); err != nil {
		return err
	}
	return nil
}

// parseStartDate reads a departure date from a query or body value.
func parseStartDate(raw string) (time.Time, error) {
	t, err := parseDate(raw)
	if err != nil {
		return time.Time{}, appErrorf(http.StatusBadRequest, "Invalid startDate: %s", raw)
	}
	return t, nil
}

func (h *Handler) bookingResource() resource[models.Booking] {
	return resource[models.Booking]{
		schema: database.BookingSchema,
		list: func(ctx context.Context, f *query.Features, _ *http.Request) ([]models.Booking, error) {
			return h.db.ListBookings(ctx, f)
		},
		get:    h.db.GetBooking,
		remove: h.db.DeleteBooking,
	}
}

// GetCheckoutSession holds a seat on the adventure and answers the hosted
// payment session.
func (h *Handler) GetCheckoutSession(w http.ResponseWriter, r *http.Request) {
	adventureID, err := pathID(r, "adventureId")
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	user := auth.UserFromContext(r.Context())
	if user == nil {
		h.handleError(w, r, auth.ErrNotLoggedIn)
		return
	}

	var startDate *time.Time
	if raw := r.URL.Query().Get("startDate"); raw != "" {
		t, err := parseStartDate(raw)
		if err != nil {
			h.handleError(w, r, err)
			return
		}
		startDate = &t
	}

	session, err := h.bookings.Checkout(r.Context(), user, adventureID, startDate, requestBase(r))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  statusSuccess,
		"session": session,
	})
}

// GetAllBookings lists bookings.
func (h *Handler) GetAllBookings(w http.ResponseWriter, r *http.Request) {
	getAll(h, h.bookingResource())(w, r)
}

// GetBooking returns one booking.
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	getOne(h, h.bookingResource())(w, r)
}

// DeleteBooking removes a booking.
func (h *Handler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	deleteOne(h, h.bookingResource())(w, r)
}

// CreateBooking records a booking directly. Capacity still applies.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var in bookingInput
	if err := decodeJSON(r, &in); err != nil {
		h.handleError(w, r, err)
		return
	}

	b := &models.Booking{Status: models.BookingConfirmed, Paid: true}
	if in.Adventure != nil {
		b.Adventure.ID = *in.Adventure
	}
	if in.User != nil {
		b.User.ID = *in.User
	}
	if err := in.apply(b); err != nil {
		h.handleError(w, r, err)
		return
	}

	created, err := h.db.CreateBooking(r.Context(), b)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Info().Str("booking_id", created.ID).Msg("Booking created by staff")
	respondOne(w, http.StatusCreated, created)
}

// UpdateBooking changes price, payment, status or departure.
func (h *Handler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	updateOne(h, func(ctx context.Context, id string, in *bookingInput) (*models.Booking, error) {
		return h.db.UpdateBooking(ctx, id, in.apply)
	})(w, r)
}

// ExportBookings answers the bookings matching the query as a spreadsheet.
func (h *Handler) ExportBookings(w http.ResponseWriter, r *http.Request) {
	f, err := query.Parse(r.URL.Query(), database.BookingSchema, query.Defaults{
		PageSize:    maxExportRows,
		MaxPageSize: maxExportRows,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	bookings, err := h.db.ListBookings(r.Context(), f)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	book, err := export.BookingsWorkbook(bookings)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	defer func() {
		if err := book.Close(); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Failed to close workbook")
		}
	}()

	name := fmt.Sprintf("bookings-%s.xlsx", h.now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if err := book.Write(w); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to write bookings export")
	}
}
