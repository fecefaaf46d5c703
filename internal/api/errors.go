// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package api

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/arko8919/cotswold-cycling-adventures/internal/auth"
	"github.com/arko8919/cotswold-cycling-adventures/internal/authz"
	"github.com/arko8919/cotswold-cycling-adventures/internal/booking"
	"github.com/arko8919/cotswold-cycling-adventures/internal/database"
	"github.com/arko8919/cotswold-cycling-adventures/internal/database/query"
	"github.com/arko8919/cotswold-cycling-adventures/internal/imaging"
	"github.com/arko8919/cotswold-cycling-adventures/internal/logging"
	"github.com/arko8919/cotswold-cycling-adventures/internal/payments"
	"github.com/arko8919/cotswold-cycling-adventures/internal/validation"
)

// AppError is an operational error with a client-facing message.
type AppError struct {
	StatusCode  int
	Message     string
	Operational bool
}

func (e *AppError) Error() string { return e.Message }

// Status is "fail" for client errors and "error" otherwise.
func (e *AppError) Status() string {
	if e.StatusCode >= 400 && e.StatusCode < 500 {
		return "fail"
	}
	return "error"
}

// newAppError returns an operational error.
func newAppError(status int, message string) *AppError {
	return &AppError{StatusCode: status, Message: message, Operational: true}
}

func appErrorf(status int, format string, args ...interface{}) *AppError {
	return newAppError(status, fmt.Sprintf(format, args...))
}

const (
	msgNotFound        = "No document found with that ID"
	msgAdventureByName = "There is no adventure with that name"
	msgInvalidToken    = "Invalid or expired token. Please log in again!"
	msgTokenExpired    = "Your session has expired! Please log in again to continue."
	msgFullyBooked     = "This departure is fully booked. Please choose another date."
	msgSomethingWrong  = "Something went very wrong!"
)

// invalidIDError is returned for path ids that are not uuids.
func invalidIDError(id string) *AppError {
	return appErrorf(http.StatusBadRequest, "Invalid ID: %s. Please provide a valid ID.", id)
}

// toAppError maps any error to the response it produces. Errors without a
// mapping become non-operational 500s.
func toAppError(err error) *AppError {
	var (
		appErr   *AppError
		dupErr   *database.DuplicateError
		capErr   *database.CapacityError
		valErr   *validation.RequestValidationError
		queryErr *query.Error
		authErr  *auth.Error
		upErr    *imaging.UploadError
		maxErr   *http.MaxBytesError
	)

	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, database.ErrNotFound):
		return newAppError(http.StatusNotFound, msgNotFound)
	case errors.As(err, &dupErr):
		return appErrorf(http.StatusBadRequest, "Duplicate field %q with value %q. Please use a different value!", dupErr.Field, dupErr.Value)
	case errors.As(err, &valErr):
		return newAppError(http.StatusBadRequest, valErr.Message())
	case errors.As(err, &queryErr):
		return newAppError(http.StatusBadRequest, queryErr.Message)
	case errors.As(err, &authErr):
		return newAppError(http.StatusUnauthorized, authErr.Message)
	case errors.Is(err, auth.ErrTokenExpired):
		return newAppError(http.StatusUnauthorized, msgTokenExpired)
	case errors.Is(err, auth.ErrInvalidToken):
		return newAppError(http.StatusUnauthorized, msgInvalidToken)
	case errors.Is(err, authz.ErrForbidden):
		return newAppError(http.StatusForbidden, authz.ErrForbidden.Error())
	case errors.Is(err, imaging.ErrNotImage):
		return newAppError(http.StatusBadRequest, imaging.ErrNotImage.Error())
	case errors.As(err, &upErr):
		return newAppError(http.StatusBadRequest, upErr.Error())
	case errors.As(err, &capErr):
		return newAppError(http.StatusConflict, msgFullyBooked)
	case errors.Is(err, database.ErrUnknownStartDate):
		return newAppError(http.StatusBadRequest, "This adventure does not depart on that date.")
	case errors.Is(err, booking.ErrIncompleteBooking):
		return newAppError(http.StatusBadRequest, booking.ErrIncompleteBooking.Error())
	case errors.Is(err, payments.ErrCircuitOpen):
		return newAppError(http.StatusServiceUnavailable, "Payments are temporarily unavailable. Please try again shortly.")
	case errors.Is(err, payments.ErrInvalidSignature):
		return newAppError(http.StatusBadRequest, "Webhook error: "+payments.ErrInvalidSignature.Error())
	case errors.As(err, &maxErr):
		return appErrorf(http.StatusRequestEntityTooLarge, "Request body too large. The limit is %d bytes.", maxErr.Limit)
	default:
		return &AppError{StatusCode: http.StatusInternalServerError, Message: err.Error()}
	}
}

// isAPIRequest reports whether r expects a JSON error rather than a page.
func isAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api") || r.URL.Path == webhookPath
}

// handleError writes the response for err. API paths get JSON shaped by
// environment; other paths render the error page.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := toAppError(err)
	logger := logging.Ctx(r.Context())

	if appErr.StatusCode >= http.StatusInternalServerError {
		logger.Error().Err(err).Int("status", appErr.StatusCode).Str("path", r.URL.Path).Msg("Request failed")
	} else {
		logger.Debug().Err(err).Int("status", appErr.StatusCode).Str("path", r.URL.Path).Msg("Request rejected")
	}

	if !isAPIRequest(r) {
		h.renderErrorPage(w, r, appErr)
		return
	}

	if h.cfg.IsProduction() {
		h.writeProdError(w, appErr)
		return
	}
	h.writeDevError(w, err, appErr)
}

// errorResponse is the JSON error body.
type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

func (h *Handler) writeDevError(w http.ResponseWriter, err error, appErr *AppError) {
	resp := errorResponse{
		Status:  appErr.Status(),
		Message: appErr.Message,
		Error:   err.Error(),
	}
	if h.cfg.Server.ShowStackTrace {
		resp.Stack = string(debug.Stack())
	}
	respondJSON(w, appErr.StatusCode, resp)
}

func (h *Handler) writeProdError(w http.ResponseWriter, appErr *AppError) {
	if !appErr.Operational {
		respondJSON(w, http.StatusInternalServerError, errorResponse{Status: "error", Message: msgSomethingWrong})
		return
	}
	respondJSON(w, appErr.StatusCode, errorResponse{Status: appErr.Status(), Message: appErr.Message})
}

// renderErrorPage shows the error template. Non-operational errors hide
// their detail in production.
func (h *Handler) renderErrorPage(w http.ResponseWriter, r *http.Request, appErr *AppError) {
	msg := appErr.Message
	if h.cfg.IsProduction() && !appErr.Operational {
		msg = "Please try again later."
	}
	h.render(w, r, appErr.StatusCode, "error", pageData{
		Title: "Something went wrong!",
		Msg:   msg,
	})
}
