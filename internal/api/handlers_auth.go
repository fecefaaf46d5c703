// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package api

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/arko8919/cotswold-cycling-adventures/internal/auth"
	"github.com/arko8919/cotswold-cycling-adventures/internal/database"
	"github.com/arko8919/cotswold-cycling-adventures/internal/logging"
	"github.com/arko8919/cotswold-cycling-adventures/internal/models"
	"github.com/arko8919/cotswold-cycling-adventures/internal/validation"
)

const (
	msgBadCredentials  = "Incorrect email or password!"
	msgMissingLogin    = "Please provide email and password!"
	msgLoginThrottled  = "Too many failed login attempts. Please try again later."
	msgNoUserForEmail  = "There is no user with this email address"
	msgResetSent       = "Token sent to email!"
	msgResetMailFailed = "There was an error sending the email. Try again later!"
	msgResetInvalid    = "Token is invalid or has expired"
	msgWrongPassword   = "Your current password is wrong."
)

// passwordRules checks a new password and its confirmation.
type passwordRules struct {
	Password        string `json:"password" validate:"required,min=8" msg:"required=Please provide a password|min=A password must have more or equal then 8 characters"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password" msg:"required=Please confirm your password|eqfield=Passwords are not the same."`
}

type signupRequest struct {
	Name            string `json:"name" validate:"notblank" msg:"Please tell us your name."`
	Email           string `json:"email" validate:"required,email" msg:"required=Please provide your email|email=Please provide a valid email"`
	Password        string `json:"password" validate:"required,min=8" msg:"required=Please provide a password|min=A password must have more or equal then 8 characters"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password" msg:"required=Please confirm your password|eqfield=Passwords are not the same."`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type updatePasswordRequest struct {
	PasswordCurrent string `json:"passwordCurrent"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// clientIP returns the request's remote address without the port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// createSendToken issues a token for user, sets the session cookie and
// answers the auth envelope.
func (h *Handler) createSendToken(w http.ResponseWriter, r *http.Request, user *models.User, status int) {
	token, err := h.jwt.GenerateToken(user.ID, user.Role)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.auth.SetTokenCookie(w, r, token)
	respondJSON(w, status, authResponse{
		Status: statusSuccess,
		Token:  token,
		Data:   map[string]interface{}{"user": user},
	})
}

// Signup creates a user account with the default role and logs it in.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validation.ValidateStruct(&req); err != nil {
		h.handleError(w, r, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	ctx := r.Context()
	user, err := h.db.CreateUser(ctx, &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: hash,
		Role:     models.RoleUser,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.security.LogSignup(user.ID, user.Email, clientIP(r))

	if err := h.mailer.SendWelcome(ctx, user, h.baseURL(r)+"/me"); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("user_id", user.ID).Msg("Failed to send welcome email")
	}

	h.createSendToken(w, r, user, http.StatusCreated)
}

// Login checks credentials and issues a token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		h.handleError(w, r, newAppError(http.StatusBadRequest, msgMissingLogin))
		return
	}

	ip := clientIP(r)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if h.throttle.Blocked(email, ip) {
		h.security.LogLoginFailure(email, ip, "throttled")
		h.handleError(w, r, newAppError(http.StatusTooManyRequests, msgLoginThrottled))
		return
	}

	user, err := h.db.GetUserByEmail(r.Context(), email)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		h.handleError(w, r, err)
		return
	}
	if user == nil || !auth.CheckPassword(user.Password, req.Password) {
		h.throttle.Failure(email, ip)
		h.security.LogLoginFailure(email, ip, "bad credentials")
		h.handleError(w, r, newAppError(http.StatusUnauthorized, msgBadCredentials))
		return
	}

	h.throttle.Success(email, ip)
	h.security.LogLoginSuccess(user.ID, user.Email, ip)
	h.createSendToken(w, r, user, http.StatusOK)
}

// Logout replaces the session cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.auth.ClearTokenCookie(w)
	if user := auth.UserFromContext(r.Context()); user != nil {
		h.security.LogLogout(user.ID, clientIP(r))
	}
	respondJSON(w, http.StatusOK, messageResponse{Status: statusSuccess})
}

// ForgotPassword mails a single-use reset link.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	ctx := r.Context()
	user, err := h.db.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, database.ErrNotFound) {
		h.handleError(w, r, newAppError(http.StatusNotFound, msgNoUserForEmail))
		return
	}
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	plain, hashed, expires, err := auth.NewResetToken(h.now())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if err := h.db.SetResetToken(ctx, user.ID, hashed, expires); err != nil {
		h.handleError(w, r, err)
		return
	}

	resetURL := h.baseURL(r) + "/api/v1/users/resetPassword/" + plain
	if err := h.mailer.SendPasswordReset(ctx, user, resetURL); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("user_id", user.ID).Msg("Failed to send password reset email")
		if clearErr := h.db.ClearResetToken(ctx, user.ID); clearErr != nil {
			logging.Ctx(ctx).Error().Err(clearErr).Str("user_id", user.ID).Msg("Failed to clear reset token")
		}
		h.security.LogPasswordResetRequested(user.ID, user.Email, clientIP(r), false)
		h.handleError(w, r, newAppError(http.StatusInternalServerError, msgResetMailFailed))
		return
	}

	h.security.LogPasswordResetRequested(user.ID, user.Email, clientIP(r), true)
	respondJSON(w, http.StatusOK, messageResponse{Status: statusSuccess, Message: msgResetSent})
}

// ResetPassword sets a new password from a valid reset token and logs the
// user in.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.db.GetUserByResetToken(ctx, auth.HashResetToken(chi.URLParam(r, "token")), h.now())
	if errors.Is(err, database.ErrNotFound) {
		h.handleError(w, r, newAppError(http.StatusBadRequest, msgResetInvalid))
		return
	}
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	var req passwordRules
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	updated, err := h.changePassword(r, user.ID, &req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.security.LogPasswordChanged(updated.ID, "reset_token", clientIP(r))
	h.createSendToken(w, r, updated, http.StatusOK)
}

// UpdateMyPassword changes the logged-in user's password after checking
// the current one.
func (h *Handler) UpdateMyPassword(w http.ResponseWriter, r *http.Request) {
	var req updatePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	current := auth.UserFromContext(r.Context())
	if current == nil {
		h.handleError(w, r, auth.ErrNotLoggedIn)
		return
	}
	user, err := h.db.GetUser(r.Context(), current.ID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if !auth.CheckPassword(user.Password, req.PasswordCurrent) {
		h.handleError(w, r, newAppError(http.StatusUnauthorized, msgWrongPassword))
		return
	}

	updated, err := h.changePassword(r, user.ID, &passwordRules{
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.security.LogPasswordChanged(updated.ID, "update", clientIP(r))
	h.createSendToken(w, r, updated, http.StatusOK)
}

// changePassword validates and stores a new password. The reset token is
// cleared with it.
func (h *Handler) changePassword(r *http.Request, userID string, req *passwordRules) (*models.User, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	return h.db.SetPassword(r.Context(), userID, hash)
}
