// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/arko8919/cotswold-cycling-adventures/internal/auth"
	"github.com/arko8919/cotswold-cycling-adventures/internal/database"
	"github.com/arko8919/cotswold-cycling-adventures/internal/database/query"
	"github.com/arko8919/cotswold-cycling-adventures/internal/imaging"
	"github.com/arko8919/cotswold-cycling-adventures/internal/logging"
	"github.com/arko8919/cotswold-cycling-adventures/internal/models"
	"github.com/arko8919/cotswold-cycling-adventures/internal/validation"
)

const (
	msgNotForPasswords = "This route is not for password updates. Please use /updateMyPassword"
	msgUseSignup       = "This route is not yet defined. Please use /signup instead"
)

// meInput holds the self-service fields. Password fields are read only to
// reject them.
type meInput struct {
	Name            string `json:"name" validate:"omitempty,max=100" msg:"A name must have less or equal then 100 characters"`
	Email           string `json:"email" validate:"omitempty,email" msg:"Please provide a valid email"`
	Password        string `json:"password" validate:"-"`
	PasswordConfirm string `json:"passwordConfirm" validate:"-"`
}

// userInput is the admin update body.
type userInput struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Photo *string `json:"photo"`
	Role  *string `json:"role"`
}

type userRules struct {
	Name  string `json:"name" validate:"notblank" msg:"Please tell us your name."`
	Email string `json:"email" validate:"required,email" msg:"Please provide a valid email"`
	Role  string `json:"role" validate:"oneof=user guide lead-guide admin" msg:"Role is either: user, guide, lead-guide, admin"`
}

func (h *Handler) userResource() resource[models.User] {
	return resource[models.User]{
		schema: database.UserSchema,
		list: func(ctx context.Context, f *query.Features, _ *http.Request) ([]models.User, error) {
			return h.db.ListUsers(ctx, f)
		},
		get:    h.db.GetUser,
		remove: h.db.DeleteUser,
	}
}

// GetAllUsers lists active users.
func (h *Handler) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	getAll(h, h.userResource())(w, r)
}

// GetUser returns one active user.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	getOne(h, h.userResource())(w, r)
}

// DeleteUser removes a user. Their reviews are kept.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	deleteOne(h, h.userResource())(w, r)
}

// CreateUser points admins to signup.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	h.handleError(w, r, newAppError(http.StatusInternalServerError, msgUseSignup))
}

// UpdateUser lets an admin change a user's profile and role. Passwords are
// not touched.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	updateOne(h, func(ctx context.Context, id string, in *userInput) (*models.User, error) {
		return h.db.UpdateUser(ctx, id, func(u *models.User) error {
			if in.Name != nil {
				u.Name = strings.TrimSpace(*in.Name)
			}
			if in.Email != nil {
				u.Email = strings.ToLower(strings.TrimSpace(*in.Email))
			}
			if in.Photo != nil {
				u.Photo = *in.Photo
			}
			if in.Role != nil {
				u.Role = *in.Role
			}
			if err := validation.ValidateStruct(&userRules{Name: u.Name, Email: u.Email, Role: u.Role}); err != nil {
				return err
			}
			return nil
		})
	})(w, r)
}

// GetMe returns the logged-in user.
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		h.handleError(w, r, auth.ErrNotLoggedIn)
		return
	}
	fresh, err := h.db.GetUser(r.Context(), user.ID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondOne(w, http.StatusOK, fresh)
}

// UpdateMe changes the logged-in user's name, email and photo.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		h.handleError(w, r, auth.ErrNotLoggedIn)
		return
	}

	in, photo, err := h.readMeInput(r, user.ID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	updated, err := h.db.UpdateMe(r.Context(), user.ID, strings.TrimSpace(in.Name), in.Email, photo)
	if err != nil {
		if photo != "" {
			h.images.DeleteFiles(r.Context(), imaging.FolderUsers, []string{photo})
		}
		h.handleError(w, r, err)
		return
	}
	h.replacedPhoto(r, user, updated)
	respondData(w, "user", updated)
}

// readMeInput decodes a JSON or multipart updateMe body and stores an
// uploaded photo. The returned photo name is empty without an upload.
func (h *Handler) readMeInput(r *http.Request, userID string) (*meInput, string, error) {
	in := &meInput{}
	var photo string

	if isMultipart(r) {
		if err := r.ParseMultipartForm(h.cfg.Server.UploadLimit); err != nil {
			return nil, "", uploadParseError(err)
		}
		form := r.MultipartForm
		in.Name = firstValue(form.Value["name"])
		in.Email = firstValue(form.Value["email"])
		in.Password = firstValue(form.Value["password"])
		in.PasswordConfirm = firstValue(form.Value["passwordConfirm"])
		if in.Password != "" || in.PasswordConfirm != "" {
			return nil, "", newAppError(http.StatusBadRequest, msgNotForPasswords)
		}
		if err := validation.ValidateStruct(in); err != nil {
			return nil, "", err
		}

		if files := form.File["photo"]; len(files) > 0 {
			f, err := imaging.Open(files[0])
			if err != nil {
				return nil, "", err
			}
			defer f.Close()
			photo, err = h.images.ProcessUserPhoto(userID, f)
			if err != nil {
				return nil, "", err
			}
		}
		return in, photo, nil
	}

	if err := decodeJSON(r, in); err != nil {
		return nil, "", err
	}
	if in.Password != "" || in.PasswordConfirm != "" {
		return nil, "", newAppError(http.StatusBadRequest, msgNotForPasswords)
	}
	if err := validation.ValidateStruct(in); err != nil {
		return nil, "", err
	}
	return in, "", nil
}

// replacedPhoto removes the previous upload once a new photo is stored.
func (h *Handler) replacedPhoto(r *http.Request, before, after *models.User) {
	if before.Photo == after.Photo || before.Photo == "" || before.Photo == models.DefaultPhoto {
		return
	}
	h.images.DeleteFiles(r.Context(), imaging.FolderUsers, []string{before.Photo})
	logging.Ctx(r.Context()).Debug().Str("user_id", after.ID).Str("photo", after.Photo).Msg("User photo replaced")
}

// DeleteMe deactivates the logged-in user.
func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		h.handleError(w, r, auth.ErrNotLoggedIn)
		return
	}
	if err := h.db.DeactivateUser(r.Context(), user.ID); err != nil {
		h.handleError(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Info().Str("user_id", user.ID).Msg("User deactivated")
	respondNoContent(w)
}

func firstValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
