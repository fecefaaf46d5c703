// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package api

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/arko8919/cotswold-cycling-adventures/internal/database"
	"github.com/arko8919/cotswold-cycling-adventures/internal/database/query"
	"github.com/arko8919/cotswold-cycling-adventures/internal/imaging"
	"github.com/arko8919/cotswold-cycling-adventures/internal/logging"
	"github.com/arko8919/cotswold-cycling-adventures/internal/models"
)

func (h *Handler) adventureResource() resource[models.Adventure] {
	return resource[models.Adventure]{
		schema: database.AdventureSchema,
		list: func(ctx context.Context, f *query.Features, _ *http.Request) ([]models.Adventure, error) {
			return h.db.ListAdventures(ctx, f)
		},
		get: h.db.GetAdventure,
	}
}

// GetAllAdventures lists public adventures.
func (h *Handler) GetAllAdventures(w http.ResponseWriter, r *http.Request) {
	getAll(h, h.adventureResource())(w, r)
}

// GetAdventure returns one adventure with its guides and reviews.
func (h *Handler) GetAdventure(w http.ResponseWriter, r *http.Request) {
	getOne(h, h.adventureResource())(w, r)
}

// AliasTopAdventures presets the query for the five best rated, cheapest
// adventures.
func AliasTopAdventures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		q.Set("limit", "5")
		q.Set("sort", "-ratingsAverage,price")
		q.Set("fields", "name,price,ratingsAverage,summary,difficulty")
		r.URL.RawQuery = q.Encode()
		next.ServeHTTP(w, r)
	})
}

// AdventureStats answers per-difficulty aggregates.
func (h *Handler) AdventureStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.AdventureStats(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondData(w, "stats", stats)
}

// MonthlyPlan answers departures per month of {year}.
func (h *Handler) MonthlyPlan(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "year")
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1 || year > 9999 {
		h.handleError(w, r, appErrorf(http.StatusBadRequest, "Invalid year: %s", raw))
		return
	}

	plan, err := h.db.MonthlyPlan(r.Context(), year)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondData(w, "plan", plan)
}

// parseLatLng reads a "lat,lng" path value.
func parseLatLng(raw string) (lat, lng float64, err error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		return 0, 0, newAppError(http.StatusBadRequest, "Please provide latitude and longitude in the format lat,lng")
	}

	lat, errLat := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, errLng := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errLat != nil || errLng != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return 0, 0, newAppError(http.StatusBadRequest, "Invalid latitude or longitude values.")
	}
	return lat, lng, nil
}

// AdventuresWithin lists adventures starting within {distance} {unit} of
// {latlng}.
func (h *Handler) AdventuresWithin(w http.ResponseWriter, r *http.Request) {
	distance, err := strconv.ParseFloat(chi.URLParam(r, "distance"), 64)
	if err != nil || distance <= 0 {
		h.handleError(w, r, newAppError(http.StatusBadRequest, "Please provide a positive distance."))
		return
	}
	lat, lng, err := parseLatLng(chi.URLParam(r, "latlng"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	adventures, err := h.db.AdventuresWithin(r.Context(), distance, lat, lng, chi.URLParam(r, "unit"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.respondList(w, listItems(adventures))
}

// AdventureDistances answers the distance from {latlng} to every public
// adventure.
func (h *Handler) AdventureDistances(w http.ResponseWriter, r *http.Request) {
	lat, lng, err := parseLatLng(chi.URLParam(r, "latlng"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	distances, err := h.db.Distances(r.Context(), lat, lng, chi.URLParam(r, "unit"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondOne(w, http.StatusOK, distances)
}

// storeAdventureUploads resizes the uploaded cover and gallery images.
// Returned names are empty when nothing was uploaded.
func (h *Handler) storeAdventureUploads(ctx context.Context, adventureID string, in *adventureInput) (string, []string, error) {
	if !in.hasUploads() {
		return "", nil, nil
	}

	var files []multipart.File
	defer func() {
		for _, f := range files {
			_ = f.Close()
		}
	}()
	open := func(fh *multipart.FileHeader) (io.Reader, error) {
		f, err := imaging.Open(fh)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
		return f, nil
	}

	var cover io.Reader
	if in.cover != nil {
		f, err := open(in.cover)
		if err != nil {
			return "", nil, err
		}
		cover = f
	}
	gallery := make([]io.Reader, 0, len(in.gallery))
	for _, fh := range in.gallery {
		f, err := open(fh)
		if err != nil {
			return "", nil, err
		}
		gallery = append(gallery, f)
	}

	return h.images.ProcessAdventureImages(ctx, adventureID, cover, gallery)
}

// CreateAdventure stores a new adventure with its uploaded images.
func (h *Handler) CreateAdventure(w http.ResponseWriter, r *http.Request) {
	in, err := h.readAdventureInput(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	ctx := r.Context()
	adv := &models.Adventure{ID: uuid.New().String()}
	coverName, galleryNames, err := h.storeAdventureUploads(ctx, adv.ID, in)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	written := uploadedNames(coverName, galleryNames)

	created, err := func() (*models.Adventure, error) {
		if err := in.apply(adv); err != nil {
			return nil, err
		}
		if coverName != "" {
			adv.ImageCover = coverName
		}
		adv.Images = append(adv.Images, galleryNames...)
		if err := validateAdventure(adv); err != nil {
			return nil, err
		}
		return h.db.CreateAdventure(ctx, adv)
	}()
	if err != nil {
		h.images.DeleteFiles(ctx, imaging.FolderAdventures, written)
		h.handleError(w, r, err)
		return
	}

	h.purgeAdventureCaches()
	logging.Ctx(ctx).Info().Str("adventure_id", created.ID).Str("name", created.Name).Msg("Adventure created")
	respondOne(w, http.StatusCreated, created)
}

// UpdateAdventure applies a partial update. New uploads replace the cover
// and extend the gallery; deleteImages drops gallery entries and files.
func (h *Handler) UpdateAdventure(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	in, err := h.readAdventureInput(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	ctx := r.Context()
	coverName, galleryNames, err := h.storeAdventureUploads(ctx, id, in)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	written := uploadedNames(coverName, galleryNames)
	drop := make(map[string]bool, len(in.DeleteImages))
	for _, name := range in.DeleteImages {
		drop[name] = true
	}

	var obsolete []string
	updated, err := h.db.UpdateAdventure(ctx, id, func(a *models.Adventure) error {
		obsolete = obsolete[:0]
		if err := in.apply(a); err != nil {
			return err
		}
		if coverName != "" {
			if a.ImageCover != "" && a.ImageCover != coverName {
				obsolete = append(obsolete, a.ImageCover)
			}
			a.ImageCover = coverName
		}

		kept := make([]string, 0, len(a.Images)+len(galleryNames))
		for _, name := range a.Images {
			if drop[name] {
				obsolete = append(obsolete, name)
				continue
			}
			kept = append(kept, name)
		}
		a.Images = append(kept, galleryNames...)
		return validateAdventure(a)
	})
	if err != nil {
		h.images.DeleteFiles(ctx, imaging.FolderAdventures, written)
		h.handleError(w, r, err)
		return
	}

	h.images.DeleteFiles(ctx, imaging.FolderAdventures, obsolete)
	h.purgeAdventureCaches()
	respondOne(w, http.StatusOK, updated)
}

// DeleteAdventure removes the adventure, its reviews and its image files.
func (h *Handler) DeleteAdventure(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	deleted, err := h.db.DeleteAdventure(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.images.DeleteFiles(r.Context(), imaging.FolderAdventures, uploadedNames(deleted.ImageCover, deleted.Images))
	h.purgeAdventureCaches()
	logging.Ctx(r.Context()).Info().Str("adventure_id", id).Msg("Adventure deleted")
	respondNoContent(w)
}

func uploadedNames(cover string, gallery []string) []string {
	names := make([]string, 0, len(gallery)+1)
	if cover != "" {
		names = append(names, cover)
	}
	return append(names, gallery...)
}
