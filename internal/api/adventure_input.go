// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package api

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/arko8919/cotswold-cycling-adventures/internal/models"
	"github.com/arko8919/cotswold-cycling-adventures/internal/validation"
)

// maxGalleryImages caps the images field of an upload.
const maxGalleryImages = 3

// adventureInput is a partial adventure. Nil fields are left unchanged.
type adventureInput struct {
	Name            *string            `json:"name"`
	Duration        *int               `json:"duration"`
	Distance        *float64           `json:"distance"`
	MaxGroupSize    *int               `json:"maxGroupSize"`
	Difficulty      *string            `json:"difficulty"`
	RatingsAverage  *float64           `json:"ratingsAverage"`
	RatingsQuantity *int               `json:"ratingsQuantity"`
	Price           *float64           `json:"price"`
	PriceDiscount   *float64           `json:"priceDiscount"`
	Summary         *string            `json:"summary"`
	Description     *string            `json:"description"`
	ImageCover      *string            `json:"imageCover"`
	Images          *[]string          `json:"images"`
	StartDates      *[]string          `json:"startDates"`
	StartLocation   *models.GeoPoint   `json:"startLocation"`
	Locations       *[]models.GeoPoint `json:"locations"`
	Guides          *[]string          `json:"guides"`
	SecretAdventure *bool              `json:"secretAdventure"`

	// DeleteImages names gallery images to drop on update.
	DeleteImages []string `json:"deleteImages"`

	cover   *multipart.FileHeader
	gallery []*multipart.FileHeader
}

// hasUploads reports whether the request carried image files.
func (in *adventureInput) hasUploads() bool {
	return in.cover != nil || len(in.gallery) > 0
}

// readAdventureInput decodes a JSON or multipart body.
func (h *Handler) readAdventureInput(r *http.Request) (*adventureInput, error) {
	in := &adventureInput{}
	if !isMultipart(r) {
		if err := decodeJSON(r, in); err != nil {
			return nil, err
		}
		return in, nil
	}

	if err := r.ParseMultipartForm(h.cfg.Server.UploadLimit); err != nil {
		return nil, uploadParseError(err)
	}
	if err := in.fromForm(r.MultipartForm); err != nil {
		return nil, err
	}
	return in, nil
}

// fromForm reads text fields and files. JSON-valued fields arrive as JSON
// strings; list fields may use a [] suffix.
func (in *adventureInput) fromForm(form *multipart.Form) error {
	get := func(key string) (string, bool) {
		v, ok := form.Value[key]
		if !ok || len(v) == 0 {
			return "", false
		}
		return v[0], true
	}
	list := func(key string) ([]string, bool) {
		v, ok := form.Value[key+"[]"]
		if !ok {
			v, ok = form.Value[key]
		}
		return v, ok
	}

	var fieldErr error
	setString := func(key string, dst **string) {
		if v, ok := get(key); ok {
			*dst = &v
		}
	}
	setInt := func(key string, dst **int) {
		v, ok := get(key)
		if !ok || fieldErr != nil {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			fieldErr = validation.NewError(key, fmt.Sprintf("Invalid value for %s: %s", key, v))
			return
		}
		*dst = &n
	}
	setFloat := func(key string, dst **float64) {
		v, ok := get(key)
		if !ok || fieldErr != nil {
			return
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			fieldErr = validation.NewError(key, fmt.Sprintf("Invalid value for %s: %s", key, v))
			return
		}
		*dst = &f
	}

	setString("name", &in.Name)
	setString("difficulty", &in.Difficulty)
	setString("summary", &in.Summary)
	setString("description", &in.Description)
	setInt("duration", &in.Duration)
	setInt("maxGroupSize", &in.MaxGroupSize)
	setInt("ratingsQuantity", &in.RatingsQuantity)
	setFloat("distance", &in.Distance)
	setFloat("ratingsAverage", &in.RatingsAverage)
	setFloat("price", &in.Price)
	setFloat("priceDiscount", &in.PriceDiscount)
	if fieldErr != nil {
		return fieldErr
	}

	if v, ok := get("secretAdventure"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return validation.NewError("secretAdventure", "Invalid value for secretAdventure: "+v)
		}
		in.SecretAdventure = &b
	}

	if v, ok := get("startLocation"); ok {
		var p models.GeoPoint
		if err := json.Unmarshal([]byte(v), &p); err != nil {
			return validation.NewError("startLocation", "startLocation must be a GeoJSON point")
		}
		in.StartLocation = &p
	}
	if values, ok := list("locations"); ok {
		points := make([]models.GeoPoint, 0, len(values))
		for _, v := range values {
			var p models.GeoPoint
			if err := json.Unmarshal([]byte(v), &p); err != nil {
				return validation.NewError("locations", "locations must be GeoJSON points")
			}
			points = append(points, p)
		}
		in.Locations = &points
	}
	if values, ok := list("startDates"); ok {
		in.StartDates = &values
	}
	if values, ok := list("guides"); ok {
		in.Guides = &values
	}
	if values, ok := list("deleteImages"); ok {
		in.DeleteImages = values
	}

	if files := form.File["imageCover"]; len(files) > 0 {
		in.cover = files[0]
	}
	in.gallery = form.File["images"]
	if len(in.gallery) > maxGalleryImages {
		return newAppError(http.StatusBadRequest, fmt.Sprintf("File upload error: at most %d images are allowed", maxGalleryImages))
	}
	return nil
}

// apply copies the set fields onto a.
func (in *adventureInput) apply(a *models.Adventure) error {
	if in.Name != nil {
		a.Name = strings.TrimSpace(*in.Name)
	}
	if in.Duration != nil {
		a.Duration = *in.Duration
	}
	if in.Distance != nil {
		a.Distance = *in.Distance
	}
	if in.MaxGroupSize != nil {
		a.MaxGroupSize = *in.MaxGroupSize
	}
	if in.Difficulty != nil {
		a.Difficulty = *in.Difficulty
	}
	if in.RatingsAverage != nil {
		a.RatingsAverage = models.RoundRating(*in.RatingsAverage)
	}
	if in.RatingsQuantity != nil {
		a.RatingsQuantity = *in.RatingsQuantity
	}
	if in.Price != nil {
		a.Price = *in.Price
	}
	if in.PriceDiscount != nil {
		d := *in.PriceDiscount
		a.PriceDiscount = &d
	}
	if in.Summary != nil {
		a.Summary = strings.TrimSpace(*in.Summary)
	}
	if in.Description != nil {
		a.Description = strings.TrimSpace(*in.Description)
	}
	if in.ImageCover != nil {
		a.ImageCover = *in.ImageCover
	}
	if in.Images != nil {
		a.Images = append([]string(nil), *in.Images...)
	}
	if in.StartDates != nil {
		dates, err := parseDates(*in.StartDates)
		if err != nil {
			return err
		}
		a.StartDates = dates
	}
	if in.StartLocation != nil {
		p := *in.StartLocation
		a.StartLocation = &p
	}
	if in.Locations != nil {
		a.Locations = append([]models.GeoPoint(nil), *in.Locations...)
	}
	if in.Guides != nil {
		a.Guides = make([]models.UserSummary, 0, len(*in.Guides))
		for _, id := range *in.Guides {
			a.Guides = append(a.Guides, models.UserSummary{ID: id})
		}
	}
	if in.SecretAdventure != nil {
		a.SecretAdventure = *in.SecretAdventure
	}
	return nil
}

// adventureRules are the constraints every stored adventure satisfies.
type adventureRules struct {
	Name           string  `json:"name" validate:"notblank,min=10,max=40" msg:"notblank=An adventure must have a name|min=An adventure name must have more or equal then 10 characters|max=An adventure name must have less or equal then 40 characters"`
	Duration       int     `json:"duration" validate:"gt=0" msg:"An adventure must have a duration"`
	MaxGroupSize   int     `json:"maxGroupSize" validate:"gt=0" msg:"An adventure must have a group size"`
	Difficulty     string  `json:"difficulty" validate:"required,oneof=easy medium difficult" msg:"required=An adventure must have a difficulty|oneof=Difficulty is either: easy, medium, difficult"`
	RatingsAverage float64 `json:"ratingsAverage" validate:"gte=1,lte=5" msg:"gte=Rating must be above 1.0|lte=Rating must be below 5.0"`
	Price          float64 `json:"price" validate:"gt=0" msg:"An adventure must have a price"`
	Summary        string  `json:"summary" validate:"notblank" msg:"An adventure must have a summary"`
	ImageCover     string  `json:"imageCover" validate:"notblank" msg:"An adventure must have a cover image"`
}

// validateAdventure checks a fully merged adventure.
func validateAdventure(a *models.Adventure) error {
	rules := adventureRules{
		Name:           a.Name,
		Duration:       a.Duration,
		MaxGroupSize:   a.MaxGroupSize,
		Difficulty:     a.Difficulty,
		RatingsAverage: a.RatingsAverage,
		Price:          a.Price,
		Summary:        a.Summary,
		ImageCover:     a.ImageCover,
	}
	if a.RatingsAverage == 0 {
		rules.RatingsAverage = models.DefaultRatingsAverage
	}
	if err := validation.ValidateStruct(&rules); err != nil {
		return err
	}
	if a.PriceDiscount != nil && *a.PriceDiscount >= a.Price {
		return validation.NewError("priceDiscount", "Discount price should be below regular price")
	}
	return nil
}

// dateLayouts are accepted for start dates, most specific first.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02,15:04",
	"2006-01-02",
}

// parseDate reads a departure date in any of dateLayouts as UTC.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, validation.NewError("startDates", "Invalid date: "+raw)
}

func parseDates(raw []string) ([]time.Time, error) {
	dates := make([]time.Time, 0, len(raw))
	for _, s := range raw {
		if strings.TrimSpace(s) == "" {
			continue
		}
		t, err := parseDate(s)
		if err != nil {
			return nil, err
		}
		dates = append(dates, t)
	}
	return dates, nil
}

// uploadParseError maps multipart parse failures.
func uploadParseError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return maxErr
	}
	return newAppError(http.StatusBadRequest, "File upload error: "+err.Error())
}
