// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package api

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/arko8919/cotswold-cycling-adventures/internal/auth"
	"github.com/arko8919/cotswold-cycling-adventures/internal/database"
	"github.com/arko8919/cotswold-cycling-adventures/internal/database/query"
	"github.com/arko8919/cotswold-cycling-adventures/internal/logging"
	"github.com/arko8919/cotswold-cycling-adventures/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// pageNames are the templates rendered on top of base.html.
var pageNames = []string{"overview", "adventure", "login", "signup", "account", "error"}

const alertBooking = "Your booking was successful! Please check your email for a confirmation. If your booking doesn't show up here immediately, please come back later."

const (
	sectionSettings         = "settings"
	sectionManageAdventures = "manage-adventures"
)

type alertContextKey struct{}

// pageData is what every template receives.
type pageData struct {
	Title      string
	Msg        string
	Alert      string
	User       *models.User
	Adventures []models.Adventure
	Adventure  *models.Adventure
	Section    string
	CanManage  bool
}

var templateFuncs = template.FuncMap{
	"monthYear": func(t time.Time) string { return t.Format("January 2006") },
	"price":     func(v float64) string { return fmt.Sprintf("£%.0f", v) },
	"lower":     strings.ToLower,
	"stars": func(rating float64) []bool {
		stars := make([]bool, 5)
		for i := range stars {
			stars[i] = float64(i+1) <= rating+0.5
		}
		return stars
	},
	"firstParagraph": func(s string) string {
		if i := strings.Index(s, "\n"); i >= 0 {
			return s[:i]
		}
		return s
	},
}

// parsePages parses base.html with each page template.
func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New("base.html").Funcs(templateFuncs).
			ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return pages, nil
}

// render executes a page into a buffer so template errors never send a
// partial page.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	tmpl, ok := h.pages[name]
	if !ok {
		logging.Ctx(r.Context()).Error().Str("template", name).Msg("Unknown template")
		http.Error(w, msgSomethingWrong, http.StatusInternalServerError)
		return
	}

	if data.User == nil {
		data.User = auth.UserFromContext(r.Context())
	}
	if data.Alert == "" {
		data.Alert, _ = r.Context().Value(alertContextKey{}).(string)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("template", name).Msg("Failed to render template")
		http.Error(w, msgSomethingWrong, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Failed to write page")
	}
}

// Alerts shows the booking banner after a successful checkout.
func Alerts(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("alert") == "booking" {
			r = r.WithContext(context.WithValue(r.Context(), alertContextKey{}, alertBooking))
		}
		next.ServeHTTP(w, r)
	})
}

// confirmFromQuery runs the success-URL booking flow. It reports whether
// the response was already written.
func (h *Handler) confirmFromQuery(w http.ResponseWriter, r *http.Request) bool {
	redirect, err := h.bookings.ConfirmFromQuery(r.Context(), r.URL.Query())
	if err != nil {
		h.handleError(w, r, err)
		return true
	}
	if !redirect {
		return false
	}

	target := r.URL.Path
	if r.URL.Query().Get("alert") == "booking" {
		target += "?alert=booking"
	}
	http.Redirect(w, r, target, http.StatusFound)
	return true
}

// publicAdventures returns the overview list, cached until the next
// adventure or review write.
func (h *Handler) publicAdventures(ctx context.Context) ([]models.Adventure, error) {
	if cached, ok := h.overviewCache.Get(overviewKey); ok {
		return cached, nil
	}
	adventures, err := h.db.ListAdventures(ctx, query.Default(query.Defaults{
		PageSize:    h.cfg.API.MaxPageSize,
		MaxPageSize: h.cfg.API.MaxPageSize,
	}))
	if err != nil {
		return nil, err
	}
	h.overviewCache.Add(overviewKey, adventures)
	return adventures, nil
}

// Overview renders every public adventure.
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	if h.confirmFromQuery(w, r) {
		return
	}

	adventures, err := h.publicAdventures(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "overview", pageData{Title: "All adventures", Adventures: adventures})
}

// AdventurePage renders one adventure by slug.
func (h *Handler) AdventurePage(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	adventure, ok := h.slugCache.Get(slug)
	if !ok {
		var err error
		adventure, err = h.db.GetAdventureBySlug(r.Context(), slug)
		if errors.Is(err, database.ErrNotFound) {
			h.handleError(w, r, newAppError(http.StatusNotFound, msgAdventureByName))
			return
		}
		if err != nil {
			h.handleError(w, r, err)
			return
		}
		h.slugCache.Add(slug, adventure)
	}

	h.render(w, r, http.StatusOK, "adventure", pageData{
		Title:     adventure.Name + " adventure",
		Adventure: adventure,
	})
}

// LoginPage renders the login form.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "login", pageData{Title: "Log into your account"})
}

// SignupPage renders the signup form.
func (h *Handler) SignupPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "signup", pageData{Title: "Create your account"})
}

// AccountPage renders one section of the account dashboard.
func (h *Handler) AccountPage(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	section := chi.URLParam(r, "section")
	if section == "" {
		section = sectionSettings
	}

	data := pageData{
		Title:     "Your Account",
		User:      user,
		Section:   section,
		CanManage: user != nil && h.authz.Allowed(user.Role, "adventures", "write"),
	}
	if section == sectionManageAdventures {
		adventures, err := h.publicAdventures(r.Context())
		if err != nil {
			h.handleError(w, r, err)
			return
		}
		data.Adventures = adventures
	}
	h.render(w, r, http.StatusOK, "account", data)
}

// MyAdventures renders the adventures the user has booked.
func (h *Handler) MyAdventures(w http.ResponseWriter, r *http.Request) {
	if h.confirmFromQuery(w, r) {
		return
	}

	user := auth.UserFromContext(r.Context())
	if user == nil {
		h.handleError(w, r, auth.ErrNotLoggedIn)
		return
	}
	adventures, err := h.db.BookedAdventuresForUser(r.Context(), user.ID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "overview", pageData{Title: "My Adventures", Adventures: adventures})
}

// SubmitUserData updates name and email from the account form.
func (h *Handler) SubmitUserData(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		h.handleError(w, r, auth.ErrNotLoggedIn)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.handleError(w, r, newAppError(http.StatusBadRequest, "Invalid form data"))
		return
	}

	updated, err := h.db.UpdateMe(r.Context(), user.ID,
		strings.TrimSpace(r.PostForm.Get("name")), r.PostForm.Get("email"), "")
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "account", pageData{
		Title:     "Your Account",
		User:      updated,
		Section:   sectionSettings,
		CanManage: h.authz.Allowed(updated.Role, "adventures", "write"),
	})
}
