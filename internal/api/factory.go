// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package api

import (
	"context"
	"net/http"

	"github.com/arko8919/cotswold-cycling-adventures/internal/database/query"
)

// resource describes one entity for the generic handlers below. list
// receives the parsed query and the request so nested routes can add
// their own filter.
type resource[T any] struct {
	schema query.Schema
	list   func(ctx context.Context, f *query.Features, r *http.Request) ([]T, error)
	get    func(ctx context.Context, id string) (*T, error)
	remove func(ctx context.Context, id string) error

	// afterWrite runs after a successful delete.
	afterWrite func()
}

// getAll answers a filtered, sorted, projected and paginated list.
func getAll[T any](h *Handler, res resource[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := query.Parse(r.URL.Query(), res.schema, h.queryDefaults())
		if err != nil {
			h.handleError(w, r, err)
			return
		}

		items, err := res.list(r.Context(), f, r)
		if err != nil {
			h.handleError(w, r, err)
			return
		}

		out, err := query.ProjectAll(f, items)
		if err != nil {
			h.handleError(w, r, err)
			return
		}
		h.respondList(w, out)
	}
}

// getOne answers a single document by the {id} path value.
func getOne[T any](h *Handler, res resource[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			h.handleError(w, r, err)
			return
		}

		doc, err := res.get(r.Context(), id)
		if err != nil {
			h.handleError(w, r, err)
			return
		}
		respondOne(w, http.StatusOK, doc)
	}
}

// deleteOne removes the document named by {id} and answers 204.
func deleteOne[T any](h *Handler, res resource[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			h.handleError(w, r, err)
			return
		}

		if err := res.remove(r.Context(), id); err != nil {
			h.handleError(w, r, err)
			return
		}
		if res.afterWrite != nil {
			res.afterWrite()
		}
		respondNoContent(w)
	}
}

// updateOne decodes a patch of type P, applies it through update and
// answers the updated document.
func updateOne[T any, P any](h *Handler, update func(ctx context.Context, id string, patch *P) (*T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			h.handleError(w, r, err)
			return
		}

		var patch P
		if err := decodeJSON(r, &patch); err != nil {
			h.handleError(w, r, err)
			return
		}

		doc, err := update(r.Context(), id, &patch)
		if err != nil {
			h.handleError(w, r, err)
			return
		}
		respondOne(w, http.StatusOK, doc)
	}
}
