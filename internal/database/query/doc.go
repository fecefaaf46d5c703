// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

// Package query turns URL query strings into parameterized SQL.
//
// Parse reads the filter, sort, fields, page and limit parameters against a
// per-entity Schema:
//
//	GET /api/v1/adventures?duration[gte]=5&difficulty=easy&sort=-price&fields=name,price&page=2&limit=3
//
//	f, err := query.Parse(r.URL.Query(), database.AdventureSchema, query.Defaults{PageSize: 100, MaxPageSize: 1000})
//	wb := query.NewWhereBuilder().AddClause("secret_adventure = false")
//	where, args, orderBy, limit, offset := f.Build(wb)
//	// where:   secret_adventure = false AND duration >= ? AND difficulty = ?
//	// orderBy: price DESC, id ASC
//	// limit 3, offset 3
//
// Field selection happens after the rows are loaded: Project trims the
// encoded entity down to the requested keys.
//
// Every user-supplied value is bound as a placeholder argument. Column
// names only ever come from the Schema.
package query
