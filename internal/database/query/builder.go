// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package query

import (
	"fmt"
	"strings"
)

// WhereBuilder constructs SQL WHERE clauses with parameterized arguments.
//
//	wb := query.NewWhereBuilder()
//	wb.AddClause("adventure_id = ?", id)
//	wb.AddIn("status", "held", "confirmed")
//	whereClause, args := wb.Build()
//	// adventure_id = ? AND status IN (?, ?)
type WhereBuilder struct {
	clauses []string
	args    []interface{}
}

// NewWhereBuilder creates an empty builder.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{
		clauses: []string{},
		args:    []interface{}{},
	}
}

// AddClause adds a raw condition with its arguments.
func (wb *WhereBuilder) AddClause(clause string, args ...interface{}) *WhereBuilder {
	wb.clauses = append(wb.clauses, clause)
	wb.args = append(wb.args, args...)
	return wb
}

// AddIn adds "column IN (?, ...)". An empty value list is skipped.
func (wb *WhereBuilder) AddIn(column string, values ...interface{}) *WhereBuilder {
	if len(values) == 0 {
		return wb
	}
	placeholders := make([]string, len(values))
	for i := range values {
		placeholders[i] = "?"
	}
	wb.clauses = append(wb.clauses, fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")))
	wb.args = append(wb.args, values...)
	return wb
}

// Build joins the clauses with AND. Returns ("1=1", []) when empty.
func (wb *WhereBuilder) Build() (string, []interface{}) {
	if len(wb.clauses) == 0 {
		return "1=1", []interface{}{}
	}
	return strings.Join(wb.clauses, " AND "), wb.args
}

// BuildWithPrefix returns the clause with a leading "WHERE ".
func (wb *WhereBuilder) BuildWithPrefix() (string, []interface{}) {
	whereClause, args := wb.Build()
	return "WHERE " + whereClause, args
}

// Count returns the number of clauses added.
func (wb *WhereBuilder) Count() int {
	return len(wb.clauses)
}

// IsEmpty reports whether no clauses were added.
func (wb *WhereBuilder) IsEmpty() bool {
	return len(wb.clauses) == 0
}
