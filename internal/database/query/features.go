// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package query

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Kind tells Parse how to convert a filter value.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
	KindTime
)

// Field maps an API field to its SQL column. A field with no Column can be
// projected but not filtered or sorted.
type Field struct {
	Column string
	Kind   Kind
}

// Schema lists the fields one entity exposes to query strings, keyed by
// their API name.
type Schema map[string]Field

// Defaults bounds pagination.
type Defaults struct {
	PageSize    int
	MaxPageSize int
}

// Error is a client mistake in the query string. It maps to HTTP 400.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

func errorf(format string, args ...interface{}) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// reservedParams are never treated as filters.
var reservedParams = map[string]bool{
	"page":   true,
	"sort":   true,
	"limit":  true,
	"fields": true,
}

var operatorSQL = map[string]string{
	"gte": ">=",
	"gt":  ">",
	"lte": "<=",
	"lt":  "<",
	"ne":  "<>",
	"in":  "IN",
}

var filterKeyPattern = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_]*)(?:\[([a-z]+)\])?$`)

type condition struct {
	column string
	op     string
	values []interface{}
}

type order struct {
	column string
	desc   bool
}

// Features is a parsed query string, ready to be applied to SQL.
type Features struct {
	conditions []condition
	orders     []order
	include    []string
	exclude    []string

	Page  int
	Limit int
}

// Parse reads filter, sort, fields, page and limit from values.
func Parse(values url.Values, schema Schema, defaults Defaults) (*Features, error) {
	f := &Features{}

	if err := f.parseFilter(values, schema); err != nil {
		return nil, err
	}
	if err := f.parseSort(values.Get("sort"), schema); err != nil {
		return nil, err
	}
	if err := f.parseFields(values.Get("fields"), schema); err != nil {
		return nil, err
	}
	f.paginate(values.Get("page"), values.Get("limit"), defaults)

	return f, nil
}

// Default returns features with no filter, the default sort and the first page.
func Default(defaults Defaults) *Features {
	f := &Features{}
	f.orders = []order{{column: "created_at", desc: true}}
	f.paginate("", "", defaults)
	return f
}

func (f *Features) parseFilter(values url.Values, schema Schema) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		if !reservedParams[key] {
			keys = append(keys, key)
		}
	}
	// Stable clause order keeps generated SQL predictable.
	sort.Strings(keys)

	for _, key := range keys {
		m := filterKeyPattern.FindStringSubmatch(key)
		if m == nil {
			return errorf("Invalid filter parameter: %s", key)
		}
		name, op := m[1], m[2]

		field, ok := schema[name]
		if !ok || field.Column == "" {
			return errorf("Invalid filter field: %s", name)
		}
		sqlOp := "="
		if op != "" {
			if sqlOp, ok = operatorSQL[op]; !ok {
				return errorf("Invalid filter operator: %s", op)
			}
		}

		for _, raw := range values[key] {
			cond, err := buildCondition(name, field, sqlOp, raw)
			if err != nil {
				return err
			}
			f.conditions = append(f.conditions, cond)
		}
	}
	return nil
}

func buildCondition(name string, field Field, sqlOp, raw string) (condition, error) {
	parts := []string{raw}
	if sqlOp == "IN" {
		parts = strings.Split(raw, ",")
	}

	converted := make([]interface{}, 0, len(parts))
	for _, p := range parts {
		v, err := convertValue(field.Kind, strings.TrimSpace(p))
		if err != nil {
			return condition{}, errorf("Invalid value for %s: %s", name, p)
		}
		converted = append(converted, v)
	}
	return condition{column: field.Column, op: sqlOp, values: converted}, nil
}

func convertValue(kind Kind, raw string) (interface{}, error) {
	switch kind {
	case KindNumber:
		return strconv.ParseFloat(raw, 64)
	case KindBool:
		return strconv.ParseBool(raw)
	case KindTime:
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t, nil
		}
		return time.Parse("2006-01-02", raw)
	default:
		return raw, nil
	}
}

func (f *Features) parseSort(raw string, schema Schema) error {
	if strings.TrimSpace(raw) == "" {
		f.orders = []order{{column: "created_at", desc: true}}
		return nil
	}

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		desc := strings.HasPrefix(part, "-")
		name := strings.TrimPrefix(part, "-")

		field, ok := schema[name]
		if !ok || field.Column == "" {
			return errorf("Invalid sort field: %s", name)
		}
		f.orders = append(f.orders, order{column: field.Column, desc: desc})
	}
	return nil
}

func (f *Features) parseFields(raw string, schema Schema) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name := strings.TrimPrefix(part, "-")
		if _, ok := schema[name]; !ok {
			return errorf("Invalid field: %s", name)
		}
		if strings.HasPrefix(part, "-") {
			f.exclude = append(f.exclude, name)
		} else {
			f.include = append(f.include, name)
		}
	}

	if len(f.include) > 0 && len(f.exclude) > 0 {
		return errorf("Cannot mix included and excluded fields")
	}
	return nil
}

func (f *Features) paginate(rawPage, rawLimit string, defaults Defaults) {
	f.Page = 1
	if page, err := strconv.Atoi(rawPage); err == nil && page >= 1 {
		f.Page = page
	}

	f.Limit = defaults.PageSize
	if limit, err := strconv.Atoi(rawLimit); err == nil && limit >= 1 {
		f.Limit = limit
	}
	if defaults.MaxPageSize > 0 && f.Limit > defaults.MaxPageSize {
		f.Limit = defaults.MaxPageSize
	}
}

// Offset returns the number of rows to skip.
func (f *Features) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Build appends the filters to wb and returns everything needed for a
// SELECT: the WHERE clause, its arguments, the ORDER BY list, LIMIT and OFFSET.
func (f *Features) Build(wb *WhereBuilder) (where string, args []interface{}, orderBy string, limit, offset int) {
	for _, c := range f.conditions {
		if c.op == "IN" {
			wb.AddIn(c.column, c.values...)
			continue
		}
		wb.AddClause(fmt.Sprintf("%s %s ?", c.column, c.op), c.values[0])
	}
	where, args = wb.Build()

	parts := make([]string, 0, len(f.orders)+1)
	for _, o := range f.orders {
		dir := "ASC"
		if o.desc {
			dir = "DESC"
		}
		parts = append(parts, o.column+" "+dir)
	}
	parts = append(parts, "id ASC")
	orderBy = strings.Join(parts, ", ")

	return where, args, orderBy, f.Limit, f.Offset()
}

// HasProjection reports whether a fields parameter was given.
func (f *Features) HasProjection() bool {
	return f != nil && (len(f.include) > 0 || len(f.exclude) > 0)
}

// Project returns v with field selection applied. Without a projection v
// is returned unchanged. In include mode "id" is always kept.
func (f *Features) Project(v interface{}) (interface{}, error) {
	if !f.HasProjection() {
		return v, nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode for projection: %w", err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode for projection: %w", err)
	}

	if len(f.include) > 0 {
		out := make(map[string]interface{}, len(f.include)+1)
		if id, ok := doc["id"]; ok {
			out["id"] = id
		}
		for _, name := range f.include {
			if val, ok := doc[name]; ok {
				out[name] = val
			}
		}
		return out, nil
	}

	for _, name := range f.exclude {
		delete(doc, name)
	}
	return doc, nil
}

// ProjectAll applies Project to every item.
func ProjectAll[T any](f *Features, items []T) ([]interface{}, error) {
	out := make([]interface{}, 0, len(items))
	for i := range items {
		p, err := f.Project(items[i])
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
