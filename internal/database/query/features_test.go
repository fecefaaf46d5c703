// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package query

import (
	"errors"
	"net/url"
	"testing"
)

var testSchema = Schema{
	"id":             {Column: "id", Kind: KindString},
	"name":           {Column: "name", Kind: KindString},
	"price":          {Column: "price", Kind: KindNumber},
	"duration":       {Column: "duration", Kind: KindNumber},
	"difficulty":     {Column: "difficulty", Kind: KindString},
	"ratingsAverage": {Column: "ratings_average", Kind: KindNumber},
	"paid":           {Column: "paid", Kind: KindBool},
	"createdAt":      {Column: "created_at", Kind: KindTime},
	"summary":        {Column: "summary", Kind: KindString},
	"guides":         {},
}

var testDefaults = Defaults{PageSize: 100, MaxPageSize: 1000}

func mustParse(t *testing.T, raw string) *Features {
	t.Helper()
	values, err := url.ParseQuery(raw)
	if err != nil {
		t.Fatalf("ParseQuery(%q) error = %v", raw, err)
	}
	f, err := Parse(values, testSchema, testDefaults)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", raw, err)
	}
	return f
}

func TestParse_Defaults(t *testing.T) {
	t.Parallel()

	f := mustParse(t, "")
	where, args, orderBy, limit, offset := f.Build(NewWhereBuilder())

	if where != "1=1" || len(args) != 0 {
		t.Errorf("where = %q %v, want 1=1", where, args)
	}
	if orderBy != "created_at DESC, id ASC" {
		t.Errorf("orderBy = %q", orderBy)
	}
	if limit != 100 || offset != 0 {
		t.Errorf("limit/offset = %d/%d, want 100/0", limit, offset)
	}
}

func TestParse_Filter(t *testing.T) {
	t.Parallel()

	f := mustParse(t, "duration[gte]=5&difficulty=easy&price[lt]=1500&page=2&sort=price")
	where, args, _, _, _ := f.Build(NewWhereBuilder().AddClause("secret_adventure = false"))

	want := "secret_adventure = false AND difficulty = ? AND duration >= ? AND price < ?"
	if where != want {
		t.Errorf("where = %q, want %q", where, want)
	}
	if len(args) != 3 {
		t.Fatalf("len(args) = %d, want 3", len(args))
	}
	if args[0] != "easy" || args[1] != 5.0 || args[2] != 1500.0 {
		t.Errorf("args = %v", args)
	}
}

func TestParse_InAndNe(t *testing.T) {
	t.Parallel()

	f := mustParse(t, "difficulty[in]=easy,medium&paid[ne]=true")
	where, args, _, _, _ := f.Build(NewWhereBuilder())

	if where != "difficulty IN (?, ?) AND paid <> ?" {
		t.Errorf("where = %q", where)
	}
	if len(args) != 3 || args[2] != true {
		t.Errorf("args = %v", args)
	}
}

func TestParse_Sort(t *testing.T) {
	t.Parallel()

	f := mustParse(t, "sort=-ratingsAverage,price")
	_, _, orderBy, _, _ := f.Build(NewWhereBuilder())
	if orderBy != "ratings_average DESC, price ASC, id ASC" {
		t.Errorf("orderBy = %q", orderBy)
	}
}

func TestParse_Pagination(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw        string
		wantLimit  int
		wantOffset int
	}{
		{"page=3&limit=10", 10, 20},
		{"page=0&limit=-5", 100, 0},
		{"page=abc&limit=xyz", 100, 0},
		{"limit=5000", 1000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			_, _, _, limit, offset := mustParse(t, tt.raw).Build(NewWhereBuilder())
			if limit != tt.wantLimit || offset != tt.wantOffset {
				t.Errorf("limit/offset = %d/%d, want %d/%d", limit, offset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []string{
		"password=secret",
		"price[regex]=1",
		"price=cheap",
		"paid=maybe",
		"sort=password",
		"sort=guides",
		"fields=name,-price",
		"fields=password",
		"price[gte=1",
		"createdAt[gte]=yesterday",
	}
	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			t.Parallel()
			values, _ := url.ParseQuery(raw)
			_, err := Parse(values, testSchema, testDefaults)
			var qe *Error
			if !errors.As(err, &qe) {
				t.Errorf("Parse(%q) error = %v, want *query.Error", raw, err)
			}
		})
	}
}

type projected struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	Summary string  `json:"summary"`
}

func TestProject(t *testing.T) {
	t.Parallel()

	item := projected{ID: "a1", Name: "The Park Camper", Price: 1497, Summary: "Breathing Nature"}

	include := mustParse(t, "fields=name,price")
	got, err := include.Project(item)
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	m := got.(map[string]interface{})
	if len(m) != 3 || m["id"] != "a1" || m["name"] != "The Park Camper" {
		t.Errorf("include projection = %v", m)
	}

	exclude := mustParse(t, "fields=-summary")
	got, err = exclude.Project(item)
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	m = got.(map[string]interface{})
	if _, ok := m["summary"]; ok || len(m) != 3 {
		t.Errorf("exclude projection = %v", m)
	}

	none := mustParse(t, "")
	if got, _ := none.Project(item); got != item {
		t.Errorf("Project() without fields changed the value: %v", got)
	}
}

func TestProjectAll(t *testing.T) {
	t.Parallel()

	items := []projected{{ID: "a"}, {ID: "b"}}
	out, err := ProjectAll(mustParse(t, "fields=name"), items)
	if err != nil {
		t.Fatalf("ProjectAll() error = %v", err)
	}
	if len(out) != 2 {
		t.Errorf("len = %d, want 2", len(out))
	}
}

func TestWhereBuilder(t *testing.T) {
	t.Parallel()

	wb := NewWhereBuilder()
	if !wb.IsEmpty() {
		t.Error("new builder not empty")
	}
	wb.AddClause("adventure_id = ?", "a1").AddIn("status", "held", "confirmed").AddIn("role")

	where, args := wb.BuildWithPrefix()
	if where != "WHERE adventure_id = ? AND status IN (?, ?)" {
		t.Errorf("where = %q", where)
	}
	if len(args) != 3 || wb.Count() != 2 {
		t.Errorf("args = %v, count = %d", args, wb.Count())
	}
}
