// Copyright (c) 2026 ToeiRei
// Tabula - a terminal data table for remote JSON APIs
// This source code is licensed under the MIT license found in the LICENSE file.

package source

import (
	"context"
	"fmt"
	"testing"

	"github.com/toeirei/tabula/internal/model"
)

// demoUsers builds n records shaped like the DummyJSON users fixture.
func demoUsers(n int) []model.Record {
	names := []string{"Emily", "Michael", "Sophia", "James", "Emma", "Olivia", "Alexander", "Ava", "Ethan", "Isabella"}
	records := make([]model.Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, model.Record{
			"id":        float64(i + 1),
			"firstName": names[i%len(names)],
			"lastName":  fmt.Sprintf("User%03d", i+1),
			"age":       float64(18 + (i*7)%50),
			"image":     fmt.Sprintf("https://dummyjson.com/icon/u%d/128", i+1),
		})
	}
	return records
}

func TestLocalSourcePaging(t *testing.T) {
	s := NewLocalSource(demoUsers(208))

	page, err := s.Fetch(context.Background(), model.Query{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if page.Total != 208 {
		t.Errorf("total = %d, want 208", page.Total)
	}
	if got := page.PageCount(); got != 21 {
		t.Errorf("page count = %d, want 21", got)
	}
	if len(page.Records) != 10 {
		t.Errorf("page 1 size = %d, want 10", len(page.Records))
	}

	// The 21st page holds the 8 remaining records.
	last, err := s.Fetch(context.Background(), model.Query{Page: 21, PageSize: 10})
	if err != nil {
		t.Fatalf("Fetch last page: %v", err)
	}
	if len(last.Records) != 8 {
		t.Errorf("page 21 size = %d, want 8", len(last.Records))
	}
	if got := last.Records[0].FieldString("id"); got != "201" {
		t.Errorf("first id on page 21 = %s, want 201", got)
	}
}

func TestLocalSourcePageBeyondEnd(t *testing.T) {
	s := NewLocalSource(demoUsers(5))

	page, err := s.Fetch(context.Background(), model.Query{Page: 4, PageSize: 10})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(page.Records) != 0 {
		t.Errorf("expected an empty page beyond the end, got %d records", len(page.Records))
	}
	if page.Total != 5 {
		t.Errorf("total = %d, want 5", page.Total)
	}
}

func TestLocalSourceSearch(t *testing.T) {
	s := NewLocalSource(demoUsers(208))

	page, err := s.Fetch(context.Background(), model.Query{Page: 1, PageSize: 50, Search: "emily"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if page.Total != 21 { // Emily repeats every 10 records in the fixture
		t.Errorf("search total = %d, want 21", page.Total)
	}
	for _, r := range page.Records {
		if r.FieldString("firstName") != "Emily" {
			t.Errorf("unexpected record in search results: %v", r)
		}
	}
}

func TestLocalSourceSortNumeric(t *testing.T) {
	records := []model.Record{
		{"id": float64(1), "age": float64(30)},
		{"id": float64(2), "age": float64(9)},
		{"id": float64(3), "age": float64(120)},
	}
	s := NewLocalSource(records)

	asc, err := s.Fetch(context.Background(), model.Query{Page: 1, PageSize: 10, SortKey: "age", Sort: model.SortAsc})
	if err != nil {
		t.Fatalf("Fetch asc: %v", err)
	}
	// Numeric order, not lexicographic ("120" < "9" as strings).
	wantAsc := []string{"9", "30", "120"}
	for i, w := range wantAsc {
		if got := asc.Records[i].FieldString("age"); got != w {
			t.Errorf("asc[%d] = %s, want %s", i, got, w)
		}
	}

	desc, err := s.Fetch(context.Background(), model.Query{Page: 1, PageSize: 10, SortKey: "age", Sort: model.SortDesc})
	if err != nil {
		t.Fatalf("Fetch desc: %v", err)
	}
	if got := desc.Records[0].FieldString("age"); got != "120" {
		t.Errorf("desc[0] = %s, want 120", got)
	}
}

func TestLocalSourceSortText(t *testing.T) {
	records := []model.Record{
		{"firstName": "terry"},
		{"firstName": "Alice"},
		{"firstName": "emma"},
	}
	s := NewLocalSource(records)

	page, err := s.Fetch(context.Background(), model.Query{Page: 1, PageSize: 10, SortKey: "firstName", Sort: model.SortAsc})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	want := []string{"Alice", "emma", "terry"} // case-insensitive
	for i, w := range want {
		if got := page.Records[i].FieldString("firstName"); got != w {
			t.Errorf("sorted[%d] = %s, want %s", i, got, w)
		}
	}
}

func TestLocalSourceSortMissingFieldsLast(t *testing.T) {
	records := []model.Record{
		{"id": float64(1)},
		{"id": float64(2), "age": float64(40)},
		{"id": float64(3), "age": float64(20)},
	}
	s := NewLocalSource(records)

	for _, dir := range []model.SortDirection{model.SortAsc, model.SortDesc} {
		page, err := s.Fetch(context.Background(), model.Query{Page: 1, PageSize: 10, SortKey: "age", Sort: dir})
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		lastID := page.Records[len(page.Records)-1].FieldString("id")
		if lastID != "1" {
			t.Errorf("dir %v: record without the field should sort last, got id %s", dir, lastID)
		}
	}
}

func TestLocalSourceDoesNotMutateInput(t *testing.T) {
	records := demoUsers(3)
	s := NewLocalSource(records)

	if _, err := s.Fetch(context.Background(), model.Query{Page: 1, PageSize: 10, SortKey: "id", Sort: model.SortDesc}); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got := records[0].FieldString("id"); got != "1" {
		t.Errorf("input slice was reordered, first id = %s", got)
	}
}
