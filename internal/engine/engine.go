// Copyright (c) 2026 ToeiRei
// Tabula - a terminal data table for remote JSON APIs
// This source code is licensed under the MIT license found in the LICENSE file.

// package engine holds the table state machine: the current query (page,
// sort, search), the last successfully loaded page and the error fallback
// behavior. It is UI-agnostic; the TUI and the fetch command both drive it.
//
// A Table is not safe for concurrent use. The TUI serializes access through
// its message loop, the CLI uses it from one goroutine.
package engine

import (
	"context"

	"github.com/toeirei/tabula/internal/model"
	"github.com/toeirei/tabula/internal/pipeline"
	"github.com/toeirei/tabula/internal/source"
)

// DefaultPageSize matches the demo API's documented page size.
const DefaultPageSize = 10

// Table drives one data table over a source.
type Table struct {
	src  source.Source
	pipe *pipeline.Pipeline

	query  model.Query
	page   model.Page
	loaded bool
	err    error
}

// New creates a table over src. pipe may be nil when no preprocessing is
// configured. pageSize <= 0 falls back to DefaultPageSize.
func New(src source.Source, pipe *pipeline.Pipeline, pageSize int) *Table {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Table{
		src:   src,
		pipe:  pipe,
		query: model.Query{Page: 1, PageSize: pageSize},
	}
}

// Query returns the current query state.
func (t *Table) Query() model.Query { return t.query }

// Page returns the last successfully loaded page. Until the first
// successful load it is the zero page.
func (t *Table) Page() model.Page { return t.page }

// Err returns the error from the most recent load attempt, or nil if it
// succeeded. The last good page stays available while Err is non-nil, which
// is what lets the UI keep showing data next to an error banner.
func (t *Table) Err() error { return t.err }

// Loaded reports whether at least one load has succeeded.
func (t *Table) Loaded() bool { return t.loaded }

// PageCount returns the page count of the last good page.
func (t *Table) PageCount() int { return t.page.PageCount() }

// Load fetches the page selected by the current query. On failure the
// previous page and query survive and the error is retained; on success
// any previous error is cleared. If the collection shrank underneath the
// current page (a narrower search, deleted records), the page is clamped
// to the new last page and refetched once.
func (t *Table) Load(ctx context.Context) error {
	page, err := t.src.Fetch(ctx, t.query)
	if err != nil {
		t.err = err
		return err
	}

	if n := page.PageCount(); t.query.Page > n {
		t.query.Page = n
		page, err = t.src.Fetch(ctx, t.query)
		if err != nil {
			t.err = err
			return err
		}
	}

	if t.pipe != nil {
		page.Records = t.pipe.Apply(page.Records)
	}
	t.page = page
	t.loaded = true
	t.err = nil
	return nil
}

// Reload refetches the current query.
func (t *Table) Reload(ctx context.Context) error { return t.Load(ctx) }

// NextPage advances one page and loads it. On the last page it is a no-op.
func (t *Table) NextPage(ctx context.Context) error {
	if t.loaded && t.query.Page >= t.PageCount() {
		return nil
	}
	return t.gotoPage(ctx, t.query.Page+1)
}

// PrevPage goes back one page and loads it. On the first page it is a no-op.
func (t *Table) PrevPage(ctx context.Context) error {
	if t.query.Page <= 1 {
		return nil
	}
	return t.gotoPage(ctx, t.query.Page-1)
}

// GotoPage jumps to page n, clamped to the valid range, and loads it.
func (t *Table) GotoPage(ctx context.Context, n int) error {
	if n < 1 {
		n = 1
	}
	if t.loaded && n > t.PageCount() {
		n = t.PageCount()
	}
	return t.gotoPage(ctx, n)
}

func (t *Table) gotoPage(ctx context.Context, n int) error {
	prev := t.query.Page
	t.query.Page = n
	if err := t.Load(ctx); err != nil {
		t.query.Page = prev
		return err
	}
	return nil
}

// SortBy cycles the sort state for key and reloads from page 1. Repeated
// calls on the same column cycle none -> asc -> desc -> none; switching to
// a different column starts at ascending.
func (t *Table) SortBy(ctx context.Context, key string) error {
	prev := t.query
	if t.query.SortKey == key {
		t.query.Sort = t.query.Sort.Next()
		if t.query.Sort == model.SortNone {
			t.query.SortKey = ""
		}
	} else {
		t.query.SortKey = key
		t.query.Sort = model.SortAsc
	}
	t.query.Page = 1

	if err := t.Load(ctx); err != nil {
		t.query = prev
		return err
	}
	return nil
}

// SeedQuery sets search and sort ahead of the first load, so a one-shot
// caller issues exactly one request for the fully qualified query.
// Interactive state changes go through SetSearch and SortBy instead.
func (t *Table) SeedQuery(search, sortKey string, dir model.SortDirection) {
	t.query.Search = search
	t.query.SortKey = sortKey
	t.query.Sort = dir
	if sortKey == "" {
		t.query.Sort = model.SortNone
	}
	t.query.Page = 1
}

// SetSearch applies a search term and reloads from page 1. An empty term
// clears the search and restores the unfiltered collection.
func (t *Table) SetSearch(ctx context.Context, term string) error {
	prev := t.query
	t.query.Search = term
	t.query.Page = 1

	if err := t.Load(ctx); err != nil {
		t.query = prev
		return err
	}
	return nil
}
