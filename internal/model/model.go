// Copyright (c) 2026 ToeiRei
// Tabula - a terminal data table for remote JSON APIs
// This source code is licensed under the MIT license found in the LICENSE file.

// package model defines the core data types shared across Tabula: records,
// columns, queries and result pages. These types are deliberately free of
// transport and UI concerns so that data sources, the preprocessing pipeline
// and the TUI can all agree on one vocabulary.
package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Record is a single row as decoded from a JSON payload. Values keep the
// types encoding/json gives them (string, float64, bool, nested maps/slices).
type Record map[string]any

// Lookup resolves a dot-separated path (e.g. "address.city") inside a
// decoded JSON value. It returns the value and whether the path existed.
func Lookup(v any, path string) (any, bool) {
	if path == "" {
		return v, true
	}
	cur := v
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Field resolves a dot-separated path inside the record.
func (r Record) Field(path string) (any, bool) {
	return Lookup(map[string]any(r), path)
}

// FieldString renders the field at path as display text. Missing fields
// render as the empty string; floats that are whole numbers render without
// a decimal point, matching how JSON numbers for IDs and ages are used.
func (r Record) FieldString(path string) string {
	v, ok := r.Field(path)
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// FieldNumber returns the field at path as a float64, with ok reporting
// whether it was present and numeric (or a numeric string).
func (r Record) FieldNumber(path string) (float64, bool) {
	v, ok := r.Field(path)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// ColumnFormat selects how a column's cell values are rendered.
type ColumnFormat string

const (
	FormatText   ColumnFormat = "text"
	FormatNumber ColumnFormat = "number"
	FormatBadge  ColumnFormat = "badge" // boolean/status values rendered as a colored badge
	FormatURL    ColumnFormat = "url"   // avatar/image fields; terminals show the URL itself
	FormatDate   ColumnFormat = "date"  // truncated to YYYY-MM-DD HH:MM:SS
)

// Column describes one table column.
type Column struct {
	Key      string       `mapstructure:"key" yaml:"key"`
	Title    string       `mapstructure:"title" yaml:"title"`
	Width    int          `mapstructure:"width" yaml:"width"`
	Format   ColumnFormat `mapstructure:"format" yaml:"format,omitempty"`
	Sortable bool         `mapstructure:"sortable" yaml:"sortable"`
	// Template builds a computed column from other fields, e.g.
	// "{firstName} {lastName}". When set, Key names the computed field the
	// pipeline stores the result under.
	Template string `mapstructure:"template" yaml:"template,omitempty"`
}

// SortDirection is the per-column sort state.
type SortDirection int

const (
	SortNone SortDirection = iota
	SortAsc
	SortDesc
)

// Next cycles none -> asc -> desc -> none.
func (d SortDirection) Next() SortDirection {
	switch d {
	case SortNone:
		return SortAsc
	case SortAsc:
		return SortDesc
	default:
		return SortNone
	}
}

// Param returns the wire value used in API sort parameters.
func (d SortDirection) Param() string {
	switch d {
	case SortAsc:
		return "asc"
	case SortDesc:
		return "desc"
	default:
		return ""
	}
}

// String implements fmt.Stringer for display in the TUI footer.
func (d SortDirection) String() string {
	switch d {
	case SortAsc:
		return "▲"
	case SortDesc:
		return "▼"
	default:
		return ""
	}
}

// Query is the state of one table request: which page, how it is sorted
// and the active search term. Pages are 1-based.
type Query struct {
	Page     int
	PageSize int
	SortKey  string
	Sort     SortDirection
	Search   string
}

// Offset returns the number of records to skip for the current page.
func (q Query) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.PageSize
}

// Page is one page of fetched records together with the collection total
// reported by the source.
type Page struct {
	Records  []Record
	Total    int
	Page     int
	PageSize int
}

// PageCount returns the number of pages needed for Total records at
// PageSize records per page. An empty collection still has one page so the
// UI always has a valid current page.
func (p Page) PageCount() int {
	if p.PageSize <= 0 || p.Total <= 0 {
		return 1
	}
	n := (p.Total + p.PageSize - 1) / p.PageSize
	if n < 1 {
		return 1
	}
	return n
}
