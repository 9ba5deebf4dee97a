// Copyright (c) 2026 ToeiRei
// Tabula - a terminal data table for remote JSON APIs
// This source code is licensed under the MIT license found in the LICENSE file.

package source

import (
	"context"
	"sort"
	"strings"

	"github.com/toeirei/tabula/internal/model"
)

// LocalSource pages, sorts and searches an in-memory collection. It backs
// client-side mode (collection fetched once up front) and snapshot
// browsing, and never touches the network.
type LocalSource struct {
	records []model.Record
}

// NewLocalSource creates a source over the given records. The slice is not
// copied; callers hand over ownership.
func NewLocalSource(records []model.Record) *LocalSource {
	return &LocalSource{records: records}
}

// ClientSideSource is the client-side processing mode: the collection is
// drained once up front, then paging, sorting and searching run locally
// without more round trips. The drain is deferred until the first query so
// constructing a table stays cheap and failures surface through the normal
// load path.
type ClientSideSource struct {
	rest  *RESTSource
	local *LocalSource
}

// NewClientSideSource wraps a REST source in deferred client-side mode.
func NewClientSideSource(rest *RESTSource) *ClientSideSource {
	return &ClientSideSource{rest: rest}
}

// Fetch implements Source. The first call drains the remote collection; a
// failed drain is retried on the next call.
func (s *ClientSideSource) Fetch(ctx context.Context, q model.Query) (model.Page, error) {
	if s.local == nil {
		records, err := s.rest.FetchAll(ctx)
		if err != nil {
			return model.Page{}, err
		}
		s.local = NewLocalSource(records)
	}
	return s.local.Fetch(ctx, q)
}

// Fetch implements Source.
func (s *LocalSource) Fetch(_ context.Context, q model.Query) (model.Page, error) {
	working := s.records
	if q.Search != "" {
		working = searchRecords(working, q.Search)
	}
	if q.Sort != model.SortNone && q.SortKey != "" {
		working = sortRecords(working, q.SortKey, q.Sort)
	}

	total := len(working)
	start := q.Offset()
	if start > total {
		start = total
	}
	end := total
	if q.PageSize > 0 && start+q.PageSize < end {
		end = start + q.PageSize
	}

	return model.Page{
		Records:  working[start:end],
		Total:    total,
		Page:     q.Page,
		PageSize: q.PageSize,
	}, nil
}

// searchRecords keeps records where any top-level field contains the term,
// case-insensitively.
func searchRecords(records []model.Record, term string) []model.Record {
	needle := strings.ToLower(term)
	var out []model.Record
	for _, r := range records {
		for key := range r {
			if strings.Contains(strings.ToLower(r.FieldString(key)), needle) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// sortRecords returns a sorted copy. Values that parse as numbers compare
// numerically, everything else compares as case-folded text. Missing fields
// sort last regardless of direction.
func sortRecords(records []model.Record, key string, dir model.SortDirection) []model.Record {
	out := make([]model.Record, len(records))
	copy(out, records)

	sort.SliceStable(out, func(i, j int) bool {
		av, aok := out[i].Field(key)
		bv, bok := out[j].Field(key)
		aMissing := !aok || av == nil
		bMissing := !bok || bv == nil
		if aMissing || bMissing {
			// missing sorts after present, in both directions
			return !aMissing && bMissing
		}

		less, eq := compareField(out[i], out[j], key)
		if eq {
			return false
		}
		if dir == model.SortDesc {
			return !less
		}
		return less
	})
	return out
}

// compareField orders two records by the given field, both assumed present.
// The second return value reports equality so the sort stays stable for ties.
func compareField(a, b model.Record, key string) (less, eq bool) {
	an, aNum := a.FieldNumber(key)
	bn, bNum := b.FieldNumber(key)
	if aNum && bNum {
		return an < bn, an == bn
	}

	as := strings.ToLower(a.FieldString(key))
	bs := strings.ToLower(b.FieldString(key))
	return as < bs, as == bs
}
