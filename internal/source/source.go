// Copyright (c) 2026 ToeiRei
// Tabula - a terminal data table for remote JSON APIs
// This source code is licensed under the MIT license found in the LICENSE file.

// package source implements the data sources a table can browse: remote
// JSON APIs queried page by page (server-side mode), full collections held
// in memory (client-side mode) and snapshots loaded from the local store.
package source

import (
	"context"
	"errors"

	"github.com/toeirei/tabula/internal/model"
)

// ErrNoRows is returned when the configured data path exists but does not
// contain an array of records.
var ErrNoRows = errors.New("response contains no record rows at the configured data path")

// Source serves pages of records for table queries. Implementations must
// be safe for sequential reuse; the engine never calls Fetch concurrently
// for the same table.
type Source interface {
	// Fetch returns the page of records selected by q. The returned page
	// carries the collection total so the UI can compute the page count.
	Fetch(ctx context.Context, q model.Query) (model.Page, error)
}
