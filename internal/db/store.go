// Copyright (c) 2026 ToeiRei
// Tabula - a terminal data table for remote JSON APIs
// This source code is licensed under the MIT license found in the LICENSE file.

// package db provides the local snapshot store. It abstracts the
// underlying database (SQLite, PostgreSQL, MySQL) behind one interface so
// the rest of the application never cares which backend holds a snapshot.
package db // import "github.com/toeirei/tabula/internal/db"

import (
	"context"

	"github.com/toeirei/tabula/internal/model"
)

// Store defines the snapshot operations Tabula needs. All backends are
// implemented by the bun-backed bunStore; the interface exists so tests and
// future backends can swap in.
type Store interface {
	// SaveSnapshot persists records under a unique name and returns the
	// snapshot ID. Saving an existing name returns ErrDuplicate.
	SaveSnapshot(ctx context.Context, name, profile string, records []model.Record) (int64, error)
	// ListSnapshots returns all snapshots, newest first.
	ListSnapshots(ctx context.Context) ([]model.Snapshot, error)
	// GetSnapshot returns the snapshot with the given name, or
	// ErrSnapshotNotFound.
	GetSnapshot(ctx context.Context, name string) (*model.Snapshot, error)
	// LoadRecords returns the records of a snapshot in saved order.
	LoadRecords(ctx context.Context, snapshotID int64) ([]model.Record, error)
	// DeleteSnapshot removes a snapshot and its records.
	DeleteSnapshot(ctx context.Context, name string) error
	// Close releases the underlying database handles.
	Close() error
}
