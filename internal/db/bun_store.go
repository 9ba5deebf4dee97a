// Copyright (c) 2026 ToeiRei
// Tabula - a terminal data table for remote JSON APIs
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/toeirei/tabula/internal/model"
)

// SnapshotModel maps the `snapshots` table for Bun queries.
type SnapshotModel struct {
	bun.BaseModel `bun:"table:snapshots"`
	ID            int64     `bun:"id,pk,autoincrement"`
	Name          string    `bun:"name,notnull,unique"`
	Profile       string    `bun:"profile,notnull"`
	RecordCount   int       `bun:"record_count,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
}

// SnapshotRowModel maps the `snapshot_rows` table. Each row stores one
// record as its original JSON so arbitrary API shapes survive a roundtrip.
type SnapshotRowModel struct {
	bun.BaseModel `bun:"table:snapshot_rows"`
	ID            int64  `bun:"id,pk,autoincrement"`
	SnapshotID    int64  `bun:"snapshot_id,notnull"`
	Position      int    `bun:"position,notnull"`
	Payload       []byte `bun:"payload,notnull"`
}

// bunStore is the bun-backed Store used for every supported backend.
type bunStore struct {
	sqlDB *sql.DB
	bun   *bun.DB
}

// initSchema creates the snapshot tables if they do not exist yet.
func (s *bunStore) initSchema(ctx context.Context) error {
	if _, err := s.bun.NewCreateTable().Model((*SnapshotModel)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to create snapshots table: %w", err)
	}
	if _, err := s.bun.NewCreateTable().Model((*SnapshotRowModel)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to create snapshot_rows table: %w", err)
	}
	return nil
}

// SaveSnapshot stores the records and the snapshot header in one
// transaction so a failed save never leaves orphan rows behind.
func (s *bunStore) SaveSnapshot(ctx context.Context, name, profile string, records []model.Record) (int64, error) {
	tx, err := s.bun.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	snap := &SnapshotModel{
		Name:        name,
		Profile:     profile,
		RecordCount: len(records),
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := tx.NewInsert().Model(snap).Returning("id").Exec(ctx); err != nil {
		return 0, MapDBError(err)
	}

	if len(records) > 0 {
		rows := make([]SnapshotRowModel, 0, len(records))
		for i, r := range records {
			payload, err := json.Marshal(r)
			if err != nil {
				return 0, fmt.Errorf("failed to encode record %d: %w", i, err)
			}
			rows = append(rows, SnapshotRowModel{
				SnapshotID: snap.ID,
				Position:   i,
				Payload:    payload,
			})
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return 0, MapDBError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return snap.ID, nil
}

// ListSnapshots returns all snapshots, newest first.
func (s *bunStore) ListSnapshots(ctx context.Context) ([]model.Snapshot, error) {
	var sms []SnapshotModel
	if err := s.bun.NewSelect().Model(&sms).OrderExpr("created_at DESC").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.Snapshot, 0, len(sms))
	for _, sm := range sms {
		out = append(out, snapshotModelToModel(sm))
	}
	return out, nil
}

// GetSnapshot returns the snapshot with the given name.
func (s *bunStore) GetSnapshot(ctx context.Context, name string) (*model.Snapshot, error) {
	var sm SnapshotModel
	err := s.bun.NewSelect().Model(&sm).Where("name = ?", name).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}
	m := snapshotModelToModel(sm)
	return &m, nil
}

// LoadRecords returns a snapshot's records in saved order.
func (s *bunStore) LoadRecords(ctx context.Context, snapshotID int64) ([]model.Record, error) {
	var rows []SnapshotRowModel
	err := s.bun.NewSelect().Model(&rows).
		Where("snapshot_id = ?", snapshotID).
		OrderExpr("position ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]model.Record, 0, len(rows))
	for _, row := range rows {
		var r model.Record
		if err := json.Unmarshal(row.Payload, &r); err != nil {
			return nil, fmt.Errorf("failed to decode record %d of snapshot %d: %w", row.Position, snapshotID, err)
		}
		records = append(records, r)
	}
	return records, nil
}

// DeleteSnapshot removes the snapshot and its rows in one transaction.
func (s *bunStore) DeleteSnapshot(ctx context.Context, name string) error {
	snap, err := s.GetSnapshot(ctx, name)
	if err != nil {
		return err
	}

	tx, err := s.bun.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.NewDelete().Model((*SnapshotRowModel)(nil)).Where("snapshot_id = ?", snap.ID).Exec(ctx); err != nil {
		return err
	}
	if _, err := tx.NewDelete().Model((*SnapshotModel)(nil)).Where("id = ?", snap.ID).Exec(ctx); err != nil {
		return err
	}
	return tx.Commit()
}

// Close releases the underlying database handles.
func (s *bunStore) Close() error {
	return s.sqlDB.Close()
}

func snapshotModelToModel(sm SnapshotModel) model.Snapshot {
	return model.Snapshot{
		ID:          sm.ID,
		Name:        sm.Name,
		Profile:     sm.Profile,
		RecordCount: sm.RecordCount,
		CreatedAt:   sm.CreatedAt,
	}
}
