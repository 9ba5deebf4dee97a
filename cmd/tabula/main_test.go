// Copyright (c) 2026 ToeiRei
// Tabula - a terminal data table for remote JSON APIs
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/toeirei/tabula/internal/config"
	"github.com/toeirei/tabula/internal/db"
	"github.com/toeirei/tabula/internal/engine"
	"github.com/toeirei/tabula/internal/model"
	"github.com/toeirei/tabula/internal/pipeline"
	"github.com/toeirei/tabula/internal/source"

	"github.com/spf13/cobra"
)

func TestRootCmdWiring(t *testing.T) {
	cmd := newRootCmd()

	for _, name := range []string{"fetch", "snapshot", "profiles"} {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}

	for _, flag := range []string{"config", "profile", "language", "db-type", "db-dsn", "page-size", "debug"} {
		if cmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag %q", flag)
		}
	}

	if cmd.Version == "" {
		t.Error("version should be set")
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	cmd := newRootCmd()
	if err := cmd.PersistentFlags().Set("db-type", "postgres"); err != nil {
		t.Fatalf("setting flag: %v", err)
	}
	if err := cmd.PersistentFlags().Set("page-size", "25"); err != nil {
		t.Fatalf("setting flag: %v", err)
	}

	cfg = config.Config{PageSize: 10}
	cfg.Database.Type = "sqlite"
	applyFlagOverrides(cmd)

	if cfg.Database.Type != "postgres" {
		t.Errorf("db type = %q", cfg.Database.Type)
	}
	if cfg.PageSize != 25 {
		t.Errorf("page size = %d", cfg.PageSize)
	}
}

// closeTrackingStore records whether Close was called.
type closeTrackingStore struct {
	db.Store
	closed bool
}

func (s *closeTrackingStore) Close() error {
	s.closed = true
	return nil
}

func TestExecuteClosesStoreOnError(t *testing.T) {
	fake := &closeTrackingStore{}
	store = fake
	t.Cleanup(func() { store = nil })

	cmd := &cobra.Command{
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(*cobra.Command, []string) error {
			return errors.New("exec failed")
		},
	}
	if err := execute(cmd); err == nil {
		t.Fatal("expected the command error to propagate")
	}
	if !fake.closed {
		t.Error("store should be closed when the command fails")
	}
}

func TestPrintTextTable(t *testing.T) {
	columns := []model.Column{
		{Key: "id", Title: "ID", Width: 5},
		{Key: "name", Title: "Name", Width: 20},
	}
	records := []model.Record{
		{"id": float64(1), "name": "Emily"},
		{"id": float64(2), "name": "Michael"},
	}

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	printTextTable(cmd, columns, records)

	out := buf.String()
	if !strings.Contains(out, "ID") || !strings.Contains(out, "Emily") {
		t.Fatalf("unexpected table output:\n%s", out)
	}
}

// countingSource wraps a Source and counts the requests it receives.
type countingSource struct {
	inner source.Source
	calls int
}

func (s *countingSource) Fetch(ctx context.Context, q model.Query) (model.Page, error) {
	s.calls++
	return s.inner.Fetch(ctx, q)
}

func TestApplyQueryFlags(t *testing.T) {
	records := []model.Record{
		{"id": float64(1), "name": "Emily", "age": float64(28)},
		{"id": float64(2), "name": "Michael", "age": float64(35)},
	}
	src := &countingSource{inner: source.NewLocalSource(records)}
	tbl := engine.New(src, pipeline.New(nil), 10)

	applyQueryFlags(tbl, "", "age", "desc")
	if err := tbl.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	q := tbl.Query()
	if q.SortKey != "age" || q.Sort != model.SortDesc {
		t.Fatalf("query after flags = %+v", q)
	}
	if got := tbl.Page().Records[0].FieldString("name"); got != "Michael" {
		t.Errorf("top record after desc sort = %q", got)
	}
	// Seeding must not burn extra requests ahead of the load.
	if src.calls != 1 {
		t.Errorf("fetch count = %d, want 1", src.calls)
	}
}
