// Copyright (c) 2026 ToeiRei
// Tabula - a terminal data table for remote JSON APIs
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/toeirei/tabula/internal/config"
	"github.com/toeirei/tabula/internal/engine"
	"github.com/toeirei/tabula/internal/i18n"
	"github.com/toeirei/tabula/internal/model"
	"github.com/toeirei/tabula/internal/pipeline"
	"github.com/toeirei/tabula/internal/source"
)

func testRecords() []model.Record {
	return []model.Record{
		{"id": float64(1), "firstName": "Emily", "lastName": "Johnson", "age": float64(28)},
		{"id": float64(2), "firstName": "Michael", "lastName": "Williams", "age": float64(35)},
		{"id": float64(3), "firstName": "Sophia", "lastName": "Brown", "age": float64(42)},
	}
}

func testColumns() []model.Column {
	return []model.Column{
		{Key: "id", Title: "ID", Width: 5, Format: model.FormatNumber, Sortable: true},
		{Key: "fullName", Title: "Name", Width: 24, Template: "{firstName} {lastName}"},
		{Key: "age", Title: "Age", Width: 5, Format: model.FormatNumber, Sortable: true},
	}
}

// newTestBrowseModel builds a browse view over an in-memory source with the
// first page already loaded.
func newTestBrowseModel(t *testing.T) *browseModel {
	t.Helper()
	i18n.Init("en")

	columns := testColumns()
	src := source.NewLocalSource(testRecords())
	tbl := engine.New(src, pipeline.New(columns), 2)

	m := newBrowseModel(tbl, columns, "test", nil, false)
	drainCmd(t, m, m.Init())
	if m.err != nil {
		t.Fatalf("initial load: %v", m.err)
	}
	return m
}

func TestAlignFooter(t *testing.T) {
	got := AlignFooter("left", "right", 20)
	if len(got) != 20 {
		t.Fatalf("aligned footer length = %d, want 20", len(got))
	}
	if !strings.HasPrefix(got, "left") || !strings.HasSuffix(got, "right") {
		t.Fatalf("unexpected footer layout: %q", got)
	}

	// Too narrow still separates the tokens with one space.
	got = AlignFooter("left", "right", 5)
	if got != "left right" {
		t.Fatalf("narrow footer = %q", got)
	}
}

func TestTableColumnsSortIndicator(t *testing.T) {
	cols := tableColumns(testColumns(), model.Query{SortKey: "age", Sort: model.SortDesc})

	// Sortable columns get their shortcut digit, sorted ones the direction.
	if !strings.HasPrefix(cols[0].Title, "1:") {
		t.Errorf("first column title = %q, want shortcut prefix", cols[0].Title)
	}
	if strings.HasPrefix(cols[1].Title, "2:") {
		t.Errorf("non-sortable column got a shortcut: %q", cols[1].Title)
	}
	if !strings.Contains(cols[2].Title, "▼") {
		t.Errorf("sorted column title = %q, want descending indicator", cols[2].Title)
	}
}

func TestBrowseRebuildTable(t *testing.T) {
	m := newTestBrowseModel(t)

	rows := m.table.Rows()
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows on the first page, got %d", len(rows))
	}
	// The computed column is rendered from the template.
	if rows[0][1] != "Emily Johnson" {
		t.Errorf("computed cell = %q", rows[0][1])
	}
}

func TestBrowsePagingKeys(t *testing.T) {
	m := newTestBrowseModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if cmd == nil {
		t.Fatal("expected a load command for the next page")
	}
	drainCmd(t, m, cmd)

	if got := m.query.Page; got != 2 {
		t.Fatalf("page after next = %d, want 2", got)
	}
	if len(m.table.Rows()) != 1 {
		t.Errorf("rows on last page = %d, want 1", len(m.table.Rows()))
	}

	// Next on the last page stays put.
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	drainCmd(t, m, cmd)
	if got := m.query.Page; got != 2 {
		t.Errorf("page after next at end = %d, want 2", got)
	}
}

func TestBrowseSortKey(t *testing.T) {
	m := newTestBrowseModel(t)

	// "3" sorts the age column ascending.
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'3'}})
	drainCmd(t, m, cmd)

	if q := m.query; q.SortKey != "age" || q.Sort != model.SortAsc {
		t.Fatalf("query after sort = %+v", q)
	}

	// "2" targets the non-sortable computed column and is ignored.
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}})
	if cmd != nil {
		t.Error("sorting a non-sortable column should be a no-op")
	}
}

func TestBrowseSearchFlow(t *testing.T) {
	m := newTestBrowseModel(t)

	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	if !m.searching {
		t.Fatal("expected search input to be active")
	}

	m.search.SetValue("emily")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.searching {
		t.Fatal("search input should close on enter")
	}
	drainCmd(t, m, cmd)

	if got := m.query.Search; got != "emily" {
		t.Fatalf("search term = %q", got)
	}
	if got := m.page.Total; got != 1 {
		t.Errorf("filtered total = %d, want 1", got)
	}

	// Escape clears the active search.
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	drainCmd(t, m, cmd)
	if got := m.query.Search; got != "" {
		t.Errorf("search after clear = %q", got)
	}
}

func TestBrowseBackToMenu(t *testing.T) {
	m := newTestBrowseModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected a back command")
	}
	if _, ok := cmd().(backToMenuMsg); !ok {
		t.Fatal("expected backToMenuMsg")
	}
}

func TestBrowseViewShowsErrorBanner(t *testing.T) {
	i18n.Init("en")
	columns := testColumns()
	tbl := engine.New(&failingSource{}, pipeline.New(columns), 2)

	m := newBrowseModel(tbl, columns, "test", nil, false)
	drainCmd(t, m, m.Init())

	view := m.View()
	if !strings.Contains(view, "boom") {
		t.Fatalf("view should surface the load error, got:\n%s", view)
	}
}

// gatedSource blocks Fetch until released, holding a load in flight.
type gatedSource struct {
	inner   source.Source
	release chan struct{}
}

func (s *gatedSource) Fetch(ctx context.Context, q model.Query) (model.Page, error) {
	<-s.release
	return s.inner.Fetch(ctx, q)
}

func TestBrowseViewWhileLoadInFlight(t *testing.T) {
	i18n.Init("en")
	columns := testColumns()
	gate := &gatedSource{inner: source.NewLocalSource(testRecords()), release: make(chan struct{})}
	tbl := engine.New(gate, pipeline.New(columns), 2)
	m := newBrowseModel(tbl, columns, "test", nil, false)

	cmd := m.load(m.tbl.Load)
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	// Rendering keeps happening while the command goroutine owns the
	// engine; the race detector fails this test if a render reads the
	// Table mid-load.
	for i := 0; i < 50; i++ {
		_ = m.View()
		_ = m.footerView()
	}
	close(gate.release)

	_, _ = m.Update(<-done)
	if !m.loaded || m.err != nil {
		t.Fatalf("load did not complete cleanly: loaded=%v err=%v", m.loaded, m.err)
	}
	if len(m.table.Rows()) != 2 {
		t.Errorf("rows after load = %d, want 2", len(m.table.Rows()))
	}
}

type failingSource struct{}

func (failingSource) Fetch(context.Context, model.Query) (model.Page, error) {
	return model.Page{}, errBoom
}

var errBoom = errFixed("boom")

type errFixed string

func (e errFixed) Error() string { return string(e) }

func TestDeriveColumns(t *testing.T) {
	records := []model.Record{
		{"id": float64(7), "name": "x", "address": map[string]any{"city": "y"}, "tags": []any{"a"}},
	}
	cols := deriveColumns(records)

	if cols[0].Key != "id" {
		t.Errorf("first derived column = %q, want id", cols[0].Key)
	}
	for _, col := range cols {
		if col.Key == "address" || col.Key == "tags" {
			t.Errorf("nested field %q should not become a column", col.Key)
		}
	}
}

func TestSnapshotsRebuildRows(t *testing.T) {
	i18n.Init("en")
	m := newSnapshotsModel(nil)
	m.snaps = []model.Snapshot{
		{ID: 1, Name: "users-aug", Profile: "dummyjson", RecordCount: 208},
	}
	m.rebuildTableRows()

	rows := m.table.Rows()
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0][0] != "users-aug" || rows[0][2] != "208" {
		t.Errorf("unexpected row: %v", rows[0])
	}
}

func TestMainModelMenuOpensBrowser(t *testing.T) {
	i18n.Init("en")
	cfg := config.Config{PageSize: 10}
	factory := func(p config.Profile) source.Source {
		return source.NewLocalSource(testRecords())
	}

	m := newMainModel(cfg, nil, factory)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	mm := updated.(mainModel)

	if mm.state != browseView {
		t.Fatalf("state after enter = %v, want browseView", mm.state)
	}
	if mm.browser == nil || cmd == nil {
		t.Fatal("browser should be initialized with a load command")
	}
}

func TestMainModelLanguageView(t *testing.T) {
	i18n.Init("en")
	m := newMainModel(config.Config{}, nil, nil)
	m.state = languageView
	m.language = newLanguageModel()

	if len(m.language.orderedKeys) < 2 {
		t.Fatalf("expected at least two locales, got %v", m.language.orderedKeys)
	}
	if view := m.language.View(); view == "" {
		t.Fatal("language view should render")
	}

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if updated.(mainModel).state != menuView {
		t.Fatal("esc should return to the menu")
	}
}

func TestMainModelViewRendersMenu(t *testing.T) {
	i18n.Init("en")
	m := newMainModel(config.Config{PageSize: 10}, nil, nil)
	m.width = 120
	m.height = 40

	view := m.View()
	if view == "" {
		t.Fatal("menu view should render")
	}
	if !strings.Contains(view, "dummyjson") {
		t.Errorf("menu should show the active profile, got:\n%s", view)
	}
}

// drainCmd executes a command (possibly a batch) and feeds the resulting
// messages back into the model the way the bubbletea runtime would.
// Follow-up commands (spinner ticks) are dropped.
func drainCmd(t *testing.T, m *browseModel, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			drainCmd(t, m, c)
		}
		return
	}
	if msg != nil {
		_, _ = m.Update(msg)
	}
}
