// Copyright (c) 2026 ToeiRei
// Tabula - a terminal data table for remote JSON APIs
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/toeirei/tabula/internal/db"
	"github.com/toeirei/tabula/internal/i18n"
	"github.com/toeirei/tabula/internal/model"
)

// snapshotsLoadedMsg delivers the snapshot listing from the store.
type snapshotsLoadedMsg struct {
	snaps []model.Snapshot
	err   error
}

// snapshotOpenedMsg carries a loaded snapshot up to the router, which
// switches into an offline browse view over its records.
type snapshotOpenedMsg struct {
	snap    model.Snapshot
	records []model.Record
	err     error
}

// snapshotDeletedMsg signals the outcome of a delete.
type snapshotDeletedMsg struct {
	name string
	err  error
}

// snapshotsModel lists saved snapshots and opens them for offline browsing.
type snapshotsModel struct {
	store  db.Store
	table  table.Model
	snaps  []model.Snapshot
	status string
	err    error
}

func newSnapshotsModel(store db.Store) *snapshotsModel {
	columns := []table.Column{
		{Title: i18n.T("snapshots.header.name"), Width: 32},
		{Title: i18n.T("snapshots.header.profile"), Width: 16},
		{Title: i18n.T("snapshots.header.records"), Width: 8},
		{Title: i18n.T("snapshots.header.created"), Width: 20},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15), // Placeholder height
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorSubtle).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(colorWhite).
		Background(colorHighlight).
		Bold(false)
	t.SetStyles(s)

	return &snapshotsModel{store: store, table: t}
}

// Init lists the snapshots.
func (m *snapshotsModel) Init() tea.Cmd {
	return m.refresh()
}

func (m *snapshotsModel) refresh() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		snaps, err := store.ListSnapshots(ctx)
		return snapshotsLoadedMsg{snaps: snaps, err: err}
	}
}

func (m *snapshotsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h := msg.Height - 6
		if h < 3 {
			h = 3
		}
		m.table.SetHeight(h)
		if msg.Width > 4 {
			m.table.SetWidth(msg.Width - 4) // Account for docStyle margins
		}
		return m, nil

	case snapshotsLoadedMsg:
		m.err = msg.err
		m.snaps = msg.snaps
		m.rebuildTableRows()
		return m, nil

	case snapshotDeletedMsg:
		if msg.err != nil {
			m.status = errorStyle.Render(i18n.T("snapshots.delete_failed", msg.err))
			return m, nil
		}
		m.status = successStyle.Render(i18n.T("snapshots.deleted", msg.name))
		return m, m.refresh()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc":
			return m, func() tea.Msg { return backToMenuMsg{} }
		case "r":
			return m, m.refresh()
		case "d":
			snap, ok := m.selected()
			if !ok {
				return m, nil
			}
			store := m.store
			return m, func() tea.Msg {
				ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
				defer cancel()
				return snapshotDeletedMsg{name: snap.Name, err: store.DeleteSnapshot(ctx, snap.Name)}
			}
		case "enter":
			snap, ok := m.selected()
			if !ok {
				return m, nil
			}
			store := m.store
			return m, func() tea.Msg {
				ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
				defer cancel()
				records, err := store.LoadRecords(ctx, snap.ID)
				return snapshotOpenedMsg{snap: snap, records: records, err: err}
			}
		}
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// selected returns the snapshot under the cursor.
func (m *snapshotsModel) selected() (model.Snapshot, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.snaps) {
		return model.Snapshot{}, false
	}
	return m.snaps[idx], true
}

func (m *snapshotsModel) rebuildTableRows() {
	var rows []table.Row
	for _, snap := range m.snaps {
		rows = append(rows, table.Row{
			snap.Name,
			snap.Profile,
			fmt.Sprintf("%d", snap.RecordCount),
			snap.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.GotoTop()
	}
}

func (m *snapshotsModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("💾 "+i18n.T("snapshots.title")) + "\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(i18n.T("snapshots.load_failed", m.err)) + "\n")
	}

	if len(m.table.Rows()) == 0 {
		b.WriteString(helpStyle.Render(i18n.T("snapshots.empty")))
	} else {
		b.WriteString(m.table.View())
	}

	b.WriteString("\n" + helpStyle.Render(i18n.T("snapshots.help")))
	if m.status != "" {
		b.WriteString("\n" + m.status)
	}
	return b.String()
}

// deriveColumns builds a table layout for snapshots whose profile is no
// longer configured: top-level scalar fields of the first record, sorted,
// with "id" pulled to the front when present.
func deriveColumns(records []model.Record) []model.Column {
	if len(records) == 0 {
		return []model.Column{{Key: "id", Title: "ID", Width: 8}}
	}

	var keys []string
	for key, v := range records[0] {
		switch v.(type) {
		case map[string]any, []any:
			continue // nested values make poor cells
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	cols := make([]model.Column, 0, len(keys))
	for _, key := range keys {
		if key == "id" {
			cols = append([]model.Column{{Key: "id", Title: "ID", Width: 8, Format: model.FormatNumber, Sortable: true}}, cols...)
			continue
		}
		cols = append(cols, model.Column{Key: key, Title: titleCase(key), Width: 18, Sortable: true})
	}
	return cols
}

// titleCase upper-cases the first letter of a field name for a header.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
