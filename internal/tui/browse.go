// Copyright (c) 2026 ToeiRei
// Tabula - a terminal data table for remote JSON APIs
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/toeirei/tabula/internal/db"
	"github.com/toeirei/tabula/internal/engine"
	"github.com/toeirei/tabula/internal/i18n"
	"github.com/toeirei/tabula/internal/model"
	"github.com/toeirei/tabula/internal/pipeline"
)

// loadTimeout bounds one table load from the UI. It is deliberately larger
// than the HTTP client timeout so transport errors surface first.
const loadTimeout = 30 * time.Second

// pageLoadedMsg carries the engine state after a table operation (load,
// page, sort, search). The view renders from this copy, so the event loop
// never reads the Table while a command goroutine still drives it.
type pageLoadedMsg struct {
	page   model.Page
	query  model.Query
	loaded bool
	err    error
}

// snapshotSavedMsg signals the outcome of saving the current page.
type snapshotSavedMsg struct {
	name string
	err  error
}

// browseModel is the data table view: a bubbles table over an engine.Table,
// with paging, column sorting, search and clipboard export.
type browseModel struct {
	tbl     *engine.Table
	columns []model.Column
	profile string
	store   db.Store // nil disables snapshot saving
	offline bool     // snapshot browsing, no store writes

	// page, query, loaded and err mirror the engine state as of the last
	// pageLoadedMsg. Update and View read only these copies; the Table
	// itself belongs to the command goroutine while loading is true.
	page   model.Page
	query  model.Query
	loaded bool
	err    error

	table     table.Model
	search    textinput.Model
	spin      spinner.Model
	loading   bool
	searching bool
	status    string
	width     int
	height    int
}

// newBrowseModel creates the table view. The engine has not loaded yet;
// Init kicks off the first fetch.
func newBrowseModel(tbl *engine.Table, columns []model.Column, profile string, store db.Store, offline bool) *browseModel {
	t := table.New(
		table.WithColumns(tableColumns(columns, tbl.Query())),
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

	ti := textinput.New()
	ti.Placeholder = i18n.T("browse.search_placeholder")
	ti.CharLimit = 64

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorHighlight)

	return &browseModel{
		tbl:     tbl,
		columns: columns,
		profile: profile,
		store:   store,
		offline: offline,
		query:   tbl.Query(),
		table:   t,
		search:  ti,
		spin:    sp,
	}
}

// Init starts the spinner and the initial load.
func (m *browseModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.load(func(ctx context.Context) error {
		return m.tbl.Load(ctx)
	}))
}

// load runs one engine operation off the message loop and snapshots the
// resulting state into the message. The loading flag keeps operations
// serialized; the engine is not safe for concurrent use, so nothing else
// may touch it until the message comes back.
func (m *browseModel) load(op func(context.Context) error) tea.Cmd {
	m.loading = true
	tbl := m.tbl
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		_ = op(ctx)
		return pageLoadedMsg{
			page:   tbl.Page(),
			query:  tbl.Query(),
			loaded: tbl.Loaded(),
			err:    tbl.Err(),
		}
	}
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// header(3) + footer(3) + status(1)
		h := msg.Height - 7
		if h < 3 {
			h = 3
		}
		m.table.SetHeight(h)
		if msg.Width > 4 {
			m.table.SetWidth(msg.Width - 4) // Account for docStyle margins
		}
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case pageLoadedMsg:
		m.loading = false
		m.page = msg.page
		m.query = msg.query
		m.loaded = msg.loaded
		m.err = msg.err
		m.rebuildTable()
		if msg.err == nil {
			m.status = ""
		}
		return m, nil

	case snapshotSavedMsg:
		if msg.err != nil {
			m.status = errorStyle.Render(i18n.T("browse.snapshot_failed", msg.err))
		} else {
			m.status = successStyle.Render(i18n.T("browse.snapshot_saved", msg.name))
		}
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			switch msg.Type {
			case tea.KeyEsc:
				m.searching = false
				m.search.Blur()
				return m, nil
			case tea.KeyEnter:
				m.searching = false
				m.search.Blur()
				term := strings.TrimSpace(m.search.Value())
				return m, tea.Batch(m.spin.Tick, m.load(func(ctx context.Context) error {
					return m.tbl.SetSearch(ctx, term)
				}))
			}
			m.search, cmd = m.search.Update(msg)
			return m, cmd
		}

		if m.loading {
			// Only quitting is allowed while a load is in flight.
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.String() {
		case "q", "esc":
			if m.query.Search != "" {
				return m, tea.Batch(m.spin.Tick, m.load(func(ctx context.Context) error {
					return m.tbl.SetSearch(ctx, "")
				}))
			}
			return m, func() tea.Msg { return backToMenuMsg{} }
		case "right", "l":
			return m, tea.Batch(m.spin.Tick, m.load(m.tbl.NextPage))
		case "left", "h":
			return m, tea.Batch(m.spin.Tick, m.load(m.tbl.PrevPage))
		case "g":
			return m, tea.Batch(m.spin.Tick, m.load(func(ctx context.Context) error {
				return m.tbl.GotoPage(ctx, 1)
			}))
		case "G":
			return m, tea.Batch(m.spin.Tick, m.load(func(ctx context.Context) error {
				return m.tbl.GotoPage(ctx, m.tbl.PageCount())
			}))
		case "r":
			return m, tea.Batch(m.spin.Tick, m.load(m.tbl.Reload))
		case "/":
			m.searching = true
			m.search.SetValue(m.query.Search)
			m.search.Focus()
			return m, textinput.Blink
		case "c":
			m.status = m.copySelectedRow()
			return m, nil
		case "s":
			return m, m.saveSnapshot()
		case "1", "2", "3", "4", "5", "6", "7", "8", "9":
			idx, _ := strconv.Atoi(msg.String())
			if col, ok := m.sortableColumn(idx - 1); ok {
				return m, tea.Batch(m.spin.Tick, m.load(func(ctx context.Context) error {
					return m.tbl.SortBy(ctx, col.Key)
				}))
			}
			return m, nil
		}
	}

	m.table, cmd = m.table.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// sortableColumn returns the column at idx if it exists and is sortable.
func (m *browseModel) sortableColumn(idx int) (model.Column, bool) {
	if idx < 0 || idx >= len(m.columns) {
		return model.Column{}, false
	}
	col := m.columns[idx]
	if !col.Sortable {
		return model.Column{}, false
	}
	return col, true
}

// copySelectedRow puts the selected record on the system clipboard as
// pretty-printed JSON and returns a status line.
func (m *browseModel) copySelectedRow() string {
	records := m.page.Records
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(records) {
		return ""
	}
	data, err := json.MarshalIndent(records[idx], "", "  ")
	if err == nil {
		err = clipboard.WriteAll(string(data))
	}
	if err != nil {
		return errorStyle.Render(i18n.T("browse.copy_failed", err))
	}
	return successStyle.Render(i18n.T("browse.copied"))
}

// saveSnapshot persists the currently displayed page under a generated name.
func (m *browseModel) saveSnapshot() tea.Cmd {
	if m.store == nil || m.offline {
		m.status = helpStyle.Render(i18n.T("browse.snapshot_unavailable"))
		return nil
	}
	records := m.page.Records
	if len(records) == 0 {
		return nil
	}
	name := fmt.Sprintf("%s-%s", m.profile, time.Now().Format("20060102-150405"))
	profile := m.profile
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		_, err := store.SaveSnapshot(ctx, name, profile, records)
		return snapshotSavedMsg{name: name, err: err}
	}
}

// rebuildTable refreshes headers (sort indicators) and rows from the
// mirrored last good page.
func (m *browseModel) rebuildTable() {
	m.table.SetColumns(tableColumns(m.columns, m.query))

	var rows []table.Row
	for _, r := range m.page.Records {
		row := make(table.Row, len(m.columns))
		for i, col := range m.columns {
			cell := pipeline.FormatCell(r, col)
			if errText := r.FieldString(pipeline.ErrorField); errText != "" {
				cell = errorStyle.Render(cell)
			}
			row[i] = cell
		}
		rows = append(rows, row)
	}
	m.table.SetRows(rows)

	if m.table.Cursor() >= len(rows) {
		m.table.GotoTop()
	}
}

// tableColumns converts profile columns into bubbles table columns, adding
// the sort indicator and the 1-9 shortcut digit to sortable headers.
func tableColumns(columns []model.Column, q model.Query) []table.Column {
	out := make([]table.Column, len(columns))
	for i, col := range columns {
		title := col.Title
		if col.Sortable && i < 9 {
			title = fmt.Sprintf("%d:%s", i+1, title)
		}
		if q.SortKey == col.Key && q.Sort != model.SortNone {
			title += " " + q.Sort.String()
		}
		width := col.Width
		if width <= 0 {
			width = 16
		}
		out[i] = table.Column{Title: title, Width: width}
	}
	return out
}

func (m *browseModel) View() string {
	var b strings.Builder

	title := "🗂  " + i18n.T("browse.title", m.profile)
	if m.offline {
		title = "💾 " + i18n.T("browse.title_snapshot", m.profile)
	}
	b.WriteString(titleStyle.Render(title) + "\n\n")

	if m.err != nil {
		b.WriteString(bannerStyle.Render(i18n.T("browse.error", m.err)) + "\n")
		if m.loaded {
			b.WriteString(helpStyle.Render(i18n.T("browse.stale_data")) + "\n")
		}
	}

	if m.loading && !m.loaded {
		b.WriteString(m.spin.View() + " " + i18n.T("browse.loading") + "\n")
		return b.String()
	}

	if m.searching {
		b.WriteString(i18n.T("browse.search_prompt") + " " + m.search.View() + "\n")
	}

	if len(m.table.Rows()) == 0 && m.loaded {
		b.WriteString(helpStyle.Render(i18n.T("browse.empty")) + "\n")
	} else {
		b.WriteString(m.table.View() + "\n")
	}

	b.WriteString(m.footerView())
	if m.status != "" {
		b.WriteString("\n" + m.status)
	}
	return b.String()
}

// footerView renders the paging state and keybinding help.
func (m *browseModel) footerView() string {
	page := m.page
	q := m.query

	right := i18n.T("browse.footer.page", q.Page, page.PageCount(), page.Total)
	var parts []string
	if m.loading {
		parts = append(parts, m.spin.View())
	}
	if q.Search != "" {
		parts = append(parts, i18n.T("browse.footer.search", q.Search))
	}
	if q.SortKey != "" && q.Sort != model.SortNone {
		parts = append(parts, fmt.Sprintf("%s %s", q.SortKey, q.Sort))
	}
	left := strings.Join(parts, "  ")

	width := m.width - 4
	if width < 40 {
		width = 40
	}
	status := footerStyle.Render(AlignFooter(left, right, width))
	help := helpStyle.Render(i18n.T("browse.help"))
	return status + "\n" + help
}
