// Copyright (c) 2026 ToeiRei
// Tabula - a terminal data table for remote JSON APIs
// This source code is licensed under the MIT license found in the LICENSE file.

// package tui provides the terminal user interface for Tabula.
// This file, tui.go, is the main entry point for the TUI, containing the
// top-level model that acts as a router to all other sub-views.
package tui

import (
	"fmt"
	"sort"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/toeirei/tabula/internal/config"
	"github.com/toeirei/tabula/internal/db"
	"github.com/toeirei/tabula/internal/engine"
	"github.com/toeirei/tabula/internal/i18n"
	"github.com/toeirei/tabula/internal/logging"
	"github.com/toeirei/tabula/internal/pipeline"
	"github.com/toeirei/tabula/internal/source"
)

// viewState represents which part of the UI is currently active.
type viewState int

const (
	// menuView is the main navigation menu.
	menuView viewState = iota
	browseView
	snapshotsView
	languageView
)

// backToMenuMsg is sent by sub-views when the user leaves them.
type backToMenuMsg struct{}

// languageChangedMsg signals that the language has changed and the UI
// should be re-initialized so all labels pick up the new translations.
type languageChangedMsg struct{}

// SourceFactory builds a data source for a profile. The command layer
// injects it so the TUI stays free of HTTP client wiring.
type SourceFactory func(config.Profile) source.Source

// mainModel is the top-level model for the TUI. It acts as a state machine
// and router, delegating updates and view rendering to the currently active
// sub-model.
type mainModel struct {
	state     viewState
	cfg       config.Config
	store     db.Store
	newSource SourceFactory

	menu      menuModel
	browser   *browseModel
	snapshots *snapshotsModel
	language  languageModel
	width     int
	height    int
	err       error
}

// menuModel holds the state for the main menu.
type menuModel struct {
	choices []string // The menu items to show.
	cursor  int      // Which menu item our cursor is pointing at.
}

// languageModel holds the state for the language selection menu.
type languageModel struct {
	choices     map[string]string // map of lang code to display name
	orderedKeys []string          // for stable iteration
	cursor      int
}

// newMainModel creates the starting state of the TUI, beginning at the
// main menu.
func newMainModel(cfg config.Config, store db.Store, newSource SourceFactory) mainModel {
	return mainModel{
		state: menuView,
		cfg:   cfg,
		store: store,
		menu: menuModel{
			choices: []string{
				i18n.T("menu.browse"),
				i18n.T("menu.snapshots"),
				i18n.T("menu.language"),
			},
		},
		newSource: newSource,
	}
}

// Init is the first function called by the Bubble Tea runtime.
func (m mainModel) Init() tea.Cmd {
	return nil
}

// openBrowser builds a data table over the active profile and switches to
// the browse view.
func (m mainModel) openBrowser() (mainModel, tea.Cmd) {
	name, p, err := m.cfg.ActiveProfile()
	if err != nil {
		m.err = err
		return m, nil
	}

	pageSize := p.PageSize
	if pageSize <= 0 {
		pageSize = m.cfg.PageSize
	}

	src := m.newSource(p)
	tbl := engine.New(src, pipeline.New(p.Columns), pageSize)
	m.browser = newBrowseModel(tbl, p.Columns, name, m.store, false)
	m.state = browseView

	var cmd tea.Cmd
	var updated tea.Model
	updated, cmd = m.browser.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
	m.browser = updated.(*browseModel)
	return m, tea.Batch(m.browser.Init(), cmd)
}

// openSnapshot switches into an offline browse view over saved records.
func (m mainModel) openSnapshot(msg snapshotOpenedMsg) (mainModel, tea.Cmd) {
	columns := deriveColumns(msg.records)
	if p, ok := m.cfg.Profiles[msg.snap.Profile]; ok && len(p.Columns) > 0 {
		columns = p.Columns
	} else if msg.snap.Profile == "dummyjson" {
		columns = config.DummyJSONProfile().Columns
	}

	pageSize := m.cfg.PageSize
	src := source.NewLocalSource(msg.records)
	tbl := engine.New(src, pipeline.New(columns), pageSize)
	m.browser = newBrowseModel(tbl, columns, msg.snap.Name, nil, true)
	m.state = browseView

	var cmd tea.Cmd
	var updated tea.Model
	updated, cmd = m.browser.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
	m.browser = updated.(*browseModel)
	return m, tea.Batch(m.browser.Init(), cmd)
}

// Update is the main message loop. It handles all events (like key presses
// and window size changes) and delegates them to the active sub-model.
func (m mainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Global keybindings that work everywhere.
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case snapshotOpenedMsg:
		if msg.err != nil {
			if m.snapshots != nil {
				m.snapshots.status = errorStyle.Render(i18n.T("snapshots.load_failed", msg.err))
			}
			return m, nil
		}
		return m.openSnapshot(msg)

	case languageChangedMsg:
		// The language has changed. Re-initialize the entire model to apply
		// new translations everywhere, preserving dimensions and wiring.
		newModel := newMainModel(m.cfg, m.store, m.newSource)
		newModel.width = m.width
		newModel.height = m.height
		return newModel, newModel.Init()
	}

	// Delegate updates to the currently active view.
	switch m.state {
	case browseView:
		if _, ok := msg.(backToMenuMsg); ok {
			m.state = menuView
			return m, nil
		}
		var updated tea.Model
		updated, cmd = m.browser.Update(msg)
		m.browser = updated.(*browseModel)

	case snapshotsView:
		if _, ok := msg.(backToMenuMsg); ok {
			m.state = menuView
			return m, nil
		}
		var updated tea.Model
		updated, cmd = m.snapshots.Update(msg)
		m.snapshots = updated.(*snapshotsModel)

	case languageView:
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "q", "esc":
				m.state = menuView
				return m, nil
			case "up", "k":
				if m.language.cursor > 0 {
					m.language.cursor--
				}
			case "down", "j":
				if m.language.cursor < len(m.language.orderedKeys)-1 {
					m.language.cursor++
				}
			case "enter":
				langCode := m.language.orderedKeys[m.language.cursor]
				i18n.SetLang(langCode)
				m.cfg.Language = langCode
				if err := config.WriteConfigFile(&m.cfg, false); err != nil {
					logging.Warnf("could not persist language choice: %v", err)
				}

				// Signal that the language has changed so the entire UI
				// can be re-initialized.
				return m, func() tea.Msg { return languageChangedMsg{} }
			}
		}

	default: // menuView
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "q":
				return m, tea.Quit
			case "up", "k":
				if m.menu.cursor > 0 {
					m.menu.cursor--
				}
			case "down", "j":
				if m.menu.cursor < len(m.menu.choices)-1 {
					m.menu.cursor++
				}
			case "enter":
				switch m.menu.cursor {
				case 0: // Browse data
					return m.openBrowser()
				case 1: // Snapshots
					if m.store == nil {
						m.err = fmt.Errorf("%s", i18n.T("snapshots.no_store"))
						return m, nil
					}
					m.state = snapshotsView
					m.snapshots = newSnapshotsModel(m.store)
					var updated tea.Model
					updated, cmd = m.snapshots.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
					m.snapshots = updated.(*snapshotsModel)
					return m, tea.Batch(m.snapshots.Init(), cmd)
				case 2: // Language
					m.state = languageView
					m.language = newLanguageModel()
					return m, nil
				}
			case "L":
				// "L" opens the language menu from anywhere on the menu.
				m.state = languageView
				m.language = newLanguageModel()
				return m, nil
			}
		}
	}

	return m, cmd
}

// View renders the TUI. It's called after every Update and delegates
// rendering to the currently active sub-model.
func (m mainModel) View() string {
	if m.err != nil {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(1, 2)
		return errStyle.Render(fmt.Sprintf("An error occurred: %v", m.err))
	}

	switch m.state {
	case browseView:
		return docStyle.Render(m.browser.View())
	case snapshotsView:
		return docStyle.Render(m.snapshots.View())
	case languageView:
		return m.language.View()
	default: // menuView
		return m.menuView()
	}
}

// menuView renders the main menu with a small profile summary pane.
func (m mainModel) menuView() string {
	title := mainTitleStyle.Render("🗂  " + i18n.T("app.title"))
	subTitle := helpStyle.Render(i18n.T("app.subtitle"))
	header := lipgloss.JoinVertical(lipgloss.Left, title, subTitle)

	paneTitleStyle := lipgloss.NewStyle().Bold(true)

	// Menu list (left pane)
	var menuItems []string
	menuItems = append(menuItems, paneTitleStyle.Render(i18n.T("menu.navigation")), "")
	for i, choice := range m.menu.choices {
		if m.menu.cursor == i {
			menuItems = append(menuItems, selectedItemStyle.Render("▸ "+choice))
		} else {
			menuItems = append(menuItems, itemStyle.Render("  "+choice))
		}
	}
	menuContent := lipgloss.JoinVertical(lipgloss.Left, menuItems...)

	// Active profile summary (right pane)
	var infoItems []string
	infoItems = append(infoItems, paneTitleStyle.Render(i18n.T("menu.active_profile")), "")
	name, p, err := m.cfg.ActiveProfile()
	if err != nil {
		infoItems = append(infoItems, errorStyle.Render(err.Error()))
	} else {
		pageSize := p.PageSize
		if pageSize <= 0 {
			pageSize = m.cfg.PageSize
		}
		mode := p.Mode
		if mode == "" {
			mode = "server"
		}
		infoItems = append(infoItems,
			specialStyle.Render(name),
			helpStyle.Render(p.Endpoint),
			"",
			i18n.T("menu.profile_mode", mode),
			i18n.T("menu.profile_page_size", pageSize),
			i18n.T("menu.profile_columns", len(p.Columns)),
		)
	}
	infoContent := lipgloss.JoinVertical(lipgloss.Left, infoItems...)

	paneStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorSubtle).
		Padding(1, 2)

	menuWidth := 38
	infoWidth := m.width - 4 - menuWidth - 2
	if infoWidth < 30 {
		infoWidth = 30
	}

	leftPane := paneStyle.Width(menuWidth).Render(menuContent)
	rightPane := paneStyle.Width(infoWidth).MarginLeft(2).Render(infoContent)
	mainArea := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane)

	footer := footerStyle.Italic(true).Render(AlignFooter(i18n.T("menu.footer"), "", m.width))

	return lipgloss.JoinVertical(lipgloss.Top, header, mainArea, footer)
}

// newLanguageModel creates a new model for the language selection view.
func newLanguageModel() languageModel {
	// Get the dynamically discovered locales from the i18n package.
	choices := i18n.GetAvailableLocales()

	// Create a sorted list of keys for stable iteration and display order.
	keys := make([]string, 0, len(choices))
	for k := range choices {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return languageModel{
		choices:     choices,
		orderedKeys: keys,
		cursor:      0,
	}
}

// View for languageModel.
func (m languageModel) View() string {
	title := mainTitleStyle.Render("🌐 " + i18n.T("menu.language"))

	var listItems []string
	listItems = append(listItems, titleStyle.Render(i18n.T("language.select")), "")

	for i, langCode := range m.orderedKeys {
		displayName := m.choices[langCode]
		line := "  " + displayName
		if m.cursor == i {
			line = "▸ " + displayName
			listItems = append(listItems, selectedItemStyle.Render(line))
		} else {
			listItems = append(listItems, itemStyle.Render(line))
		}
	}

	paneStyle := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorSubtle).Padding(1, 2)
	listPane := paneStyle.Width(60).Render(lipgloss.JoinVertical(lipgloss.Left, listItems...))

	helpLine := footerStyle.Italic(true).Render(AlignFooter(i18n.T("language.help"), "", 60))

	return lipgloss.JoinVertical(lipgloss.Left, title, "", listPane, "", helpLine)
}

// Run is the main entrypoint for the TUI. It initializes and runs the
// Bubble Tea program.
func Run(cfg config.Config, store db.Store, newSource SourceFactory) error {
	if _, err := tea.NewProgram(newMainModel(cfg, store, newSource)).Run(); err != nil {
		logging.Errorf("TUI run error: %v", err)
		return err
	}
	return nil
}
