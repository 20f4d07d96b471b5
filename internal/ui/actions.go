package ui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/nevu/internal/plex"
)

// browseState is the item listing opened from a category or library row.
type browseState struct {
	active   bool
	title    string
	path     string
	items    []plex.Metadata
	err      error
	loading  bool
	returnTo int
}

// editState is the inline editor for one account setting.
type editState struct {
	active bool
	name   string
	input  textinput.Model
	saving bool
	err    error
}

type browseMsg struct {
	path  string
	items []plex.Metadata
	err   error
}

type settingSavedMsg struct {
	name string
	err  error
}

// confirm acts on the selected row: categories and libraries open a
// listing, settings open the editor. Items have no action.
func (m Model) confirm() (tea.Model, tea.Cmd) {
	if m.browse.active {
		return m, nil
	}
	switch m.currentView {
	case ViewSearch:
		dirs := m.resultsSnap.Value.Directories
		if m.selected < len(dirs) {
			d := dirs[m.selected]
			return m.openBrowse(d.Label(), d.BrowseKey())
		}
	case ViewLibraries:
		if m.selected < len(m.libs) {
			d := m.libs[m.selected]
			return m.openBrowse(d.Title, d.SectionKey())
		}
	case ViewSettings:
		names := m.settingsSnap.Value.Names()
		if m.settings != nil && m.selected < len(names) {
			return m.openEdit(names[m.selected])
		}
	}
	return m, nil
}

func (m Model) openBrowse(title, path string) (tea.Model, tea.Cmd) {
	m.browse = browseState{active: true, title: title, path: path, loading: true, returnTo: m.selected}
	m.selected = 0
	return m, m.fetchBrowseCmd(path)
}

func (m Model) closeBrowse() Model {
	m.selected = m.browse.returnTo
	m.browse = browseState{}
	m.clampSelection()
	return m
}

func (m Model) fetchBrowseCmd(path string) tea.Cmd {
	fetch := m.browseFn
	ctx := m.ctx
	return func() tea.Msg {
		if fetch == nil {
			return browseMsg{path: path, err: errors.New("browsing is not available")}
		}
		ctx, cancel := context.WithTimeout(ctx, BrowseFetchTimeout)
		defer cancel()
		items, err := fetch(ctx, path)
		return browseMsg{path: path, items: items, err: err}
	}
}

func (m Model) applyBrowse(msg browseMsg) Model {
	if !m.browse.active || msg.path != m.browse.path {
		return m
	}
	m.browse.loading = false
	m.browse.items = msg.items
	m.browse.err = msg.err
	m.clampSelection()
	return m
}

func (m Model) openEdit(name string) (tea.Model, tea.Cmd) {
	input := textinput.New()
	input.Prompt = name + ": "
	input.CharLimit = 256
	input.Width = max(20, m.width-len(name)-10)
	value, _ := m.settings.Get(name)
	input.SetValue(value)
	cmd := input.Focus()
	m.edit = editState{active: true, name: name, input: input}
	return m, cmd
}

// handleEditInput feeds keystrokes to the setting editor. Enter saves, esc
// discards.
func (m Model) handleEditInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.savePrefs()
		return m, tea.Quit
	case tea.KeyEsc:
		m.edit = editState{}
		return m, nil
	case tea.KeyEnter:
		if m.edit.saving {
			return m, nil
		}
		m.edit.saving = true
		m.edit.err = nil
		return m, m.saveSettingCmd(m.edit.name, m.edit.input.Value())
	}
	if m.edit.saving {
		return m, nil
	}
	var cmd tea.Cmd
	m.edit.input, cmd = m.edit.input.Update(msg)
	return m, cmd
}

func (m Model) saveSettingCmd(name, value string) tea.Cmd {
	store := m.settings
	ctx := m.ctx
	return func() tea.Msg {
		return settingSavedMsg{name: name, err: store.Save(ctx, name, value)}
	}
}

func (m Model) applySettingSaved(msg settingSavedMsg) Model {
	if !m.edit.active || msg.name != m.edit.name {
		return m
	}
	if msg.err != nil {
		m.logger.Warn("save setting", "name", msg.name, "err", msg.err)
		m.edit.saving = false
		m.edit.err = msg.err
		return m
	}
	m.edit = editState{}
	m.syncStores()
	return m
}
