package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/nevu/internal/plex"
	"github.com/five82/nevu/internal/search"
	"github.com/five82/nevu/internal/settings"
)

type recordingBrowse struct {
	paths []string
	items []plex.Metadata
	err   error
}

func (r *recordingBrowse) fetch(_ context.Context, path string) ([]plex.Metadata, error) {
	r.paths = append(r.paths, path)
	return r.items, r.err
}

type memRemote struct {
	values  map[string]string
	saveErr error
}

func (r *memRemote) FetchSettings(context.Context) (map[string]string, error) {
	return r.values, nil
}

func (r *memRemote) SaveSetting(_ context.Context, name, value string) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.values[name] = value
	return nil
}

var enter = tea.KeyMsg{Type: tea.KeyEnter}

func TestModel_EnterOnCategoryListsItems(t *testing.T) {
	br := &recordingBrowse{items: []plex.Metadata{{RatingKey: "7", Title: "Airplane!", Type: "movie", Year: 1980}}}
	m := sized(t, New(Options{Browse: br.fetch}))
	m.currentView = ViewSearch
	m.resultsSnap.Value = search.Results{
		Query:       "comedy",
		Items:       []plex.Metadata{{RatingKey: "1", Title: "Heat", Type: "movie"}},
		Directories: []plex.Directory{{ID: 12, Tag: "Comedy", LibrarySectionID: 3, LibrarySectionTitle: "Films"}},
	}

	m, cmd := update(t, m, enter)
	if !m.browse.active || cmd == nil {
		t.Fatalf("browse active=%v cmd=%v, want a listing opened", m.browse.active, cmd)
	}
	if !strings.Contains(m.View(), "Films - Comedy") || !strings.Contains(m.View(), "Loading...") {
		t.Fatalf("view = %q, want category title while loading", m.View())
	}
	m, _ = update(t, m, cmd())
	if len(br.paths) != 1 || br.paths[0] != "/library/sections/3/genre/12" {
		t.Fatalf("browsed %v, want the category path", br.paths)
	}
	if !strings.Contains(m.View(), "Airplane! (1980)") {
		t.Fatalf("view = %q, want browsed items listed", m.View())
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.browse.active || m.currentView != ViewSearch {
		t.Fatalf("esc left browse=%v view=%v, want back on search", m.browse.active, m.currentView)
	}
}

func TestModel_EnterOnItemDoesNothing(t *testing.T) {
	br := &recordingBrowse{}
	m := sized(t, New(Options{Browse: br.fetch}))
	m.currentView = ViewSearch
	m.resultsSnap.Value = search.Results{Query: "heat", Items: []plex.Metadata{{RatingKey: "1", Title: "Heat", Type: "movie"}}}

	m, cmd := update(t, m, enter)
	if m.browse.active || cmd != nil || len(br.paths) != 0 {
		t.Fatalf("enter on an item opened a listing")
	}
}

func TestModel_EnterOnLibraryListsSection(t *testing.T) {
	br := &recordingBrowse{err: errors.New("offline")}
	m := sized(t, New(Options{Browse: br.fetch}))
	m.currentView = ViewLibraries
	m.libs = []plex.Directory{{Key: "1", Title: "Movies"}, {Key: "2", Title: "Shows"}}
	m.selected = 1

	m, cmd := update(t, m, enter)
	m, _ = update(t, m, cmd())
	if len(br.paths) != 1 || br.paths[0] != "/library/sections/2/all" {
		t.Fatalf("browsed %v, want section 2", br.paths)
	}
	if !strings.Contains(m.View(), "Could not load: offline") {
		t.Fatalf("view = %q, want the browse error", m.View())
	}

	// A late response for a closed listing is ignored.
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	m, _ = update(t, m, browseMsg{path: "/library/sections/2/all"})
	if m.browse.active || m.selected != 1 {
		t.Fatalf("browse=%v selected=%d, want closed with selection restored", m.browse.active, m.selected)
	}
}

func newSettingsModel(t *testing.T, remote *memRemote) (Model, *settings.Store) {
	t.Helper()
	store := settings.New(remote, nil)
	if err := store.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	m := sized(t, New(Options{Settings: store}))
	m.currentView = ViewSettings
	return m, store
}

func TestModel_EditSettingSaves(t *testing.T) {
	remote := &memRemote{values: map[string]string{"autoplay": "true", "quality": "1080p"}}
	m, store := newSettingsModel(t, remote)

	m, _ = update(t, m, enter)
	if !m.edit.active || m.edit.name != "autoplay" || m.edit.input.Value() != "true" {
		t.Fatalf("edit = %+v, want autoplay editor prefilled", m.edit)
	}
	for range "true" {
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	}
	// Global bindings stay off while editing.
	m, _ = update(t, m, runes("false"))
	if m.edit.input.Value() != "false" || m.theme.Name != "Nightfox" {
		t.Fatalf("input = %q, want typed value", m.edit.input.Value())
	}

	m, cmd := update(t, m, enter)
	if !m.edit.saving || cmd == nil {
		t.Fatalf("enter did not start a save")
	}
	m, _ = update(t, m, cmd())
	if m.edit.active {
		t.Fatalf("editor still open after a successful save")
	}
	if remote.values["autoplay"] != "false" {
		t.Fatalf("remote autoplay = %q, want false", remote.values["autoplay"])
	}
	if v, _ := store.Get("autoplay"); v != "false" {
		t.Fatalf("store autoplay = %q, want false", v)
	}
	if !strings.Contains(m.View(), "false") {
		t.Fatalf("view = %q, want the saved value", m.View())
	}
}

func TestModel_EditSettingFailureKeepsEditor(t *testing.T) {
	remote := &memRemote{values: map[string]string{"autoplay": "true"}, saveErr: errors.New("denied")}
	m, store := newSettingsModel(t, remote)

	m, _ = update(t, m, enter)
	m, cmd := update(t, m, enter)
	m, _ = update(t, m, cmd())
	if !m.edit.active || m.edit.saving || m.edit.err == nil {
		t.Fatalf("edit = %+v, want editor open with the error", m.edit)
	}
	if view := m.View(); !strings.Contains(view, "Save failed") || !strings.Contains(view, "denied") {
		t.Fatalf("view = %q, want the save error", m.View())
	}
	if v, _ := store.Get("autoplay"); v != "true" {
		t.Fatalf("store autoplay = %q, want unchanged", v)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.edit.active || m.currentView != ViewSettings {
		t.Fatalf("esc did not cancel the edit")
	}
}
