package ui

import (
	"fmt"
	"strings"

	"github.com/five82/nevu/internal/plex"
	"github.com/five82/nevu/internal/watchlist"
)

// renderContent renders the main content area based on current view.
func (m Model) renderContent() string {
	if m.browse.active {
		return m.renderBrowse()
	}
	switch m.currentView {
	case ViewHome:
		return m.renderHome()
	case ViewSearch:
		return m.renderSearch()
	case ViewLibraries:
		return m.renderLibraries()
	case ViewSettings:
		return m.renderSettings()
	default:
		return ""
	}
}

func (m Model) renderHome() string {
	styles := m.theme.Styles()
	snap := m.watchSnap

	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Continue Watching"))
	b.WriteString("\n")

	if !snap.Loaded {
		if snap.LastError != nil {
			b.WriteString(styles.DangerText.Render("Could not load: " + snap.LastError.Error()))
		} else {
			b.WriteString(styles.MutedText.Render("Loading..."))
		}
		return b.String()
	}

	entries := watchlist.Sorted(snap.Value)
	if len(entries) == 0 {
		b.WriteString(styles.MutedText.Render("Nothing in progress."))
		return b.String()
	}

	titleWidth := max(20, m.width-20)
	showBar := m.width >= LayoutProgressBarWidth
	for i, e := range entries {
		line := padRight(truncate(e.DisplayTitle(), titleWidth), titleWidth)
		pct := fmt.Sprintf("%3d%%", int(e.Progress()*100))
		if showBar {
			pct = progressBar(e.Progress(), 10) + " " + pct
		}
		b.WriteString(m.renderRow(i, line+"  "+pct))
		b.WriteString("\n")
	}
	if snap.LastError != nil {
		b.WriteString(styles.WarningText.Render("Last refresh failed: " + snap.LastError.Error()))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderSearch() string {
	styles := m.theme.Styles()
	r := m.resultsSnap.Value

	var b strings.Builder
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch {
	case strings.TrimSpace(r.Query) == "":
		b.WriteString(styles.MutedText.Render("Press / and type to search"))
		return b.String()
	case r.Loading && r.Items == nil:
		b.WriteString(m.spinner.View() + " " + styles.MutedText.Render("Searching..."))
		return b.String()
	case r.Err != nil:
		b.WriteString(styles.DangerText.Render("Search failed: " + r.Err.Error()))
		return b.String()
	}

	b.WriteString(styles.Text.Render("Results for "))
	b.WriteString(styles.Text.Bold(true).Render(r.Query))
	b.WriteString("\n")

	row := 0
	if len(r.Directories) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.AccentText.Render("Categories"))
		b.WriteString("\n")
		for _, d := range r.Directories {
			b.WriteString(m.renderRow(row, d.Label()))
			b.WriteString("\n")
			row++
		}
	}

	b.WriteString("\n")
	if len(r.Items) == 0 {
		b.WriteString(styles.MutedText.Render("No movies or shows found"))
		return b.String()
	}
	b.WriteString(styles.AccentText.Render("Movies & Shows"))
	b.WriteString("\n")
	for _, item := range r.Items {
		b.WriteString(m.renderRow(row, formatItem(item)))
		b.WriteString("\n")
		row++
	}
	return b.String()
}

func (m Model) renderLibraries() string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Libraries"))
	b.WriteString("\n")

	switch {
	case m.libsLoading:
		b.WriteString(styles.MutedText.Render("Loading..."))
	case m.libsErr != nil:
		b.WriteString(styles.DangerText.Render("Could not load libraries: " + m.libsErr.Error()))
	case len(m.libs) == 0:
		b.WriteString(styles.MutedText.Render("No libraries."))
	default:
		for i, d := range m.libs {
			b.WriteString(m.renderRow(i, padRight(d.Title, 30)+styles.FaintText.Render(d.Type)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) renderSettings() string {
	styles := m.theme.Styles()
	snap := m.settingsSnap

	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Settings"))
	b.WriteString("\n")

	if !snap.Loaded {
		if snap.LastError != nil {
			b.WriteString(styles.DangerText.Render("Could not load settings: " + snap.LastError.Error()))
		} else {
			b.WriteString(styles.MutedText.Render("Loading..."))
		}
		return b.String()
	}
	names := snap.Value.Names()
	if len(names) == 0 {
		b.WriteString(styles.MutedText.Render("No settings."))
		return b.String()
	}
	for i, name := range names {
		b.WriteString(m.renderRow(i, padRight(name, 32)+snap.Value[name]))
		b.WriteString("\n")
	}
	if m.edit.active {
		b.WriteString("\n")
		b.WriteString(m.renderEditor())
	}
	return b.String()
}

func (m Model) renderEditor() string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(styles.AccentText.Render("Edit " + m.edit.name))
	b.WriteString("\n")
	b.WriteString(m.edit.input.View())
	switch {
	case m.edit.saving:
		b.WriteString("\n" + styles.MutedText.Render("Saving..."))
	case m.edit.err != nil:
		b.WriteString("\n" + styles.DangerText.Render("Save failed: "+m.edit.err.Error()))
	}
	return styles.Panel.Render(b.String())
}

func (m Model) renderBrowse() string {
	styles := m.theme.Styles()
	br := m.browse

	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render(br.title))
	b.WriteString("\n")
	switch {
	case br.loading:
		b.WriteString(styles.MutedText.Render("Loading..."))
	case br.err != nil:
		b.WriteString(styles.DangerText.Render("Could not load: " + br.err.Error()))
	case len(br.items) == 0:
		b.WriteString(styles.MutedText.Render("Nothing here."))
	default:
		for i, item := range br.items {
			b.WriteString(m.renderRow(i, formatItem(item)))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("esc to go back"))
	return b.String()
}

func (m Model) renderRow(i int, text string) string {
	if i == m.selected {
		return m.theme.Styles().Selected.Render("> " + text)
	}
	return "  " + text
}

func formatItem(item plex.Metadata) string {
	title := item.Title
	if item.Year > 0 {
		title = fmt.Sprintf("%s (%d)", title, item.Year)
	}
	return padRight(truncate(title, 50), 50) + " " + item.Type
}

func progressBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	filled = min(max(filled, 0), width)
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}
