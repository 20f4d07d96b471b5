package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/five82/nevu/internal/logging"
	"github.com/five82/nevu/internal/plex"
	"github.com/five82/nevu/internal/prefs"
	"github.com/five82/nevu/internal/search"
	"github.com/five82/nevu/internal/session"
	"github.com/five82/nevu/internal/settings"
	"github.com/five82/nevu/internal/watchlist"
)

// View represents the current active view.
type View int

const (
	ViewHome View = iota
	ViewSearch
	ViewLibraries
	ViewSettings
)

var viewOrder = []View{ViewHome, ViewSearch, ViewLibraries, ViewSettings}

func (v View) String() string {
	switch v {
	case ViewSearch:
		return "Search"
	case ViewLibraries:
		return "Libraries"
	case ViewSettings:
		return "Settings"
	default:
		return "Home"
	}
}

// Options configures the UI. Any store may be nil; its view then renders
// empty.
type Options struct {
	Context   context.Context
	Session   *session.Store
	WatchList *watchlist.Store
	Settings  *settings.Store
	Search    *search.Controller
	Libraries func(context.Context) ([]plex.Directory, error)
	// Browse lists the items under a category or library path.
	Browse    func(context.Context, string) ([]plex.Metadata, error)
	Prefs     prefs.KV
	ThemeName string
	LastQuery string
	Logger    *log.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx       context.Context
	session   *session.Store
	watchList *watchlist.Store
	settings  *settings.Store
	search    *search.Controller
	libraries func(context.Context) ([]plex.Directory, error)
	browseFn  func(context.Context, string) ([]plex.Metadata, error)
	prefsKV   prefs.KV
	logger    *log.Logger

	// UI state
	theme       Theme
	keys        keyMap
	help        help.Model
	input       textinput.Model
	spinner     spinner.Model
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool
	selected    int
	now         time.Time

	// Store snapshots, refreshed on every storesChangedMsg
	sessionSnap  session.Snapshot
	watchSnap    watchlist.Snapshot
	settingsSnap settings.Snapshot
	resultsSnap  search.Snapshot

	// Libraries are fetched per visit, not kept in a store
	libs        []plex.Directory
	libsErr     error
	libsLoading bool

	browse browseState
	edit   editState
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	input := textinput.New()
	input.Placeholder = "Search movies and shows"
	input.Prompt = "/ "
	input.CharLimit = 120
	input.SetValue(opts.LastQuery)

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	m := Model{
		ctx:         ctx,
		session:     opts.Session,
		watchList:   opts.WatchList,
		settings:    opts.Settings,
		search:      opts.Search,
		libraries:   opts.Libraries,
		browseFn:    opts.Browse,
		prefsKV:     opts.Prefs,
		logger:      logging.OrDiscard(opts.Logger).With("component", "ui"),
		theme:       GetTheme(opts.ThemeName),
		keys:        DefaultKeyMap(),
		help:        help.New(),
		input:       input,
		spinner:     spin,
		currentView: ViewHome,
		now:         time.Now(),
	}
	m.syncStores()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(DefaultUIInterval)}
	if q := strings.TrimSpace(m.input.Value()); q != "" && m.search != nil {
		m.search.SetQuery(q)
		cmds = append(cmds, m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = max(10, msg.Width-6)
		m.ready = true
		return m, nil

	case tickMsg:
		m.now = time.Time(msg)
		m.syncStores()
		return m, tickCmd(DefaultUIInterval)

	case storesChangedMsg:
		m.syncStores()
		m.clampSelection()
		if m.resultsSnap.Value.Loading {
			return m, m.spinner.Tick
		}
		return m, nil

	case spinner.TickMsg:
		if !m.resultsSnap.Value.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case librariesMsg:
		m.libsLoading = false
		m.libs = msg.dirs
		m.libsErr = msg.err
		m.clampSelection()
		return m, nil

	case browseMsg:
		return m.applyBrowse(msg), nil

	case settingSavedMsg:
		return m.applySettingSaved(msg), nil

	case refreshDoneMsg:
		if msg.err != nil {
			m.logger.Debug("manual refresh failed", "err", msg.err)
		}
		m.syncStores()
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n\n")
	b.WriteString(m.renderContent())
	return b.String()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.edit.active {
		return m.handleEditInput(msg)
	}
	if m.currentView == ViewSearch && m.input.Focused() {
		return m.handleSearchInput(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.savePrefs()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		return m.switchView(m.offsetView(1))

	case key.Matches(msg, m.keys.ShiftTab):
		return m.switchView(m.offsetView(-1))

	case key.Matches(msg, m.keys.Escape):
		if m.browse.active {
			return m.closeBrowse(), nil
		}
		return m.switchView(ViewHome)

	case key.Matches(msg, m.keys.Confirm):
		return m.confirm()

	case key.Matches(msg, m.keys.Search):
		m, _ = m.switchViewModel(ViewSearch)
		cmd := m.input.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshCmd()

	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, m.keys.Down):
		if m.selected < m.rowCount()-1 {
			m.selected++
		}
	case key.Matches(msg, m.keys.Top):
		m.selected = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selected = max(0, m.rowCount()-1)
	}
	return m, nil
}

// handleSearchInput feeds keystrokes to the query box. Every edit goes to
// the search controller, which owns debouncing.
func (m Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.savePrefs()
		return m, tea.Quit
	case tea.KeyEsc, tea.KeyEnter:
		m.input.Blur()
		return m, nil
	case tea.KeyTab:
		m.input.Blur()
		return m.switchView(m.offsetView(1))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.search != nil {
		m.search.SetQuery(m.input.Value())
	}
	m.syncStores()
	m.selected = 0
	if m.resultsSnap.Value.Loading {
		return m, tea.Batch(cmd, m.spinner.Tick)
	}
	return m, cmd
}

func (m Model) offsetView(delta int) View {
	for i, v := range viewOrder {
		if v == m.currentView {
			return viewOrder[(i+delta+len(viewOrder))%len(viewOrder)]
		}
	}
	return ViewHome
}

func (m Model) switchView(v View) (tea.Model, tea.Cmd) {
	return m.switchViewModel(v)
}

func (m Model) switchViewModel(v View) (Model, tea.Cmd) {
	if v != m.currentView {
		m.selected = 0
		m.browse = browseState{}
	}
	m.currentView = v
	if v == ViewLibraries && m.libs == nil && !m.libsLoading {
		m.libsLoading = true
		return m, m.fetchLibrariesCmd()
	}
	return m, nil
}

func (m Model) rowCount() int {
	if m.browse.active {
		return len(m.browse.items)
	}
	switch m.currentView {
	case ViewHome:
		return len(m.watchSnap.Value)
	case ViewSearch:
		r := m.resultsSnap.Value
		return len(r.Directories) + len(r.Items)
	case ViewLibraries:
		return len(m.libs)
	case ViewSettings:
		return len(m.settingsSnap.Value)
	}
	return 0
}

func (m *Model) clampSelection() {
	if n := m.rowCount(); m.selected >= n {
		m.selected = max(0, n-1)
	}
}

// syncStores copies the latest snapshot of every store into the model.
func (m *Model) syncStores() {
	if m.session != nil {
		m.sessionSnap = m.session.Snapshot()
	}
	if m.watchList != nil {
		m.watchSnap = m.watchList.Snapshot()
	}
	if m.settings != nil {
		m.settingsSnap = m.settings.Snapshot()
	}
	if m.search != nil {
		m.resultsSnap = m.search.Snapshot()
	}
}

func (m Model) savePrefs() {
	if m.prefsKV == nil {
		return
	}
	p := prefs.Prefs{Theme: m.theme.Name, LastQuery: strings.TrimSpace(m.input.Value())}
	if err := prefs.Save(m.ctx, m.prefsKV, p); err != nil {
		m.logger.Warn("save prefs", "err", err)
	}
}

// Messages

type tickMsg time.Time

type storesChangedMsg struct{}

type librariesMsg struct {
	dirs []plex.Directory
	err  error
}

type refreshDoneMsg struct{ err error }

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) fetchLibrariesCmd() tea.Cmd {
	fetch := m.libraries
	ctx := m.ctx
	return func() tea.Msg {
		if fetch == nil {
			return librariesMsg{dirs: []plex.Directory{}}
		}
		ctx, cancel := context.WithTimeout(ctx, LibrariesFetchTimeout)
		defer cancel()
		dirs, err := fetch(ctx)
		if dirs == nil && err == nil {
			dirs = []plex.Directory{}
		}
		return librariesMsg{dirs: dirs, err: err}
	}
}

// refreshCmd reloads the watch list now, or whatever listing is showing.
func (m Model) refreshCmd() tea.Cmd {
	if m.browse.active {
		return m.fetchBrowseCmd(m.browse.path)
	}
	if m.currentView == ViewLibraries {
		return m.fetchLibrariesCmd()
	}
	store := m.watchList
	ctx := m.ctx
	return func() tea.Msg {
		if store == nil {
			return refreshDoneMsg{}
		}
		return refreshDoneMsg{err: store.Load(ctx)}
	}
}

// Run starts the Bubble Tea program. Store changes are forwarded to the
// program as storesChangedMsg; bursts collapse into one redraw.
func Run(opts Options) error {
	m := New(opts)
	programOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.Context != nil {
		programOpts = append(programOpts, tea.WithContext(opts.Context))
	}
	p := tea.NewProgram(m, programOpts...)

	changed := make(chan struct{}, 1)
	signal := func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}
	var unsubs []func()
	if opts.Session != nil {
		unsubs = append(unsubs, opts.Session.Subscribe(func(session.Snapshot) { signal() }))
	}
	if opts.WatchList != nil {
		unsubs = append(unsubs, opts.WatchList.Subscribe(func(watchlist.Snapshot) { signal() }))
	}
	if opts.Settings != nil {
		unsubs = append(unsubs, opts.Settings.Subscribe(func(settings.Snapshot) { signal() }))
	}
	if opts.Search != nil {
		unsubs = append(unsubs, opts.Search.Subscribe(func(search.Snapshot) { signal() }))
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-changed:
				p.Send(storesChangedMsg{})
			}
		}
	}()

	_, err := p.Run()
	close(done)
	for _, unsub := range unsubs {
		unsub()
	}
	return err
}
