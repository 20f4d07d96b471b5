package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/five82/nevu/internal/config"
	"github.com/five82/nevu/internal/localstore"
	"github.com/five82/nevu/internal/logging"
	"github.com/five82/nevu/internal/plex"
	"github.com/five82/nevu/internal/prefs"
	"github.com/five82/nevu/internal/search"
	"github.com/five82/nevu/internal/session"
	"github.com/five82/nevu/internal/settings"
	"github.com/five82/nevu/internal/ui"
	"github.com/five82/nevu/internal/watchlist"
)

// Version is reported to the server as X-Plex-Version.
var Version = "0.1.0"

// ErrLoginRequired means there is no usable access token.
var ErrLoginRequired = errors.New("login required: run `nevu login`")

const loginTimeout = 5 * time.Minute

// pinPollInterval is how often Login checks whether the PIN was approved.
var pinPollInterval = 2 * time.Second

// Options configure the Nevu application.
type Options struct {
	ConfigPath string
	Verbose    bool
	// LogWriter sends logs here instead of the configured log file.
	LogWriter  io.Writer
	HTTPClient *http.Client
}

// Nevu owns every long-lived component. Build it with New and release it
// with Close.
type Nevu struct {
	Config    config.Config
	Logger    *log.Logger
	Storage   *localstore.Store
	Client    *plex.Client
	Session   *session.Store
	WatchList *watchlist.Store
	Settings  *settings.Store
	Search    *search.Controller

	logCloser io.Closer
	refresher *Refresher
	closeOnce sync.Once
}

// New loads config, opens local storage and wires the stores. No network
// calls are made.
func New(ctx context.Context, opts Options) (*Nevu, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logOpts := logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, Verbose: opts.Verbose}
	if opts.LogWriter != nil {
		logOpts.File = ""
		logOpts.Writer = opts.LogWriter
	}
	logger, closer, err := logging.New(logOpts)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	storage, err := localstore.Open(cfg.StoragePath())
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}

	clientID, err := ensureClientID(ctx, storage)
	if err != nil {
		_ = storage.Close()
		_ = closer.Close()
		return nil, err
	}

	n := &Nevu{Config: cfg, Logger: logger, Storage: storage, logCloser: closer}

	client, err := plex.NewClient(plex.Options{
		ServerURL:  cfg.ServerURL,
		AccountURL: cfg.AccountURL,
		ClientID:   clientID,
		Version:    Version,
		Token:      func() string { return n.Session.Token() },
		HTTPClient: opts.HTTPClient,
	})
	if err != nil {
		_ = storage.Close()
		_ = closer.Close()
		return nil, fmt.Errorf("init plex client: %w", err)
	}
	n.Client = client
	n.Session = session.New(client, logger)
	n.WatchList = watchlist.New(client, logger)
	n.Settings = settings.New(client, logger)
	n.Search = search.NewController(client, search.Options{Debounce: cfg.SearchDebounce, Logger: logger})

	token, _, err := storage.Get(ctx, localstore.KeyAccessToken)
	if err != nil {
		n.Close()
		return nil, fmt.Errorf("read access token: %w", err)
	}
	n.Session.SetToken(token)

	logger.Debug("nevu initialised", "server", client.ServerURL(), "client_id", clientID)
	return n, nil
}

func ensureClientID(ctx context.Context, storage *localstore.Store) (string, error) {
	id, ok, err := storage.Get(ctx, localstore.KeyClientIdentifier)
	if err != nil {
		return "", fmt.Errorf("read client identifier: %w", err)
	}
	if ok && strings.TrimSpace(id) != "" {
		return id, nil
	}
	id = uuid.NewString()
	if err := storage.Set(ctx, localstore.KeyClientIdentifier, id); err != nil {
		return "", fmt.Errorf("store client identifier: %w", err)
	}
	return id, nil
}

// RequireLogin returns ErrLoginRequired when no access token is stored.
func (n *Nevu) RequireLogin() error {
	if !n.Session.Snapshot().Value.Authenticated() {
		return ErrLoginRequired
	}
	return nil
}

// Start fetches the server, account and settings concurrently, then starts
// the watch list refresher, whose first run is the initial load. A failing
// fetch is logged and does not stop the others. An auth failure means the
// stored token is no longer valid and surfaces as ErrLoginRequired.
func (n *Nevu) Start(ctx context.Context) error {
	if err := n.RequireLogin(); err != nil {
		return err
	}

	var g errgroup.Group
	startup := func(name string, fetch func(context.Context) error) {
		g.Go(func() error {
			err := fetch(ctx)
			if err == nil {
				return nil
			}
			n.Logger.Warn("startup fetch failed", "what", name, "err", err)
			if plex.IsAuth(err) {
				return err
			}
			return nil
		})
	}
	startup("server", n.Session.FetchServer)
	startup("user", n.Session.FetchUser)
	startup("settings", n.Settings.Fetch)
	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w: %v", ErrLoginRequired, err)
	}

	n.refresher = StartRefresher(ctx, n.WatchList.Load, n.Config.RefreshInterval, n.Logger)
	return nil
}

// Login links this client to an account through the PIN flow. show receives
// the code and the approval URL to present to the user. Login returns once
// the PIN is approved and the token stored, or when it expires. The wait is
// capped by loginTimeout and by the PIN's own expiry.
func (n *Nevu) Login(ctx context.Context, show func(code, url string)) error {
	pin, err := n.Client.CreatePin(ctx)
	if err != nil {
		return fmt.Errorf("create pin: %w", err)
	}
	if show != nil {
		show(pin.Code, n.Client.AuthURL(pin))
	}

	ctx, cancel := context.WithTimeout(ctx, pinDeadline(pin, time.Now()))
	defer cancel()
	ticker := time.NewTicker(pinPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for pin approval: %w", ctx.Err())
		case <-ticker.C:
		}
		current, err := n.Client.CheckPin(ctx, pin.ID)
		if err != nil {
			if plex.KindOf(err) == plex.KindNotFound {
				return fmt.Errorf("pin expired: %w", err)
			}
			n.Logger.Debug("pin check failed", "err", err)
			continue
		}
		if current.Linked() {
			return n.SaveToken(ctx, current.AuthToken)
		}
	}
}

// pinDeadline is how long to wait for approval: loginTimeout, or less when
// the PIN expires sooner.
func pinDeadline(pin *plex.Pin, now time.Time) time.Duration {
	exp := pin.ParsedExpiresAt()
	if exp.IsZero() {
		return loginTimeout
	}
	return max(min(loginTimeout, exp.Sub(now)), 0)
}

// SaveToken persists token and makes it the session token.
func (n *Nevu) SaveToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token is empty")
	}
	if err := n.Storage.Set(ctx, localstore.KeyAccessToken, token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	n.Session.SetToken(token)
	return nil
}

// Logout forgets the stored token and the signed-in user.
func (n *Nevu) Logout(ctx context.Context) error {
	if err := n.Storage.Delete(ctx, localstore.KeyAccessToken); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	n.Session.SetToken("")
	n.Session.SetUser(nil)
	return nil
}

// Libraries fetches the library sections on demand.
func (n *Nevu) Libraries(ctx context.Context) ([]plex.Directory, error) {
	dirs, err := n.Client.FetchLibraries(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch libraries: %w", err)
	}
	return dirs, nil
}

// Browse lists the items under a category or library path.
func (n *Nevu) Browse(ctx context.Context, path string) ([]plex.Metadata, error) {
	items, err := n.Client.Browse(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("browse %s: %w", path, err)
	}
	return items, nil
}

// Close stops background work and releases storage and the log file.
func (n *Nevu) Close() {
	n.closeOnce.Do(func() {
		n.refresher.Stop()
		if n.Search != nil {
			n.Search.Close()
		}
		if err := n.Storage.Close(); err != nil {
			n.Logger.Warn("close storage", "err", err)
		}
		if n.logCloser != nil {
			_ = n.logCloser.Close()
		}
	})
}

// Run boots Nevu and blocks in the TUI until the user quits or ctx ends.
func Run(ctx context.Context, opts Options) error {
	n, err := New(ctx, opts)
	if err != nil {
		return err
	}
	defer n.Close()

	if err := n.Start(ctx); err != nil {
		return err
	}

	userPrefs := prefs.Load(ctx, n.Storage)
	return ui.Run(ui.Options{
		Context:   ctx,
		Session:   n.Session,
		WatchList: n.WatchList,
		Settings:  n.Settings,
		Search:    n.Search,
		Libraries: n.Libraries,
		Browse:    n.Browse,
		Prefs:     n.Storage,
		ThemeName: userPrefs.Theme,
		LastQuery: userPrefs.LastQuery,
		Logger:    n.Logger,
	})
}
