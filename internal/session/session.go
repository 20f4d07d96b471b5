// Package session holds the authenticated user, the selected media server
// and the access token for the running client.
package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/five82/nevu/internal/logging"
	"github.com/five82/nevu/internal/plex"
	"github.com/five82/nevu/internal/state"
)

// Session is the user/server/token triple. A nil pointer or empty token
// means the field is absent.
type Session struct {
	User   *plex.User
	Server *plex.Server
	Token  string
}

// Authenticated reports whether a non-blank token is present.
func (s Session) Authenticated() bool {
	return strings.TrimSpace(s.Token) != ""
}

// Fetcher is the subset of the catalog client the store uses.
type Fetcher interface {
	FetchServer(ctx context.Context) (*plex.Server, error)
	FetchUser(ctx context.Context) (*plex.User, error)
}

// Snapshot is the session plus load metadata. LastError and
// ConsecutiveFailures describe the media server only, so IsOffline means the
// server is unreachable.
type Snapshot = state.Snapshot[Session]

// Store owns the session. Each setter replaces exactly one field.
type Store struct {
	state   *state.Store[Session]
	fetcher Fetcher
	logger  *log.Logger
}

// New creates an empty session store. fetcher may be nil when only the
// setters are used.
func New(fetcher Fetcher, logger *log.Logger) *Store {
	return &Store{
		state:   state.New(Session{}, cloneSession),
		fetcher: fetcher,
		logger:  logging.OrDiscard(logger).With("store", "session"),
	}
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() Snapshot {
	return s.state.Snapshot()
}

// Subscribe delivers every session change to fn.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	return s.state.Subscribe(fn)
}

// Token returns the current access token. It is the catalog client's token
// source.
func (s *Store) Token() string {
	return s.state.Snapshot().Value.Token
}

// SetUser replaces the user. nil clears it.
func (s *Store) SetUser(user *plex.User) {
	s.state.Patch(func(cur Session) Session {
		cur.User = copyPtr(user)
		return cur
	})
}

// SetServer replaces the server and marks it reachable. nil clears it.
func (s *Store) SetServer(server *plex.Server) {
	s.state.Update(func(cur Session) Session {
		cur.Server = copyPtr(server)
		return cur
	})
}

// SetToken replaces the access token. An empty string clears it.
func (s *Store) SetToken(token string) {
	s.state.Patch(func(cur Session) Session {
		cur.Token = token
		return cur
	})
}

// FetchServer loads the server identity and calls SetServer on success. On
// failure the session is left as it was and the error is returned.
func (s *Store) FetchServer(ctx context.Context) error {
	if s.fetcher == nil {
		return fmt.Errorf("session store has no fetcher")
	}
	server, err := s.fetcher.FetchServer(ctx)
	if err != nil {
		s.logger.Warn("fetch server failed", "err", err)
		s.state.Fail(err)
		return fmt.Errorf("fetch server: %w", err)
	}
	s.SetServer(server)
	s.logger.Debug("server loaded", "name", server.FriendlyName)
	return nil
}

// FetchUser loads the signed-in account and calls SetUser on success. A
// failure leaves the session as it was and is returned but not recorded in
// the snapshot, which tracks server health.
func (s *Store) FetchUser(ctx context.Context) error {
	if s.fetcher == nil {
		return fmt.Errorf("session store has no fetcher")
	}
	user, err := s.fetcher.FetchUser(ctx)
	if err != nil {
		s.logger.Warn("fetch user failed", "err", err)
		return fmt.Errorf("fetch user: %w", err)
	}
	s.SetUser(user)
	s.logger.Debug("user loaded", "user", user.Username)
	return nil
}

func cloneSession(s Session) Session {
	return Session{
		User:   copyPtr(s.User),
		Server: copyPtr(s.Server),
		Token:  s.Token,
	}
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
