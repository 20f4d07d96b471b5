// Package settings holds the user's account settings, fetched wholesale at
// startup and edited one key at a time.
package settings

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/five82/nevu/internal/logging"
	"github.com/five82/nevu/internal/state"
)

// Settings maps setting name to value.
type Settings map[string]string

// Names returns the setting names in sorted order.
func (s Settings) Names() []string {
	return slices.Sorted(maps.Keys(s))
}

// Remote is the subset of the catalog client the store uses.
type Remote interface {
	FetchSettings(ctx context.Context) (map[string]string, error)
	SaveSetting(ctx context.Context, name, value string) error
}

// Snapshot is the settings plus load metadata.
type Snapshot = state.Snapshot[Settings]

// Store holds the user settings.
type Store struct {
	state  *state.Store[Settings]
	remote Remote
	logger *log.Logger
}

// New creates an unloaded store.
func New(remote Remote, logger *log.Logger) *Store {
	return &Store{
		state:  state.New[Settings](nil, cloneSettings),
		remote: remote,
		logger: logging.OrDiscard(logger).With("store", "settings"),
	}
}

// Snapshot returns a copy of the settings.
func (s *Store) Snapshot() Snapshot {
	return s.state.Snapshot()
}

// Subscribe delivers every settings change to fn.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	return s.state.Subscribe(fn)
}

// Get looks up one setting in the current snapshot.
func (s *Store) Get(name string) (string, bool) {
	v, ok := s.state.Snapshot().Value[name]
	return v, ok
}

// Fetch replaces all settings with the remote copy. On failure the current
// settings are kept.
func (s *Store) Fetch(ctx context.Context) error {
	if s.remote == nil {
		return fmt.Errorf("settings store has no remote")
	}
	remote, err := s.remote.FetchSettings(ctx)
	if err != nil {
		s.logger.Warn("fetch failed", "err", err)
		s.state.Fail(err)
		return fmt.Errorf("fetch settings: %w", err)
	}
	next := Settings(remote)
	if next == nil {
		next = Settings{}
	}
	s.state.Replace(next)
	s.logger.Debug("settings loaded", "count", len(next))
	return nil
}

// Save writes one setting remotely, then replaces the local settings with a
// copy carrying the new value. Nothing changes locally if the write fails.
func (s *Store) Save(ctx context.Context, name, value string) error {
	if s.remote == nil {
		return fmt.Errorf("settings store has no remote")
	}
	if err := s.remote.SaveSetting(ctx, name, value); err != nil {
		s.logger.Warn("save failed", "name", name, "err", err)
		return fmt.Errorf("save setting %q: %w", name, err)
	}
	s.state.Update(func(cur Settings) Settings {
		if cur == nil {
			cur = Settings{}
		}
		cur[name] = value
		return cur
	})
	return nil
}

func cloneSettings(s Settings) Settings {
	if s == nil {
		return nil
	}
	return maps.Clone(s)
}
