// Package watchlist caches the user's in-progress items, keyed by item ID,
// and refreshes the cache from the media server.
package watchlist

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/five82/nevu/internal/logging"
	"github.com/five82/nevu/internal/plex"
	"github.com/five82/nevu/internal/state"
)

// Entry is the watch state of one item.
type Entry struct {
	ItemID           string        `json:"itemId" yaml:"item_id"`
	Title            string        `json:"title" yaml:"title"`
	GrandparentTitle string        `json:"grandparentTitle,omitempty" yaml:"grandparent_title,omitempty"`
	Type             string        `json:"type" yaml:"type"`
	ViewOffset       time.Duration `json:"viewOffset" yaml:"view_offset"`
	Duration         time.Duration `json:"duration" yaml:"duration"`
	LastViewedAt     time.Time     `json:"lastViewedAt" yaml:"last_viewed_at"`
}

// Progress returns the watched fraction in [0, 1].
func (e Entry) Progress() float64 {
	if e.Duration <= 0 {
		return 0
	}
	p := float64(e.ViewOffset) / float64(e.Duration)
	return min(max(p, 0), 1)
}

// Remaining returns the unwatched time, never negative.
func (e Entry) Remaining() time.Duration {
	return max(e.Duration-e.ViewOffset, 0)
}

// DisplayTitle prefixes episodes with their show title.
func (e Entry) DisplayTitle() string {
	if e.GrandparentTitle != "" {
		return e.GrandparentTitle + " · " + e.Title
	}
	return e.Title
}

// Cache maps item ID to entry.
type Cache map[string]Entry

// Fetcher is the subset of the catalog client the store uses.
type Fetcher interface {
	FetchWatchList(ctx context.Context) (map[string]plex.WatchItem, error)
}

// Snapshot is the cache plus load metadata.
type Snapshot = state.Snapshot[Cache]

// Store holds the watch-list cache. At most one Load is in flight at a
// time; concurrent callers share its result.
type Store struct {
	state   *state.Store[Cache]
	fetcher Fetcher
	logger  *log.Logger
	group   singleflight.Group
}

const loadKey = "watchlist"

// New creates an unloaded store.
func New(fetcher Fetcher, logger *log.Logger) *Store {
	return &Store{
		state:   state.New[Cache](nil, cloneCache),
		fetcher: fetcher,
		logger:  logging.OrDiscard(logger).With("store", "watchlist"),
	}
}

// Snapshot returns a copy of the cache.
func (s *Store) Snapshot() Snapshot {
	return s.state.Snapshot()
}

// Subscribe delivers every cache change to fn.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	return s.state.Subscribe(fn)
}

// Entries returns the cached entries, most recently viewed first.
func (s *Store) Entries() []Entry {
	return Sorted(s.state.Snapshot().Value)
}

// Load fetches the watch list and replaces the whole cache on success. On
// failure the cache is untouched and the error is returned. A call made
// while another Load is running waits for and returns that call's result
// instead of issuing a second request. Load does not return before the
// fetch it started has finished, so nothing touches the store afterwards.
func (s *Store) Load(ctx context.Context) error {
	_, err, shared := s.group.Do(loadKey, func() (any, error) {
		return nil, s.load(ctx)
	})
	if shared {
		s.logger.Debug("joined in-flight refresh")
	}
	return err
}

func (s *Store) load(ctx context.Context) error {
	if s.fetcher == nil {
		return fmt.Errorf("watchlist store has no fetcher")
	}
	items, err := s.fetcher.FetchWatchList(ctx)
	if err != nil {
		if ctx.Err() != nil {
			// Abandoned by the owner, not a failed refresh.
			s.logger.Debug("refresh cancelled", "err", err)
			return fmt.Errorf("load watch list: %w", err)
		}
		s.logger.Warn("refresh failed", "err", err)
		s.state.Fail(err)
		return fmt.Errorf("load watch list: %w", err)
	}
	cache := make(Cache, len(items))
	for id, item := range items {
		cache[id] = entryFromItem(id, item)
	}
	s.state.Replace(cache)
	s.logger.Debug("refreshed", "entries", len(cache))
	return nil
}

// Sorted returns the entries of c, most recently viewed first, ties broken
// by item ID.
func Sorted(c Cache) []Entry {
	entries := slices.Collect(maps.Values(c))
	slices.SortFunc(entries, func(a, b Entry) int {
		if byTime := b.LastViewedAt.Compare(a.LastViewedAt); byTime != 0 {
			return byTime
		}
		return cmp.Compare(a.ItemID, b.ItemID)
	})
	return entries
}

func entryFromItem(id string, item plex.WatchItem) Entry {
	e := Entry{
		ItemID:           id,
		Title:            item.Title,
		GrandparentTitle: item.GrandparentTitle,
		Type:             item.Type,
		ViewOffset:       time.Duration(item.ViewOffset) * time.Millisecond,
		Duration:         time.Duration(item.Duration) * time.Millisecond,
	}
	if item.LastViewedAt > 0 {
		e.LastViewedAt = time.Unix(item.LastViewedAt, 0)
	}
	return e
}

func cloneCache(c Cache) Cache {
	if c == nil {
		return nil
	}
	return maps.Clone(c)
}
