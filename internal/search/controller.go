package search

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/five82/nevu/internal/logging"
	"github.com/five82/nevu/internal/plex"
	"github.com/five82/nevu/internal/state"
)

// DefaultDebounce is how long the query must stay unchanged before a request
// is issued.
const DefaultDebounce = 500 * time.Millisecond

// Searcher is the subset of the catalog client the controller uses.
type Searcher interface {
	Search(ctx context.Context, query string) ([]plex.SearchResult, error)
}

// Results is the page state for the current query. Items and Directories are
// nil until a response for Query arrives.
type Results struct {
	Query       string
	Seq         uint64
	Items       []plex.Metadata
	Directories []plex.Directory
	Loading     bool
	Err         error
}

// Snapshot is the search results plus store metadata.
type Snapshot = state.Snapshot[Results]

// Options configures a Controller.
type Options struct {
	// Debounce overrides DefaultDebounce when positive.
	Debounce time.Duration
	Logger   *log.Logger
}

type timer interface {
	Stop() bool
}

func realAfterFunc(d time.Duration, fn func()) timer {
	return time.AfterFunc(d, fn)
}

// Controller turns a stream of query edits into at most one request per
// pause in typing and publishes the response for the latest query only.
type Controller struct {
	searcher  Searcher
	debounce  time.Duration
	logger    *log.Logger
	afterFunc func(time.Duration, func()) timer
	state     *state.Store[Results]

	base     context.Context
	stopBase context.CancelFunc
	wg       sync.WaitGroup

	mu       sync.Mutex
	query    string
	seq      uint64
	pending  timer
	inflight context.CancelFunc
	closed   bool
}

// NewController builds a controller with no query.
func NewController(searcher Searcher, opts Options) *Controller {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	base, stop := context.WithCancel(context.Background())
	return &Controller{
		searcher:  searcher,
		debounce:  debounce,
		logger:    logging.OrDiscard(opts.Logger).With("component", "search"),
		afterFunc: realAfterFunc,
		state:     state.New(Results{}, cloneResults),
		base:      base,
		stopBase:  stop,
	}
}

// Snapshot returns the current results.
func (c *Controller) Snapshot() Snapshot {
	return c.state.Snapshot()
}

// Subscribe delivers every results change to fn.
func (c *Controller) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	return c.state.Subscribe(fn)
}

// Query returns the query most recently passed to SetQuery.
func (c *Controller) Query() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// SetQuery records a new query. Results are cleared before SetQuery returns
// and any pending or in-flight request for an older query is abandoned. A
// blank query issues no request.
func (c *Controller) SetQuery(q string) {
	c.mu.Lock()
	if c.closed || q == c.query {
		c.mu.Unlock()
		return
	}
	c.query = q
	c.seq++
	seq := c.seq
	c.abandonLocked()

	term := strings.TrimSpace(q)
	if term != "" {
		c.pending = c.afterFunc(c.debounce, func() { c.fire(seq, term) })
	}
	c.mu.Unlock()

	c.state.UpdateIf(func(cur Results) (Results, bool) {
		if cur.Seq >= seq {
			return cur, false
		}
		return Results{Query: q, Seq: seq, Loading: term != ""}, true
	})
}

// Close abandons pending work and waits for any running request to return.
// Later SetQuery calls are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.abandonLocked()
	c.mu.Unlock()

	c.stopBase()
	c.wg.Wait()
}

func (c *Controller) abandonLocked() {
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
	if c.inflight != nil {
		c.inflight()
		c.inflight = nil
	}
}

func (c *Controller) fire(seq uint64, term string) {
	c.mu.Lock()
	if c.closed || seq != c.seq {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(c.base)
	c.pending = nil
	c.inflight = cancel
	c.wg.Add(1)
	c.mu.Unlock()

	defer c.wg.Done()
	defer cancel()

	c.logger.Debug("search", "query", term, "seq", seq)
	results, err := c.searcher.Search(ctx, term)

	applied := c.state.UpdateIf(func(cur Results) (Results, bool) {
		query, ok := c.current(seq)
		if !ok {
			return cur, false
		}
		next := Results{Query: query, Seq: seq}
		if err != nil {
			next.Items = []plex.Metadata{}
			next.Err = err
			return next, true
		}
		next.Items, next.Directories = Partition(results)
		return next, true
	})
	if n := countUnknown(results); n > 0 {
		c.logger.Debug("ignored unrecognised search hits", "query", term, "count", n)
	}
	switch {
	case !applied:
		c.logger.Debug("stale search response dropped", "query", term, "seq", seq)
	case err != nil:
		c.logger.Warn("search failed", "query", term, "err", err)
	}
}

// current reports the live query when seq is still the latest one.
func (c *Controller) current(seq uint64) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || seq != c.seq {
		return "", false
	}
	return c.query, true
}

// Partition splits search hits into playable items and categories. Only
// movies and shows are kept as items. A nil response yields empty items and
// absent directories.
func Partition(results []plex.SearchResult) ([]plex.Metadata, []plex.Directory) {
	items := make([]plex.Metadata, 0, len(results))
	if results == nil {
		return items, nil
	}
	dirs := make([]plex.Directory, 0)
	for _, r := range results {
		switch r.Kind {
		case plex.KindItem:
			if r.Item != nil && playable(r.Item.Type) {
				items = append(items, *r.Item)
			}
		case plex.KindDirectory:
			if r.Directory != nil {
				dirs = append(dirs, *r.Directory)
			}
		}
	}
	return items, dirs
}

func countUnknown(results []plex.SearchResult) int {
	n := 0
	for _, r := range results {
		if r.Kind == plex.KindUnknownResult {
			n++
		}
	}
	return n
}

func playable(kind string) bool {
	return kind == "movie" || kind == "show"
}

func cloneResults(r Results) Results {
	r.Items = slices.Clone(r.Items)
	r.Directories = slices.Clone(r.Directories)
	return r
}
