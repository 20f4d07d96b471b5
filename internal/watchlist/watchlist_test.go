package watchlist

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/five82/nevu/internal/plex"
)

type fakeFetcher struct {
	mu    sync.Mutex
	items map[string]plex.WatchItem
	err   error
	calls atomic.Int32
	gate  chan struct{} // when non-nil, fetches block until it is closed
}

func (f *fakeFetcher) FetchWatchList(ctx context.Context) (map[string]plex.WatchItem, error) {
	f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items, f.err
}

func (f *fakeFetcher) set(items map[string]plex.WatchItem, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items, f.err = items, err
}

func TestStore_LoadReplacesWholeCache(t *testing.T) {
	f := &fakeFetcher{}
	f.set(map[string]plex.WatchItem{
		"1": {RatingKey: "1", Title: "Heat", ViewOffset: 30_000, Duration: 120_000, LastViewedAt: 1_700_000_000},
		"2": {RatingKey: "2", Title: "Alien"},
	}, nil)
	s := New(f, nil)

	var notified []Snapshot
	s.Subscribe(func(snap Snapshot) { notified = append(notified, snap) })

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	snap := s.Snapshot()
	if !snap.Loaded || len(snap.Value) != 2 {
		t.Fatalf("snapshot = %#v, want 2 loaded entries", snap)
	}
	heat := snap.Value["1"]
	if heat.ViewOffset != 30*time.Second || heat.Duration != 2*time.Minute || heat.LastViewedAt.Unix() != 1_700_000_000 {
		t.Fatalf("entry = %#v, want converted durations and time", heat)
	}

	f.set(map[string]plex.WatchItem{"3": {RatingKey: "3", Title: "Up"}}, nil)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got := s.Snapshot().Value; len(got) != 1 || got["3"].Title != "Up" {
		t.Fatalf("cache = %#v, want only item 3 after second load", got)
	}
	if len(notified) != 2 {
		t.Fatalf("notifications = %d, want exactly one per load", len(notified))
	}
	if len(notified[0].Value) != 2 || len(notified[1].Value) != 1 {
		t.Fatalf("notified sizes = %d,%d, want whole-cache snapshots 2,1", len(notified[0].Value), len(notified[1].Value))
	}
}

func TestStore_LoadFailureLeavesCacheUntouched(t *testing.T) {
	f := &fakeFetcher{}
	f.set(map[string]plex.WatchItem{"1": {RatingKey: "1", Title: "Heat"}}, nil)
	s := New(f, nil)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	before := s.Snapshot().Value

	f.set(nil, &plex.Error{Kind: plex.KindNetwork, Err: errors.New("down")})
	err := s.Load(context.Background())
	if plex.KindOf(err) != plex.KindNetwork {
		t.Fatalf("Load error = %v, want network kind", err)
	}
	snap := s.Snapshot()
	if !reflect.DeepEqual(snap.Value, before) {
		t.Fatalf("cache = %#v, want unchanged %#v", snap.Value, before)
	}
	if snap.LastError == nil || snap.ConsecutiveFailures != 1 {
		t.Fatalf("snapshot = %#v, want recorded failure", snap)
	}
}

func TestStore_LoadFailureBeforeFirstSuccessStaysUnloaded(t *testing.T) {
	f := &fakeFetcher{}
	f.set(nil, errors.New("nope"))
	s := New(f, nil)
	if err := s.Load(context.Background()); err == nil {
		t.Fatalf("Load returned nil error, want failure")
	}
	if snap := s.Snapshot(); snap.Loaded || snap.Value != nil {
		t.Fatalf("snapshot = %#v, want unloaded", snap)
	}
}

func TestStore_ConcurrentLoadsShareOneFetch(t *testing.T) {
	f := &fakeFetcher{gate: make(chan struct{})}
	f.set(map[string]plex.WatchItem{"1": {RatingKey: "1"}}, nil)
	s := New(f, nil)

	const callers = 5
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		go func() { errs <- s.Load(context.Background()) }()
	}

	// Wait until the first fetch is in flight, give the rest time to join.
	deadline := time.Now().Add(2 * time.Second)
	for f.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(f.gate)

	for i := 0; i < callers; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
	}
	if got := f.calls.Load(); got != 1 {
		t.Fatalf("fetch calls = %d, want 1 for overlapping loads", got)
	}
}

func TestStore_LoadHonoursCallerCancellation(t *testing.T) {
	f := &fakeFetcher{gate: make(chan struct{})}
	s := New(f, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Load(ctx) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Load error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Load did not return after cancellation")
	}
	close(f.gate)

	snap := s.Snapshot()
	if snap.LastError != nil || snap.ConsecutiveFailures != 0 {
		t.Fatalf("snapshot = %#v, want a cancelled load not counted as a failure", snap)
	}
}

func TestSorted_MostRecentFirst(t *testing.T) {
	now := time.Now()
	c := Cache{
		"a": {ItemID: "a", LastViewedAt: now.Add(-time.Hour)},
		"b": {ItemID: "b", LastViewedAt: now},
		"c": {ItemID: "c", LastViewedAt: now.Add(-time.Hour)},
	}
	got := Sorted(c)
	ids := []string{got[0].ItemID, got[1].ItemID, got[2].ItemID}
	if !reflect.DeepEqual(ids, []string{"b", "a", "c"}) {
		t.Fatalf("Sorted ids = %v, want [b a c]", ids)
	}
}

func TestEntry_ProgressAndRemaining(t *testing.T) {
	e := Entry{ViewOffset: 30 * time.Second, Duration: 2 * time.Minute}
	if got := e.Progress(); got != 0.25 {
		t.Fatalf("Progress = %v, want 0.25", got)
	}
	if got := e.Remaining(); got != 90*time.Second {
		t.Fatalf("Remaining = %v, want 90s", got)
	}
	over := Entry{ViewOffset: 3 * time.Minute, Duration: 2 * time.Minute}
	if over.Progress() != 1 || over.Remaining() != 0 {
		t.Fatalf("overrun entry progress=%v remaining=%v, want 1/0", over.Progress(), over.Remaining())
	}
	if (Entry{}).Progress() != 0 {
		t.Fatalf("zero-duration Progress != 0")
	}
	if got := (Entry{Title: "Pilot", GrandparentTitle: "Lost"}).DisplayTitle(); got != "Lost · Pilot" {
		t.Fatalf("DisplayTitle = %q", got)
	}
}
