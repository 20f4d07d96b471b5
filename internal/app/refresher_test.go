package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/five82/nevu/internal/plex"
	"github.com/five82/nevu/internal/watchlist"
)

func TestRefresher_RunsImmediatelyAndOnEachTick(t *testing.T) {
	var calls atomic.Int32
	r := StartRefresher(context.Background(), func(context.Context) error {
		calls.Add(1)
		return nil
	}, 10*time.Millisecond, nil)

	waitUntil(t, func() bool { return calls.Load() >= 3 })
	r.Stop()

	after := calls.Load()
	time.Sleep(40 * time.Millisecond)
	if got := calls.Load(); got != after {
		t.Fatalf("calls after Stop = %d, want %d (no runs once stopped)", got, after)
	}
}

func TestRefresher_FirstRunIsImmediate(t *testing.T) {
	ran := make(chan struct{}, 1)
	r := StartRefresher(context.Background(), func(context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	}, time.Hour, nil)
	defer r.Stop()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatalf("refresher did not run before the first tick")
	}
}

func TestRefresher_SurvivesFailures(t *testing.T) {
	var calls atomic.Int32
	r := StartRefresher(context.Background(), func(context.Context) error {
		calls.Add(1)
		return errors.New("offline")
	}, 5*time.Millisecond, nil)
	defer r.Stop()

	waitUntil(t, func() bool { return calls.Load() >= 3 })
}

func TestRefresher_StopWaitsForRunningCall(t *testing.T) {
	started := make(chan struct{})
	var finished atomic.Bool
	r := StartRefresher(context.Background(), func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		finished.Store(true)
		return ctx.Err()
	}, time.Hour, nil)

	<-started
	r.Stop()
	if !finished.Load() {
		t.Fatalf("Stop returned before the running call finished")
	}
	r.Stop()
}

func TestRefresher_ParentCancelEndsLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	r := StartRefresher(ctx, func(context.Context) error {
		calls.Add(1)
		return nil
	}, 5*time.Millisecond, nil)

	waitUntil(t, func() bool { return calls.Load() >= 1 })
	cancel()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("refresher kept running after parent cancel")
	}
}

func TestRefresher_NilStop(t *testing.T) {
	var r *Refresher
	r.Stop()
}

// slowCancelFetcher blocks until cancelled, then takes a while to give up.
type slowCancelFetcher struct {
	started chan struct{}
	linger  time.Duration
}

func (f *slowCancelFetcher) FetchWatchList(ctx context.Context) (map[string]plex.WatchItem, error) {
	close(f.started)
	<-ctx.Done()
	time.Sleep(f.linger)
	return nil, ctx.Err()
}

func TestRefresher_StopLeavesWatchListUntouched(t *testing.T) {
	f := &slowCancelFetcher{started: make(chan struct{}), linger: 50 * time.Millisecond}
	store := watchlist.New(f, nil)
	r := StartRefresher(context.Background(), store.Load, time.Hour, nil)

	select {
	case <-f.started:
	case <-time.After(2 * time.Second):
		t.Fatalf("refresher never started a load")
	}
	r.Stop()
	before := store.Snapshot()

	time.Sleep(150 * time.Millisecond)
	after := store.Snapshot()
	if after.ConsecutiveFailures != before.ConsecutiveFailures || after.LastError != before.LastError ||
		!after.LastUpdated.Equal(before.LastUpdated) {
		t.Fatalf("store changed after Stop returned: before=%#v after=%#v", before, after)
	}
	if after.ConsecutiveFailures != 0 || after.LastError != nil {
		t.Fatalf("cancelled refresh recorded as failure: %#v", after)
	}
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}
