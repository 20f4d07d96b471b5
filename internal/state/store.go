package state

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time copy of a Store's value plus load metadata.
type Snapshot[T any] struct {
	Value               T
	Loaded              bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int
}

// IsOffline returns true when the remote has failed for multiple refreshes.
func (s Snapshot[T]) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store holds one state slice and notifies subscribers on every change.
// The zero value is not usable; construct with New.
type Store[T any] struct {
	// writeMu serializes mutations together with their notifications so
	// subscribers observe changes in the order they were applied.
	writeMu sync.Mutex

	mu       sync.RWMutex
	snapshot Snapshot[T]
	clone    func(T) T

	subMu  sync.Mutex
	subs   map[int]func(Snapshot[T])
	nextID int
}

// New builds a Store in the unloaded state holding initial. clone copies a
// value so callers never share mutable internals with the store; nil means
// values are copied by assignment only.
func New[T any](initial T, clone func(T) T) *Store[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &Store[T]{
		snapshot: Snapshot[T]{Value: clone(initial)},
		clone:    clone,
		subs:     make(map[int]func(Snapshot[T])),
	}
}

// Snapshot returns a copy of the current state.
func (s *Store[T]) Snapshot() Snapshot[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

// Replace swaps in value wholesale and marks the store loaded.
func (s *Store[T]) Replace(value T) {
	s.Update(func(T) T { return value })
}

// Update applies fn to a copy of the current value and stores the result as
// a single change. The store counts as loaded afterwards.
func (s *Store[T]) Update(fn func(T) T) {
	s.UpdateIf(func(cur T) (T, bool) { return fn(cur), true })
}

// Patch is Update without the health reset: LastError and
// ConsecutiveFailures are kept. Use it for local edits that say nothing
// about whether the remote is reachable.
func (s *Store[T]) Patch(fn func(T) T) {
	s.apply(func(cur T) (T, bool) { return fn(cur), true }, false)
}

// UpdateIf is Update for changes that may not apply. fn reports whether it
// produced a new value; when it returns false nothing is stored or
// notified. The check and the write happen atomically with respect to other
// mutations.
func (s *Store[T]) UpdateIf(fn func(T) (T, bool)) bool {
	return s.apply(fn, true)
}

func (s *Store[T]) apply(fn func(T) (T, bool), healthy bool) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	cur := s.clone(s.snapshot.Value)
	s.mu.RUnlock()

	next, ok := fn(cur)
	if !ok {
		return false
	}

	s.mu.Lock()
	s.snapshot.Value = s.clone(next)
	s.snapshot.Loaded = true
	s.snapshot.LastUpdated = time.Now()
	if healthy {
		s.snapshot.LastError = nil
		s.snapshot.ConsecutiveFailures = 0
	}
	snap := s.copyLocked()
	s.mu.Unlock()

	s.notify(snap)
	return true
}

// Fail records err while keeping the previous value.
func (s *Store[T]) Fail(err error) {
	if err == nil {
		return
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.snapshot.LastError = err
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures++
	snap := s.copyLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// Subscribe registers fn to receive every new snapshot. fn runs on the
// mutating goroutine and must not mutate the same store. The returned func
// removes the subscription.
func (s *Store[T]) Subscribe(fn func(Snapshot[T])) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store[T]) notify(snap Snapshot[T]) {
	s.subMu.Lock()
	fns := make([]func(Snapshot[T]), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		cp := snap
		cp.Value = s.clone(snap.Value)
		fn(cp)
	}
}

func (s *Store[T]) copyLocked() Snapshot[T] {
	snap := s.snapshot
	snap.Value = s.clone(s.snapshot.Value)
	return snap
}
