// Package state provides the observable store primitive shared by the Nevu
// session, watch-list and settings stores.
//
// # Overview
//
// Store[T] holds one state slice. Producers (startup fetches, the refresh
// loop, settings edits) replace it; consumers (the TUI, CLI commands) read
// snapshots or subscribe to changes.
//
//	Producer:                      Consumer:
//	┌────────────────┐            ┌──────────────────┐
//	│ client.Fetch() │            │ store.Snapshot() │
//	│      ↓         │            │        or        │
//	│ store.Replace()│───────────→│ Subscribe(fn)    │
//	│ store.Fail()   │  (mutex)   │      ↓           │
//	└────────────────┘            │  render          │
//	                              └──────────────────┘
//
// # Update Semantics
//
//	// Success: replace the whole value
//	store.Replace(v)
//	→ Value = v, Loaded = true, LastError = nil, ConsecutiveFailures = 0
//
//	// Failure: keep old data, record the error
//	store.Fail(err)
//	→ Value unchanged, LastError = err, ConsecutiveFailures++
//
// A store is either unloaded (never replaced) or loaded. There is no partial
// state: each Replace or Update is one change, delivered to subscribers as
// one snapshot.
//
// # Concurrency Model
//
// Reads take a read lock and return defensive copies made with the clone
// function passed to New. Mutations and their notifications are serialized
// by a separate write mutex, so every subscriber sees changes in the order
// they happened. Subscribers run on the mutating goroutine; they must not
// mutate the store they are subscribed to.
package state
