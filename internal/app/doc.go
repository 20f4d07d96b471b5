// Package app is Nevu's composition root.
//
// # Overview
//
// New builds every long-lived component from the config file: the logger,
// the local key/value store, the catalog client and the stores the UI reads.
// Nothing here is global. A Nevu value owns its components and Close
// releases them.
//
//	┌──────────────┐
//	│   New()      │ config, logging, localstore, plex client, stores
//	└──────┬───────┘
//	       │
//	┌──────▼───────┐
//	│   Start()    │ route guard, startup fetches, refresher
//	└──────┬───────┘
//	       │
//	       ├─────> Session.FetchServer()  ┐
//	       ├─────> Session.FetchUser()    ├ concurrent, independent
//	       ├─────> Settings.Fetch()       ┘
//	       └─────> StartRefresher(WatchList.Load)
//
// # Route guard
//
// Start refuses to run without a stored access token and returns
// ErrLoginRequired. An auth failure from any startup fetch means the token
// was revoked and also surfaces as ErrLoginRequired. Every other startup
// failure is logged and recorded in the owning store, and Nevu starts with
// stale or empty data.
//
// # Refresh
//
// The watch list refresher runs once when Start is called and then every
// refresh_seconds (default 60). Runs never overlap, a failed run does not
// stop the loop, and Close cancels the loop and waits for it to exit.
//
// # Login
//
// Login drives the plex.tv PIN flow: it creates a PIN, hands the code and
// approval URL to the caller, and polls every two seconds for up to five
// minutes. The approved token is written to the local store under
// accessToken. Logout deletes it.
package app
