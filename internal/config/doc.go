// Package config loads Nevu's TOML configuration.
//
// # Resolution
//
// Load reads the path it is given, or ~/.config/nevu/config.toml when the
// path is blank. A missing file is not an error: every field has a default
// so Nevu runs against a local server with no setup.
//
// # Fields
//
//	server_url = "http://127.0.0.1:32400"   # media server base URL
//	account_url = "https://plex.tv"         # account API (user, settings, PIN login)
//	data_dir = "~/.local/share/nevu"        # holds nevu.db
//	refresh_seconds = 60                    # watch list refresh interval
//	search_debounce_ms = 500                # pause before a search is sent
//
//	[log]
//	level = "info"
//	file = "~/.local/state/nevu/nevu.log"
//
// Blank strings and non-positive numbers fall back to defaults. Paths
// starting with ~ are expanded against the home directory and made absolute.
//
// # Errors
//
// Load fails when the home directory cannot be resolved, the file exists but
// cannot be read, or the TOML does not parse.
package config
