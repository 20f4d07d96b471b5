// Package prefs handles Nevu's UI preferences. They live as a TOML blob under
// one key of the local store so they travel with the rest of Nevu's state.
package prefs

import (
	"context"
	"fmt"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/nevu/internal/localstore"
)

// Prefs holds user preferences for the terminal UI.
type Prefs struct {
	Theme     string `toml:"theme"`
	LastQuery string `toml:"last_query"`
}

const defaultTheme = "Nightfox"

// KV is the subset of the local store prefs are kept in.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Default returns the preferences used before anything is saved.
func Default() Prefs {
	return Prefs{Theme: defaultTheme}
}

// Load reads preferences from kv. Missing, unreadable or invalid data yields
// defaults.
func Load(ctx context.Context, kv KV) Prefs {
	prefs := Default()
	if kv == nil {
		return prefs
	}

	raw, ok, err := kv.Get(ctx, localstore.KeyPrefs)
	if err != nil || !ok {
		return prefs
	}

	if err := toml.Unmarshal([]byte(raw), &prefs); err != nil {
		return Default()
	}

	if strings.TrimSpace(prefs.Theme) == "" {
		prefs.Theme = defaultTheme
	}
	return prefs
}

// Save writes preferences to kv.
func Save(ctx context.Context, kv KV, p Prefs) error {
	if kv == nil {
		return fmt.Errorf("save prefs: no store")
	}
	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	if err := kv.Set(ctx, localstore.KeyPrefs, string(bytes)); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}
