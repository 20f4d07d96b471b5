package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config is Nevu's resolved configuration.
type Config struct {
	ServerURL       string
	AccountURL      string
	DataDir         string
	RefreshInterval time.Duration
	SearchDebounce  time.Duration
	LogLevel        string
	LogFile         string
}

const (
	defaultConfigPath       = "~/.config/nevu/config.toml"
	defaultServerURL        = "http://127.0.0.1:32400"
	defaultAccountURL       = "https://plex.tv"
	defaultDataDir          = "~/.local/share/nevu"
	defaultLogFile          = "~/.local/state/nevu/nevu.log"
	defaultLogLevel         = "info"
	defaultRefreshSeconds   = 60
	defaultSearchDebounceMS = 500
)

type fileConfig struct {
	ServerURL        string `toml:"server_url"`
	AccountURL       string `toml:"account_url"`
	DataDir          string `toml:"data_dir"`
	RefreshSeconds   int    `toml:"refresh_seconds"`
	SearchDebounceMS int    `toml:"search_debounce_ms"`
	Log              struct {
		Level string `toml:"level"`
		File  string `toml:"file"`
	} `toml:"log"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		ServerURL:       defaultServerURL,
		AccountURL:      defaultAccountURL,
		DataDir:         mustExpand(defaultDataDir),
		RefreshInterval: defaultRefreshSeconds * time.Second,
		SearchDebounce:  defaultSearchDebounceMS * time.Millisecond,
		LogLevel:        defaultLogLevel,
		LogFile:         mustExpand(defaultLogFile),
	}
}

// Load reads the config at path (or the default location), falling back to
// defaults when the file is missing and for every blank or non-positive field.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw fileConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.ServerURL); v != "" {
		cfg.ServerURL = v
	}
	if v := strings.TrimSpace(raw.AccountURL); v != "" {
		cfg.AccountURL = v
	}
	if v := strings.TrimSpace(raw.DataDir); v != "" {
		cfg.DataDir = mustExpand(v)
	}
	if raw.RefreshSeconds > 0 {
		cfg.RefreshInterval = time.Duration(raw.RefreshSeconds) * time.Second
	}
	if raw.SearchDebounceMS > 0 {
		cfg.SearchDebounce = time.Duration(raw.SearchDebounceMS) * time.Millisecond
	}
	if v := strings.TrimSpace(raw.Log.Level); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(raw.Log.File); v != "" {
		cfg.LogFile = mustExpand(v)
	}

	return cfg, nil
}

// StoragePath returns the local key/value database path.
func (c Config) StoragePath() string {
	if strings.TrimSpace(c.DataDir) == "" {
		return filepath.Join(mustExpand(defaultDataDir), "nevu.db")
	}
	return filepath.Join(c.DataDir, "nevu.db")
}

// DefaultPath returns the expanded default config file location.
func DefaultPath() string {
	return mustExpand(defaultConfigPath)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
