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

// Config is the resolved onair configuration.
type Config struct {
	APIBaseURL       string
	PollInterval     time.Duration
	RequestTimeout   time.Duration
	AssumeOnline     bool
	IgnoreInterfaces []string
	Store            StoreConfig
	Log              LogConfig
}

// StoreConfig selects and tunes the history backend.
type StoreConfig struct {
	Driver       string
	Path         string
	UniqueTracks bool
	WatchRefresh time.Duration
}

// LogConfig controls the zerolog output.
type LogConfig struct {
	Level string
	File  string
}

const (
	defaultConfigPath     = "~/.config/onair/config.toml"
	defaultDataDir        = "~/.local/share/onair"
	defaultLogFile        = "~/.local/state/onair/onair.log"
	defaultAPIBaseURL     = "https://webradio.io/api/"
	defaultDriver         = "sqlite"
	defaultLogLevel       = "info"
	defaultPollInterval   = 20 * time.Second
	defaultRequestTimeout = 10 * time.Second
	defaultWatchRefresh   = 5 * time.Second
	minPollInterval       = time.Second
)

var defaultIgnoreInterfaces = []string{"docker0", "virbr0", "lxcbr0"}

// rawConfig mirrors the TOML file; durations are strings like "20s".
type rawConfig struct {
	APIBaseURL       string   `toml:"api_base_url"`
	PollInterval     string   `toml:"poll_interval"`
	RequestTimeout   string   `toml:"request_timeout"`
	AssumeOnline     bool     `toml:"assume_online"`
	IgnoreInterfaces []string `toml:"ignore_interfaces"`
	Store            struct {
		Driver       string `toml:"driver"`
		Path         string `toml:"path"`
		UniqueTracks bool   `toml:"unique_tracks"`
		WatchRefresh string `toml:"watch_refresh"`
	} `toml:"store"`
	Log struct {
		Level string `toml:"level"`
		File  string `toml:"file"`
	} `toml:"log"`
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return defaultConfigPath
}

// Default returns the configuration used when no file exists.
func Default() Config {
	cfg := Config{
		APIBaseURL:       defaultAPIBaseURL,
		PollInterval:     defaultPollInterval,
		RequestTimeout:   defaultRequestTimeout,
		IgnoreInterfaces: append([]string(nil), defaultIgnoreInterfaces...),
		Store: StoreConfig{
			Driver:       defaultDriver,
			WatchRefresh: defaultWatchRefresh,
		},
		Log: LogConfig{
			Level: defaultLogLevel,
			File:  mustExpand(defaultLogFile),
		},
	}
	cfg.Store.Path = defaultStorePath(cfg.Store.Driver)
	return cfg
}

// Load locates and parses the onair config, falling back to defaults when missing.
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

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIBaseURL); v != "" {
		cfg.APIBaseURL = v
	}
	if cfg.PollInterval, err = parseDuration("poll_interval", raw.PollInterval, cfg.PollInterval); err != nil {
		return Config{}, err
	}
	if cfg.RequestTimeout, err = parseDuration("request_timeout", raw.RequestTimeout, cfg.RequestTimeout); err != nil {
		return Config{}, err
	}
	cfg.AssumeOnline = raw.AssumeOnline
	if raw.IgnoreInterfaces != nil {
		cfg.IgnoreInterfaces = trimAll(raw.IgnoreInterfaces)
	}

	if v := strings.ToLower(strings.TrimSpace(raw.Store.Driver)); v != "" {
		cfg.Store.Driver = v
	}
	cfg.Store.Path = defaultStorePath(cfg.Store.Driver)
	if v := strings.TrimSpace(raw.Store.Path); v != "" {
		cfg.Store.Path = mustExpand(v)
	}
	cfg.Store.UniqueTracks = raw.Store.UniqueTracks
	if cfg.Store.WatchRefresh, err = parseDuration("store.watch_refresh", raw.Store.WatchRefresh, cfg.Store.WatchRefresh); err != nil {
		return Config{}, err
	}

	if v := strings.TrimSpace(raw.Log.Level); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.Log.File); v != "" {
		cfg.Log.File = mustExpand(v)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted away.
func (c Config) Validate() error {
	if c.PollInterval < minPollInterval {
		return fmt.Errorf("poll_interval must be at least %s, got %s", minPollInterval, c.PollInterval)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.Store.WatchRefresh <= 0 {
		return fmt.Errorf("store.watch_refresh must be positive, got %s", c.Store.WatchRefresh)
	}
	return nil
}

func defaultStorePath(driver string) string {
	name := "history.db"
	if driver == "bolt" {
		name = "history.bolt"
	}
	return mustExpand(filepath.Join(defaultDataDir, name))
}

func parseDuration(key, value string, fallback time.Duration) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
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

// ExpandPath resolves a leading ~ and makes path absolute.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
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
