// Package config loads the onair TOML configuration.
//
// # Configuration Discovery
//
// Load resolves the config path in this order:
//
//  1. If path is provided (--config or ONAIR_CONFIG), use it
//  2. Otherwise, use ~/.config/onair/config.toml (default)
//
// A missing file is not an error: Load returns Default(). Parse errors and
// invalid durations are returned, because running with a half-read config
// would silently poll the wrong station or store history in the wrong place.
//
// # Defaults
//
//   - api_base_url: https://webradio.io/api/
//   - poll_interval: 20s (minimum 1s)
//   - request_timeout: 10s
//   - store.driver: sqlite, at ~/.local/share/onair/history.db
//     (history.bolt when the driver is bolt)
//   - store.watch_refresh: 5s
//   - log.file: ~/.local/state/onair/onair.log
//
// Example config.toml:
//
//	api_base_url = "https://webradio.io/api/"
//	poll_interval = "20s"
//	request_timeout = "10s"
//	assume_online = false
//	ignore_interfaces = ["docker0"]
//
//	[store]
//	driver = "sqlite"
//	path = "~/.local/share/onair/history.db"
//	unique_tracks = false
//
//	[log]
//	level = "info"
//
// # Path Expansion
//
// Paths may start with ~, which expands to the user's home directory, and
// are made absolute. Empty or whitespace-only values fall back to defaults.
//
// # Usage Example
//
//	cfg, err := config.Load("")
//	if err != nil {
//		return fmt.Errorf("load config: %w", err)
//	}
//	client, err := radio.NewClient(cfg.APIBaseURL, radio.WithTimeout(cfg.RequestTimeout))
package config
