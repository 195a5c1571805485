package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIBaseURL != defaultAPIBaseURL {
		t.Fatalf("APIBaseURL = %q, want %q", cfg.APIBaseURL, defaultAPIBaseURL)
	}
	if cfg.PollInterval != 20*time.Second {
		t.Fatalf("PollInterval = %v, want 20s", cfg.PollInterval)
	}
	if cfg.Store.Driver != "sqlite" {
		t.Fatalf("Store.Driver = %q, want sqlite", cfg.Store.Driver)
	}
	wantStore := filepath.Join(home, ".local/share/onair/history.db")
	if cfg.Store.Path != wantStore {
		t.Fatalf("Store.Path = %q, want %q", cfg.Store.Path, wantStore)
	}
	if !strings.HasPrefix(cfg.Log.File, home) {
		t.Fatalf("Log.File = %q, want it under HOME %q", cfg.Log.File, home)
	}
	if !reflect.DeepEqual(cfg.IgnoreInterfaces, defaultIgnoreInterfaces) {
		t.Fatalf("IgnoreInterfaces = %v, want %v", cfg.IgnoreInterfaces, defaultIgnoreInterfaces)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := writeConfig(t, `
api_base_url = "  https://radio.example.com/api/  "
poll_interval = " 30s "
request_timeout = "3s"
assume_online = true
ignore_interfaces = [" br0 ", ""]

[store]
driver = "BOLT"
path = "  ~/music/history.bolt  "
unique_tracks = true
watch_refresh = "1m"

[log]
level = "DEBUG"
file = "~/logs/onair.log"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIBaseURL != "https://radio.example.com/api/" {
		t.Fatalf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.PollInterval != 30*time.Second || cfg.RequestTimeout != 3*time.Second {
		t.Fatalf("durations = %v/%v, want 30s/3s", cfg.PollInterval, cfg.RequestTimeout)
	}
	if !cfg.AssumeOnline {
		t.Fatalf("AssumeOnline = false, want true")
	}
	if !reflect.DeepEqual(cfg.IgnoreInterfaces, []string{"br0"}) {
		t.Fatalf("IgnoreInterfaces = %v, want [br0]", cfg.IgnoreInterfaces)
	}
	if cfg.Store.Driver != "bolt" || !cfg.Store.UniqueTracks || cfg.Store.WatchRefresh != time.Minute {
		t.Fatalf("Store = %+v", cfg.Store)
	}
	if cfg.Store.Path != filepath.Join(home, "music/history.bolt") {
		t.Fatalf("Store.Path = %q, want it expanded under HOME", cfg.Store.Path)
	}
	if cfg.Log.Level != "debug" || cfg.Log.File != filepath.Join(home, "logs/onair.log") {
		t.Fatalf("Log = %+v", cfg.Log)
	}
}

func TestLoad_BoltDriverDefaultsItsOwnPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(writeConfig(t, "[store]\ndriver = \"bolt\"\n"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Store.Path != filepath.Join(home, ".local/share/onair/history.bolt") {
		t.Fatalf("Store.Path = %q, want history.bolt default", cfg.Store.Path)
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(writeConfig(t, `
api_base_url = "   "
poll_interval = ""
[store]
driver = " "
`))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	def := Default()
	if cfg.APIBaseURL != def.APIBaseURL || cfg.PollInterval != def.PollInterval || cfg.Store.Driver != def.Store.Driver {
		t.Fatalf("cfg = %+v, want defaults %+v", cfg, def)
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	_, err := Load(writeConfig(t, `api_base_url = [`))
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestLoad_InvalidDurations(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unparseable", `poll_interval = "soon"`, "parse poll_interval"},
		{"too short", `poll_interval = "10ms"`, "at least"},
		{"negative timeout", `request_timeout = "-1s"`, "request_timeout must be positive"},
		{"bad refresh", "[store]\nwatch_refresh = \"x\"", "parse store.watch_refresh"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Load error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ExpandPath("~/a/b")
	if err != nil {
		t.Fatalf("ExpandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("ExpandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}
