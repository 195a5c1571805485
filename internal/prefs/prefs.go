// Package prefs persists onair display preferences.
// Preferences live in ~/.config/onair/prefs.toml and are rewritten whenever
// the user toggles a setting in the TUI.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/onair/internal/config"
)

// TimeStyle selects how history timestamps are shown.
type TimeStyle string

const (
	TimeRelative TimeStyle = "relative"
	TimeAbsolute TimeStyle = "absolute"
)

// Toggle flips between relative and absolute.
func (s TimeStyle) Toggle() TimeStyle {
	if s == TimeAbsolute {
		return TimeRelative
	}
	return TimeAbsolute
}

// Prefs holds user preferences.
type Prefs struct {
	Theme     string    `toml:"theme"`
	TimeStyle TimeStyle `toml:"time_style"`
}

const (
	defaultPrefsPath = "~/.config/onair/prefs.toml"
	defaultTheme     = "Dracula"
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Defaults returns the preferences used before anything is saved.
func Defaults() Prefs {
	return Prefs{Theme: defaultTheme, TimeStyle: TimeRelative}
}

// Load reads preferences from path. Missing or unreadable files yield
// defaults; a bad prefs file never stops the program.
func Load(path string) Prefs {
	p := Defaults()

	resolved, err := resolvePath(path)
	if err != nil {
		return p
	}
	bytes, err := os.ReadFile(resolved)
	if err != nil {
		return p
	}

	var loaded Prefs
	if err := toml.Unmarshal(bytes, &loaded); err != nil {
		return p
	}
	if v := strings.TrimSpace(loaded.Theme); v != "" {
		p.Theme = v
	}
	switch TimeStyle(strings.ToLower(strings.TrimSpace(string(loaded.TimeStyle)))) {
	case TimeAbsolute:
		p.TimeStyle = TimeAbsolute
	case TimeRelative:
		p.TimeStyle = TimeRelative
	}
	return p
}

// Save writes preferences to path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultPrefsPath
	}
	return config.ExpandPath(path)
}
