package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	p := Load("")
	if p != Defaults() {
		t.Fatalf("Load = %+v, want %+v", p, Defaults())
	}
}

func TestLoad_ReadsDefaultLocation(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	prefsDir := filepath.Join(home, ".config", "onair")
	if err := os.MkdirAll(prefsDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	body := "theme = \"Slate\"\ntime_style = \"ABSOLUTE\"\n"
	if err := os.WriteFile(filepath.Join(prefsDir, "prefs.toml"), []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p := Load("")
	if p.Theme != "Slate" {
		t.Fatalf("Theme = %q, want %q", p.Theme, "Slate")
	}
	if p.TimeStyle != TimeAbsolute {
		t.Fatalf("TimeStyle = %q, want %q", p.TimeStyle, TimeAbsolute)
	}
}

func TestSave_RoundTripsThroughNewDirs(t *testing.T) {
	prefsFile := filepath.Join(t.TempDir(), "subdir", "prefs.toml")

	want := Prefs{Theme: "Slate", TimeStyle: TimeAbsolute}
	if err := Save(prefsFile, want); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if got := Load(prefsFile); got != want {
		t.Fatalf("Load = %+v, want %+v", got, want)
	}
}

func TestLoad_BadValuesFallBack(t *testing.T) {
	tests := map[string]string{
		"empty theme":     "theme = \"\"\n",
		"unknown style":   "time_style = \"sideways\"\n",
		"invalid toml":    "not valid toml {{{\n",
		"whitespace only": "theme = \"   \"\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			prefsFile := filepath.Join(t.TempDir(), "prefs.toml")
			if err := os.WriteFile(prefsFile, []byte(body), 0o644); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			if got := Load(prefsFile); got != Defaults() {
				t.Fatalf("Load = %+v, want defaults", got)
			}
		})
	}
}

func TestTimeStyle_Toggle(t *testing.T) {
	if TimeRelative.Toggle() != TimeAbsolute || TimeAbsolute.Toggle() != TimeRelative {
		t.Fatalf("Toggle does not alternate")
	}
	if TimeStyle("").Toggle() != TimeAbsolute {
		t.Fatalf("unset style should toggle to absolute")
	}
}
