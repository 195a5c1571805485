package radio

import (
	"fmt"
	"strings"
)

// Track mirrors the payload returned by radio/pi/current-song.
type Track struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// Normalize trims surrounding whitespace from both fields.
func (t Track) Normalize() Track {
	return Track{
		Title:  strings.TrimSpace(t.Title),
		Artist: strings.TrimSpace(t.Artist),
	}
}

// Valid reports whether both identifying fields are present.
func (t Track) Valid() bool {
	return t.Title != "" && t.Artist != ""
}

// Same reports whether two tracks identify the same piece of music.
// Comparison is exact; the remote API is the source of truth for spelling.
func (t Track) Same(title, artist string) bool {
	return t.Title == title && t.Artist == artist
}

func (t Track) String() string {
	return fmt.Sprintf("%q by %s", t.Title, t.Artist)
}
