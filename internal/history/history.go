package history

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrEmptyField is returned by Append when title or artist is blank.
	ErrEmptyField = errors.New("title and artist are required")
	// ErrUnknownDriver is returned by Open for an unregistered backend name.
	ErrUnknownDriver = errors.New("unknown history driver")
)

// Record is one observed "now playing" track.
// ID and Timestamp are assigned by the store on insert.
type Record struct {
	ID        int64     `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Artist    string    `json:"artist" yaml:"artist"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// SameTrack reports whether r identifies the given title and artist.
func (r Record) SameTrack(title, artist string) bool {
	return r.Title == title && r.Artist == artist
}

// Tx is the write scope handed to Store.Transaction.
type Tx interface {
	// Latest returns the most recently inserted record, if any.
	Latest(ctx context.Context) (Record, bool, error)
	// Append inserts a record. inserted is false when the store's
	// uniqueness layer already holds the track; that is not an error.
	Append(ctx context.Context, title, artist string) (rec Record, inserted bool, err error)
}

// Store is the durable, append-only track history.
type Store interface {
	Tx

	// Transaction runs fn with exclusive write visibility. Any error or
	// panic from fn rolls back every write made inside it.
	Transaction(ctx context.Context, fn func(Tx) error) error
	// List returns records newest first. limit <= 0 returns everything.
	List(ctx context.Context, limit int) ([]Record, error)
	// WatchAll returns the store's live view of the full history.
	// Repeated calls return the same view.
	WatchAll() *View
	Close() error
}

// ValidateTrack normalizes and checks a title/artist pair before insert.
func ValidateTrack(title, artist string) (string, string, error) {
	title = strings.TrimSpace(title)
	artist = strings.TrimSpace(artist)
	if title == "" || artist == "" {
		return "", "", ErrEmptyField
	}
	return title, artist, nil
}
