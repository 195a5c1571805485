// Package bolt stores track history in a bbolt key/value file.
package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"go.etcd.io/bbolt"

	"github.com/five82/onair/internal/history"
)

// DriverName is the name this backend registers under.
const DriverName = "bolt"

func init() {
	history.Register(DriverName, func(ctx context.Context, opts history.Options) (history.Store, error) {
		return Open(ctx, opts)
	})
}

var (
	// historyBucket maps big-endian sequence ids to JSON records. Ids come
	// from NextSequence inside the single write transaction, so key order
	// is insertion order is timestamp order.
	historyBucket = []byte("history")
	// tracksBucket maps title\x00artist to the id of the first insert; it
	// backs the optional global uniqueness layer.
	tracksBucket = []byte("tracks")
)

// Store implements history.Store on bbolt.
type Store struct {
	db      *bbolt.DB
	unique  bool
	log     zerolog.Logger
	changes history.Notifier
	view    *history.View
	now     func() time.Time
}

var _ history.Store = (*Store)(nil)

// Open opens (creating if needed) the bolt file at opts.Path.
func Open(ctx context.Context, opts history.Options) (*Store, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("database path is empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := bbolt.Open(opts.Path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("could not open bbolt database: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(historyBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(tracksBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("could not create history buckets: %w", err)
	}

	s := &Store{
		db:     db,
		unique: opts.UniqueTracks,
		log:    opts.Logger.With().Str("component", "history.bolt").Logger(),
		now:    opts.Clock(),
	}
	s.view = history.NewView(s, &s.changes, opts.WatchRefresh, s.log)
	return s, nil
}

// Close releases the file lock.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// WatchAll returns the store's live view.
func (s *Store) WatchAll() *history.View {
	return s.view
}

// Latest returns the record with the highest id.
func (s *Store) Latest(ctx context.Context) (history.Record, bool, error) {
	var (
		rec history.Record
		ok  bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		rec, ok, err = latest(tx)
		return err
	})
	return rec, ok, err
}

// Append inserts a single record in its own transaction.
func (s *Store) Append(ctx context.Context, title, artist string) (history.Record, bool, error) {
	var (
		rec      history.Record
		inserted bool
	)
	err := s.Transaction(ctx, func(tx history.Tx) error {
		var err error
		rec, inserted, err = tx.Append(ctx, title, artist)
		return err
	})
	return rec, inserted, err
}

// List walks the history bucket backwards.
func (s *Store) List(ctx context.Context, limit int) ([]history.Record, error) {
	out := []history.Record{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(historyBucket).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(out) >= limit {
				break
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			rec, err := decode(v)
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return out, nil
}

// Transaction runs fn inside a bbolt read-write transaction. bbolt admits a
// single writer, which is what makes the read-then-append sequence atomic.
func (s *Store) Transaction(ctx context.Context, fn func(history.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := &txn{store: s}
	err := s.db.Update(func(btx *bbolt.Tx) error {
		t.tx = btx
		if err := fn(t); err != nil {
			return err
		}
		// Last chance to abandon the write before it hits disk.
		return ctx.Err()
	})
	if err != nil {
		return err
	}
	if t.inserted > 0 {
		s.changes.Notify()
	}
	return nil
}

type txn struct {
	tx       *bbolt.Tx
	store    *Store
	inserted int
}

func (t *txn) Latest(ctx context.Context) (history.Record, bool, error) {
	return latest(t.tx)
}

func (t *txn) Append(ctx context.Context, title, artist string) (history.Record, bool, error) {
	title, artist, err := history.ValidateTrack(title, artist)
	if err != nil {
		return history.Record{}, false, err
	}
	if err := ctx.Err(); err != nil {
		return history.Record{}, false, err
	}

	tracks := t.tx.Bucket(tracksBucket)
	trackKey := []byte(title + "\x00" + artist)
	if t.store.unique && tracks.Get(trackKey) != nil {
		return history.Record{}, false, nil
	}

	b := t.tx.Bucket(historyBucket)
	id, err := b.NextSequence()
	if err != nil {
		return history.Record{}, false, fmt.Errorf("allocate record id: %w", err)
	}
	rec := history.Record{
		ID:        int64(id),
		Title:     title,
		Artist:    artist,
		Timestamp: t.store.now().UTC(),
	}
	value, err := json.Marshal(rec)
	if err != nil {
		return history.Record{}, false, fmt.Errorf("error serializing history record: %w", err)
	}
	key := itob(id)
	if err := b.Put(key, value); err != nil {
		return history.Record{}, false, fmt.Errorf("insert history record: %w", err)
	}
	if tracks.Get(trackKey) == nil {
		if err := tracks.Put(trackKey, key); err != nil {
			return history.Record{}, false, fmt.Errorf("index track: %w", err)
		}
	}
	t.inserted++
	return rec, true, nil
}

func latest(tx *bbolt.Tx) (history.Record, bool, error) {
	_, v := tx.Bucket(historyBucket).Cursor().Last()
	if v == nil {
		return history.Record{}, false, nil
	}
	rec, err := decode(v)
	if err != nil {
		return history.Record{}, false, err
	}
	return rec, true, nil
}

func decode(v []byte) (history.Record, error) {
	var rec history.Record
	if err := json.Unmarshal(v, &rec); err != nil {
		return history.Record{}, fmt.Errorf("error deserializing history record: %w", err)
	}
	return rec, nil
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
