// Package sqlite stores track history in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	_ "modernc.org/sqlite"

	"github.com/five82/onair/internal/history"
)

// DriverName is the name this backend registers under.
const DriverName = "sqlite"

func init() {
	history.Register(DriverName, func(ctx context.Context, opts history.Options) (history.Store, error) {
		return Open(ctx, opts)
	})
}

const schema = `
CREATE TABLE IF NOT EXISTS history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	artist TEXT NOT NULL,
	timestamp INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS history_timestamp_idx ON history (timestamp DESC, id DESC);
CREATE INDEX IF NOT EXISTS history_track_idx ON history (title, artist);
`

const (
	selectColumns = `SELECT id, title, artist, timestamp FROM history`
	newestFirst   = ` ORDER BY timestamp DESC, id DESC`

	// lastInserted ignores timestamps, which follow the wall clock and
	// can step backward; AUTOINCREMENT ids never do.
	lastInserted = ` ORDER BY id DESC LIMIT 1`
)

// row is the on-disk shape; timestamps are unix milliseconds.
type row struct {
	ID        int64  `db:"id"`
	Title     string `db:"title"`
	Artist    string `db:"artist"`
	Timestamp int64  `db:"timestamp"`
}

func (r row) record() history.Record {
	return history.Record{
		ID:        r.ID,
		Title:     r.Title,
		Artist:    r.Artist,
		Timestamp: time.UnixMilli(r.Timestamp),
	}
}

// Store implements history.Store on SQLite.
type Store struct {
	db      *sqlx.DB
	unique  bool
	log     zerolog.Logger
	changes history.Notifier
	view    *history.View

	// SQLite allows one writer at a time anyway; serializing in-process
	// writers here avoids SQLITE_BUSY churn between our own goroutines.
	writeMu sync.Mutex
	now     func() time.Time
}

var _ history.Store = (*Store)(nil)

// Open opens (creating if needed) the database at opts.Path.
func Open(ctx context.Context, opts history.Options) (*Store, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := sqlx.Open("sqlite", dsn(opts.Path))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}

	s := &Store{
		db:     db,
		unique: opts.UniqueTracks,
		log:    opts.Logger.With().Str("component", "history.sqlite").Logger(),
		now:    opts.Clock(),
	}
	s.view = history.NewView(s, &s.changes, opts.WatchRefresh, s.log)
	return s, nil
}

// dsn applies the pragmas to every pooled connection and takes the write
// lock when a transaction begins, so a read-then-insert cannot interleave
// with another process.
func dsn(path string) string {
	q := url.Values{}
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "foreign_keys(1)")
	q.Set("_txlock", "immediate")
	return "file:" + path + "?" + q.Encode()
}

// Close releases the database handle.
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

// Latest returns the most recently inserted record.
func (s *Store) Latest(ctx context.Context) (history.Record, bool, error) {
	return latest(ctx, s.db)
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

// List returns records newest first.
func (s *Store) List(ctx context.Context, limit int) ([]history.Record, error) {
	query := selectColumns + newestFirst
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []row
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	out := make([]history.Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.record())
	}
	return out, nil
}

// Transaction runs fn inside an immediate SQLite transaction.
func (s *Store) Transaction(ctx context.Context, fn func(history.Tx) error) (err error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	sqlTx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.log.Warn().Err(rbErr).Msg("rollback failed")
		}
	}()

	tx := &txn{tx: sqlTx, store: s}
	if err := fn(tx); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true

	if tx.inserted > 0 {
		s.changes.Notify()
	}
	return nil
}

type txn struct {
	tx       *sqlx.Tx
	store    *Store
	inserted int
}

func (t *txn) Latest(ctx context.Context) (history.Record, bool, error) {
	return latest(ctx, t.tx)
}

func (t *txn) Append(ctx context.Context, title, artist string) (history.Record, bool, error) {
	title, artist, err := history.ValidateTrack(title, artist)
	if err != nil {
		return history.Record{}, false, err
	}

	if t.store.unique {
		var exists bool
		err := t.tx.GetContext(ctx, &exists,
			`SELECT EXISTS(SELECT 1 FROM history WHERE title = ? AND artist = ?)`, title, artist)
		if err != nil {
			return history.Record{}, false, fmt.Errorf("check track uniqueness: %w", err)
		}
		if exists {
			return history.Record{}, false, nil
		}
	}

	ts := t.store.now().UnixMilli()
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO history (title, artist, timestamp) VALUES (?, ?, ?)`, title, artist, ts)
	if err != nil {
		return history.Record{}, false, fmt.Errorf("insert history record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return history.Record{}, false, fmt.Errorf("read inserted id: %w", err)
	}
	t.inserted++

	return row{ID: id, Title: title, Artist: artist, Timestamp: ts}.record(), true, nil
}

func latest(ctx context.Context, q sqlx.QueryerContext) (history.Record, bool, error) {
	var r row
	err := sqlx.GetContext(ctx, q, &r, selectColumns+lastInserted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return history.Record{}, false, nil
		}
		return history.Record{}, false, fmt.Errorf("query latest record: %w", err)
	}
	return r.record(), true, nil
}
