// Package history defines the durable track history and its live view.
//
// # Overview
//
// A Store is append-only: the poller inserts a Record whenever the station
// starts playing a track that differs from the most recent one, and nothing
// ever updates or deletes rows. Ids and timestamps are assigned by the store.
//
// Backends live in sub-packages and register themselves by name, the same
// way database/sql drivers do:
//
//	import _ "github.com/five82/onair/internal/history/sqlite"
//
//	store, err := history.Open(ctx, "sqlite", history.Options{Path: path})
//
// Available backends:
//
//   - sqlite: modernc.org/sqlite through sqlx (default)
//   - bolt: go.etcd.io/bbolt
//
// # Transactions
//
// Store.Transaction hands the callback a Tx with exclusive write visibility.
// The poller's "read latest, append if different" step runs inside one, so
// two writers can never both see the same stale latest record and insert
// the same track twice. Returning an error (or panicking) rolls back.
//
// # Uniqueness
//
// Adjacent dedup is the caller's job (see internal/app). Opening a store
// with UniqueTracks adds a global (title, artist) layer on top: inserting
// a track that already exists anywhere in history becomes a silent no-op
// and Append reports inserted == false.
//
// # Live View
//
// WatchAll returns the store's View. Subscribe streams the whole history
// newest first: once immediately, then after every committed insert (via
// the store's Notifier) and on a periodic refresh so that writes from
// other processes show up too. Subscriptions only end when their context
// does. A View never mutates the store.
package history
