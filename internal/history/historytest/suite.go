// Package historytest holds behaviour tests shared by every history backend.
package historytest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/onair/internal/history"
)

// OpenFunc opens a fresh, empty store for one test.
type OpenFunc func(t *testing.T, opts history.Options) history.Store

// Run exercises the history.Store contract against a backend.
func Run(t *testing.T, open OpenFunc) {
	t.Helper()

	t.Run("EmptyLatest", func(t *testing.T) { testEmptyLatest(t, open) })
	t.Run("AppendAssignsIDAndTimestamp", func(t *testing.T) { testAppend(t, open) })
	t.Run("AppendRejectsBlankFields", func(t *testing.T) { testAppendBlank(t, open) })
	t.Run("ListNewestFirst", func(t *testing.T) { testListOrder(t, open) })
	t.Run("TransactionRollsBackOnError", func(t *testing.T) { testRollback(t, open) })
	t.Run("TransactionRollsBackOnPanic", func(t *testing.T) { testRollbackPanic(t, open) })
	t.Run("TransactionCancelledContext", func(t *testing.T) { testCancelled(t, open) })
	t.Run("ConcurrentDedupInsertsOnce", func(t *testing.T) { testConcurrentDedup(t, open) })
	t.Run("LatestIgnoresClockStepBack", func(t *testing.T) { testClockStepBack(t, open) })
	t.Run("UniqueTracksIsNoOp", func(t *testing.T) { testUniqueTracks(t, open) })
	t.Run("RepeatAllowedWithoutUnique", func(t *testing.T) { testRepeatAllowed(t, open) })
	t.Run("WatchAllSeesCommittedWrites", func(t *testing.T) { testWatchAll(t, open) })
}

func testEmptyLatest(t *testing.T, open OpenFunc) {
	store := open(t, history.Options{})
	_, ok, err := store.Latest(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	recs, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func testAppend(t *testing.T, open OpenFunc) {
	store := open(t, history.Options{})
	ctx := context.Background()

	before := time.Now().Add(-time.Second)
	rec, inserted, err := store.Append(ctx, " Song A ", "Artist A")
	require.NoError(t, err)
	require.True(t, inserted)
	assert.Positive(t, rec.ID)
	assert.Equal(t, "Song A", rec.Title)
	assert.Equal(t, "Artist A", rec.Artist)
	assert.False(t, rec.Timestamp.Before(before), "timestamp %v before %v", rec.Timestamp, before)

	latest, ok, err := store.Latest(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rec.ID, latest.ID)
	assert.True(t, latest.SameTrack("Song A", "Artist A"))

	next, _, err := store.Append(ctx, "Song B", "Artist B")
	require.NoError(t, err)
	assert.Greater(t, next.ID, rec.ID, "ids must increase")
}

func testAppendBlank(t *testing.T, open OpenFunc) {
	store := open(t, history.Options{})
	_, _, err := store.Append(context.Background(), "Song", "")
	assert.ErrorIs(t, err, history.ErrEmptyField)

	recs, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func testListOrder(t *testing.T, open OpenFunc) {
	store := open(t, history.Options{})
	ctx := context.Background()
	for _, title := range []string{"one", "two", "three"} {
		_, _, err := store.Append(ctx, title, "band")
		require.NoError(t, err)
	}

	recs, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, []string{"three", "two", "one"}, titles(recs))

	limited, err := store.List(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"three", "two"}, titles(limited))
}

func testRollback(t *testing.T, open OpenFunc) {
	store := open(t, history.Options{})
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.Transaction(ctx, func(tx history.Tx) error {
		if _, _, err := tx.Append(ctx, "ghost", "band"); err != nil {
			return err
		}
		latest, ok, err := tx.Latest(ctx)
		require.NoError(t, err)
		require.True(t, ok, "write must be visible inside the transaction")
		assert.Equal(t, "ghost", latest.Title)
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, ok, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "rolled back write must not be visible")
}

func testRollbackPanic(t *testing.T, open OpenFunc) {
	store := open(t, history.Options{})
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = store.Transaction(ctx, func(tx history.Tx) error {
			_, _, _ = tx.Append(ctx, "ghost", "band")
			panic("kaboom")
		})
	})

	_, ok, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// The store must still accept writes afterwards.
	_, inserted, err := store.Append(ctx, "real", "band")
	require.NoError(t, err)
	assert.True(t, inserted)
}

func testCancelled(t *testing.T, open OpenFunc) {
	store := open(t, history.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Transaction(ctx, func(tx history.Tx) error {
		_, _, err := tx.Append(ctx, "late", "band")
		return err
	})
	require.Error(t, err)

	_, ok, err := store.Latest(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

// AppendIfNew runs the read-then-append dedup in one transaction, the way
// the poller records a track.
func AppendIfNew(ctx context.Context, store history.Store, title, artist string) error {
	return store.Transaction(ctx, func(tx history.Tx) error {
		latest, ok, err := tx.Latest(ctx)
		if err != nil {
			return err
		}
		if ok && latest.SameTrack(title, artist) {
			return nil
		}
		_, _, err = tx.Append(ctx, title, artist)
		return err
	})
}

func testConcurrentDedup(t *testing.T, open OpenFunc) {
	store := open(t, history.Options{})
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- AppendIfNew(ctx, store, "Song A", "Artist A")
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	recs, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func testClockStepBack(t *testing.T, open OpenFunc) {
	var mu sync.Mutex
	now := time.UnixMilli(1_700_000_000_000)
	store := open(t, history.Options{Now: func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}})
	ctx := context.Background()

	require.NoError(t, AppendIfNew(ctx, store, "Song A", "Artist A"))

	mu.Lock()
	now = now.Add(-time.Hour)
	mu.Unlock()

	for range 3 {
		require.NoError(t, AppendIfNew(ctx, store, "Song B", "Artist B"))
	}

	latest, ok, err := store.Latest(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Song B", latest.Title)

	recs, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func testUniqueTracks(t *testing.T, open OpenFunc) {
	store := open(t, history.Options{UniqueTracks: true})
	ctx := context.Background()

	_, _, err := store.Append(ctx, "Song A", "Artist A")
	require.NoError(t, err)
	_, _, err = store.Append(ctx, "Song B", "Artist B")
	require.NoError(t, err)

	_, inserted, err := store.Append(ctx, "Song A", "Artist A")
	require.NoError(t, err, "a uniqueness conflict is a no-op, not an error")
	assert.False(t, inserted)

	recs, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Song B", "Song A"}, titles(recs))
}

func testRepeatAllowed(t *testing.T, open OpenFunc) {
	store := open(t, history.Options{})
	ctx := context.Background()

	for _, title := range []string{"Song A", "Song B", "Song A"} {
		_, inserted, err := store.Append(ctx, title, "band")
		require.NoError(t, err)
		assert.True(t, inserted)
	}
	recs, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Song A", "Song B", "Song A"}, titles(recs))
}

func testWatchAll(t *testing.T, open OpenFunc) {
	store := open(t, history.Options{WatchRefresh: time.Hour})
	view := store.WatchAll()
	require.NotNil(t, view)
	assert.Same(t, view, store.WatchAll(), "WatchAll must return the same handle")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := view.Subscribe(ctx)
	assert.Empty(t, next(t, ch))

	_, _, err := store.Append(ctx, "Song A", "Artist A")
	require.NoError(t, err)
	recs := next(t, ch)
	require.Len(t, recs, 1)
	assert.Equal(t, "Song A", recs[0].Title)

	// A rolled back write must not wake subscribers with new data.
	_ = store.Transaction(ctx, func(tx history.Tx) error {
		_, _, _ = tx.Append(ctx, "ghost", "band")
		return errors.New("abort")
	})
	select {
	case got := <-ch:
		t.Fatalf("unexpected update after rollback: %v", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func next(t *testing.T, ch <-chan []history.Record) []history.Record {
	t.Helper()
	select {
	case recs, ok := <-ch:
		require.True(t, ok)
		return recs
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for history")
		return nil
	}
}

func titles(recs []history.Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Title)
	}
	return out
}
