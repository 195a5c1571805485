package history

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memLister struct {
	mu   sync.Mutex
	recs []Record
	err  error
}

func (m *memLister) List(ctx context.Context, limit int) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]Record, len(m.recs))
	copy(out, m.recs)
	return out, nil
}

func (m *memLister) prepend(r Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append([]Record{r}, m.recs...)
}

func receive(t *testing.T, ch <-chan []Record) []Record {
	t.Helper()
	select {
	case recs, ok := <-ch:
		require.True(t, ok, "subscription closed unexpectedly")
		return recs
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for history update")
		return nil
	}
}

func TestView_SubscribeDeliversInitialAndChanges(t *testing.T) {
	src := &memLister{recs: []Record{{ID: 1, Title: "A", Artist: "X"}}}
	changes := &Notifier{}
	view := NewView(src, changes, time.Hour, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := view.Subscribe(ctx)
	first := receive(t, ch)
	require.Len(t, first, 1)
	assert.Equal(t, int64(1), first[0].ID)

	src.prepend(Record{ID: 2, Title: "B", Artist: "Y"})
	changes.Notify()

	second := receive(t, ch)
	require.Len(t, second, 2)
	assert.Equal(t, int64(2), second[0].ID, "newest first")
}

func TestView_UnchangedNotifyDoesNotRedeliver(t *testing.T) {
	src := &memLister{recs: []Record{{ID: 1}}}
	changes := &Notifier{}
	view := NewView(src, changes, time.Hour, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := view.Subscribe(ctx)
	_ = receive(t, ch)

	changes.Notify()
	select {
	case recs := <-ch:
		t.Fatalf("unexpected redelivery of unchanged history: %v", recs)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestView_RefreshPicksUpExternalWrites(t *testing.T) {
	src := &memLister{}
	view := NewView(src, &Notifier{}, 20*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := view.Subscribe(ctx)
	assert.Empty(t, receive(t, ch))

	// No Notify: only the periodic refresh can see this.
	src.prepend(Record{ID: 7})
	recs := receive(t, ch)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(7), recs[0].ID)
}

func TestView_ClosesWhenContextEnds(t *testing.T) {
	view := NewView(&memLister{}, &Notifier{}, time.Hour, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	ch := view.Subscribe(ctx)
	_ = receive(t, ch)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not close after cancel")
	}
}

func TestView_ResubscribeAfterListError(t *testing.T) {
	src := &memLister{err: errors.New("disk gone")}
	view := NewView(src, &Notifier{}, 20*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := view.Subscribe(ctx)
	src.mu.Lock()
	src.err = nil
	src.recs = []Record{{ID: 3}}
	src.mu.Unlock()

	recs := receive(t, ch)
	require.Len(t, recs, 1)

	second := view.Subscribe(ctx)
	again := receive(t, second)
	assert.Equal(t, recs, again)
}

func TestNotifier_WakesAllWaiters(t *testing.T) {
	var n Notifier
	a := n.Changed()
	b := n.Changed()
	n.Notify()

	for _, ch := range []<-chan struct{}{a, b} {
		select {
		case <-ch:
		default:
			t.Fatal("waiter not woken")
		}
	}

	select {
	case <-n.Changed():
		t.Fatal("fresh channel should not be closed")
	default:
	}
}

func TestValidateTrack(t *testing.T) {
	title, artist, err := ValidateTrack("  Song ", " Band")
	require.NoError(t, err)
	assert.Equal(t, "Song", title)
	assert.Equal(t, "Band", artist)

	_, _, err = ValidateTrack("Song", "  ")
	assert.ErrorIs(t, err, ErrEmptyField)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "carrier-pigeon", Options{})
	assert.ErrorIs(t, err, ErrUnknownDriver)
}
