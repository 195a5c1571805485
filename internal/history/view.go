package history

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Notifier broadcasts "something changed" to any number of waiters.
// The zero value is ready to use.
type Notifier struct {
	mu sync.Mutex
	ch chan struct{}
}

// Changed returns a channel that is closed on the next Notify.
func (n *Notifier) Changed() <-chan struct{} {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.ch == nil {
		n.ch = make(chan struct{})
	}
	return n.ch
}

// Notify wakes every current waiter.
func (n *Notifier) Notify() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.ch != nil {
		close(n.ch)
	}
	n.ch = make(chan struct{})
}

// Lister is the read side a View needs from its store.
type Lister interface {
	List(ctx context.Context, limit int) ([]Record, error)
}

// View is a live, newest-first view of the full history. It is owned by
// the store that created it; holders only read from it. A View can be
// subscribed to any number of times.
type View struct {
	src     Lister
	changes *Notifier
	refresh time.Duration
	log     zerolog.Logger
}

// NewView builds a view over src. changes is notified by the store after
// every committed insert; refresh bounds how stale the view can get when
// another process writes the same store.
func NewView(src Lister, changes *Notifier, refresh time.Duration, log zerolog.Logger) *View {
	if refresh <= 0 {
		refresh = DefaultWatchRefresh
	}
	if changes == nil {
		changes = &Notifier{}
	}
	return &View{src: src, changes: changes, refresh: refresh, log: log}
}

// Snapshot reads the current history once.
func (v *View) Snapshot(ctx context.Context) ([]Record, error) {
	return v.src.List(ctx, 0)
}

// Subscribe streams the history, newest first. The first value is the
// current history; later values arrive only when it changed. A slow reader
// only ever sees the latest list. The channel is closed when ctx ends.
func (v *View) Subscribe(ctx context.Context) <-chan []Record {
	out := make(chan []Record, 1)
	go v.run(ctx, out)
	return out
}

func (v *View) run(ctx context.Context, out chan []Record) {
	defer close(out)

	ticker := time.NewTicker(v.refresh)
	defer ticker.Stop()

	var last []Record
	delivered := false
	for {
		changed := v.changes.Changed()
		recs, err := v.src.List(ctx, 0)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			v.log.Warn().Err(err).Msg("history view refresh failed")
		case !delivered || !sameRecords(last, recs):
			if !deliver(ctx, out, recs) {
				return
			}
			last = recs
			delivered = true
		}

		select {
		case <-ctx.Done():
			return
		case <-changed:
		case <-ticker.C:
		}
	}
}

// deliver replaces any unread value in out with recs.
func deliver(ctx context.Context, out chan []Record, recs []Record) bool {
	select {
	case out <- recs:
		return true
	default:
	}
	select {
	case <-out:
	default:
	}
	select {
	case out <- recs:
		return true
	case <-ctx.Done():
		return false
	}
}

// Records are immutable once stored, so comparing ids is enough.
func sameRecords(a, b []Record) bool {
	return slices.EqualFunc(a, b, func(x, y Record) bool { return x.ID == y.ID })
}
