package state

import (
	"context"
	"sync"
	"time"
)

// Snapshot represents the latest status available to observers.
type Snapshot struct {
	Status Status
	// Seq increases by one on every real transition and never on a no-op
	// publish. Observers compare it to tell "entered a state" apart from
	// "still in it".
	Seq uint64
	// Since is when the current status was entered.
	Since time.Time

	// Diagnostics, refreshed on every publish without bumping Seq.
	LastChecked         time.Time
	LastError           error
	ConsecutiveFailures int
}

// Entered reports whether s is a newer transition than seq.
func (s Snapshot) Entered(seq uint64) bool {
	return s.Seq > seq
}

// Feed is the single observable status cell. One writer (the poller)
// publishes; any number of readers take snapshots or wait for changes.
// The zero value holds Initializing and is ready to use.
type Feed struct {
	mu       sync.RWMutex
	snapshot Snapshot
	changed  chan struct{}
	now      func() time.Time
}

// NewFeed returns an empty feed.
func NewFeed() *Feed {
	return &Feed{}
}

// Publish replaces the current status. It returns false, and leaves Seq
// and Since alone, when next equals the current status. detail is the
// underlying error behind an error status (nil on success) and is kept
// for display only.
func (f *Feed) Publish(next Status, detail error) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.clock()
	f.snapshot.LastChecked = now
	f.snapshot.LastError = detail
	if next.kind == KindError {
		f.snapshot.ConsecutiveFailures++
	} else {
		f.snapshot.ConsecutiveFailures = 0
	}

	if next == f.snapshot.Status {
		return false
	}
	f.snapshot.Status = next
	f.snapshot.Seq++
	f.snapshot.Since = now

	if f.changed != nil {
		close(f.changed)
		f.changed = nil
	}
	return true
}

// Snapshot returns the current snapshot.
func (f *Feed) Snapshot() Snapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.snapshot
}

// Current returns just the status.
func (f *Feed) Current() Status {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.snapshot.Status
}

// Changed returns a channel closed on the next real transition.
func (f *Feed) Changed() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.changed == nil {
		f.changed = make(chan struct{})
	}
	return f.changed
}

// Watch streams a snapshot for the current state and then one per
// transition. Intermediate transitions may be skipped by a slow reader;
// the latest one always arrives. The channel closes when ctx ends.
func (f *Feed) Watch(ctx context.Context) <-chan Snapshot {
	out := make(chan Snapshot, 1)
	go func() {
		defer close(out)
		var last uint64
		first := true
		for {
			changed := f.Changed()
			snap := f.Snapshot()
			if first || snap.Seq != last {
				select {
				case <-out:
				default:
				}
				out <- snap
				last = snap.Seq
				first = false
			}
			select {
			case <-ctx.Done():
				return
			case <-changed:
			}
		}
	}()
	return out
}

func (f *Feed) clock() time.Time {
	if f.now != nil {
		return f.now()
	}
	return time.Now()
}
