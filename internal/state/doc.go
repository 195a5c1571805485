// Package state holds the engine status and the cell that publishes it.
//
// # Overview
//
// The poller and its observers (the TUI, the headless watch command) run in
// different goroutines. Feed is the coordination point between them: the
// poller is its only writer, everything else reads.
//
//	Producer (Poller):              Consumers:
//	┌─────────────────────┐        ┌──────────────────────┐
//	│ probe / fetch / tx  │        │ TUI                  │
//	│        ↓            │        │ watch command        │
//	│ feed.Publish(s,err) │──────→ │ feed.Watch(ctx)      │
//	│        ↓            │ (mutex)│ feed.Snapshot()      │
//	│ sleep, repeat       │        │                      │
//	└─────────────────────┘        └──────────────────────┘
//
// # Status
//
// Status is a tagged variant with three shapes:
//
//	Initializing()                 no history yet
//	Success(view)                  last poll produced a track
//	Failure(variant, view)         last poll failed
//
// Success and Failure both carry the store's live *history.View, reachable
// through Status.History. Status values are comparable with ==, and two
// statuses are equal only if they share the variant, the error and the
// exact same history handle.
//
// ErrorVariant has exactly two members, NoInternetConnection and
// ResponseError. Both are transient.
//
// # Update Semantics
//
// Publish always refreshes the diagnostics (LastChecked, LastError,
// ConsecutiveFailures). It only counts as a transition when the new status
// differs from the current one:
//
//	feed.Publish(Failure(ResponseError, v), err)  // Seq 1 -> 2, observers woken
//	feed.Publish(Failure(ResponseError, v), err)  // Seq stays 2, nobody woken
//
// Observers keep the last Seq they handled and use Snapshot.Entered to decide
// whether to show a one-shot notification, so an outage that lasts an hour
// produces one toast, not one per poll.
//
// # Concurrency Model
//
// A sync.RWMutex guards the snapshot. Every transition replaces the whole
// snapshot under the write lock, so readers never see a half-applied status.
// Change notification is a channel that is closed on transition and replaced
// lazily; Watch is built on it and keeps only the newest snapshot for slow
// readers.
//
// # Testing Considerations
//
// The zero Feed is ready to use and holds Initializing with Seq 0.
package state
