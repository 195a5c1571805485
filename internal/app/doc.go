// Package app is the onair engine and its composition root.
//
// # Overview
//
// NewEngine turns a config.Config into a wired dependency bundle: history
// store, radio client, reachability probe, status feed and poller. Run adds
// the TUI on top; Watch runs the same poller headless. Nothing here is a
// global; each command builds its own Engine and closes it.
//
// # Data Flow
//
//	┌──────────────┐
//	│ NewEngine()  │
//	└──────┬───────┘
//	       ├─────> radio.NewClient()   HTTP client for the station API
//	       ├─────> history.Open()      sqlite or bolt backend
//	       ├─────> NewProbe()          netlink probe or static "online"
//	       ├─────> state.NewFeed()     observable status cell
//	       └─────> NewPoller()
//
//	Poller loop (one goroutine, sole writer of the feed):
//	┌───────────────────────────────────────────────┐
//	│ probe.Online()                                │
//	│   offline ─> Failure(NoInternetConnection)    │
//	│ client.FetchCurrentTrack()                    │
//	│   error   ─> Failure(ResponseError)           │
//	│ store.Transaction(latest == track ? no-op     │
//	│                                  : append)    │
//	│   ─> Success                                  │
//	│ sleep interval (cancellable)                  │
//	└───────────────────────────────────────────────┘
//
// # Polling Behavior
//
// The first iteration runs immediately, then the loop waits a fixed interval
// (20s by default) between iterations. There is no backoff: both error
// variants are transient and simply retried on the next pass.
//
// Offline wins over a response error, because an unreachable network makes
// the server's health unknowable. A failed fetch while online replaces
// NoInternetConnection, because connectivity has just been confirmed.
//
// Every non-initial status carries the store's history view. The poller
// takes it from the current status, or from store.WatchAll the first time,
// so the handle is the same pointer for the life of the engine.
//
// # Error Handling
//
// Fatal errors are limited to startup (bad base URL, unknown store driver,
// store open failure). During polling:
//
//   - probe or fetch failures become error statuses
//   - a failed history write is logged and counted in Stats, the status
//     still becomes Success, and the next iteration retries the write
//   - cancellation mid-iteration publishes nothing
//
// # Usage Example
//
//	eng, err := app.NewEngine(ctx, cfg, logger)
//	if err != nil {
//		return err
//	}
//	defer eng.Close()
//
//	return app.Watch(ctx, eng, func(s state.Snapshot) {
//		logger.Info().Stringer("status", s.Status).Msg("status")
//	})
package app
