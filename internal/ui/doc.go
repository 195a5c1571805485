// Package ui provides the onair terminal interface, built on Bubble Tea.
//
// # Layout
//
//	┌───────────────────────────────────────────────────────────┐
//	│ onair [ON AIR] Song – Artist  since 2m ago  checked 12:00 │  header
//	├───────────────────────────────────────────────────────────┤
//	│ Title              Artist            Played               │  history table
//	│ ...                                                       │  or log tail
//	├───────────────────────────────────────────────────────────┤
//	│ tab switch view • t time • T theme        Dracula · 42 ...│  footer / toast
//	└───────────────────────────────────────────────────────────┘
//
// # Data Flow
//
// The model never polls. It subscribes to two streams through tea.Cmds that
// block on a channel and are re-issued after every message:
//
//   - state.Feed.Watch: one snapshot per status transition
//   - history.View.Subscribe: the full newest-first history on every change
//
// The history view is taken from the first status that carries one. The
// handle never changes afterwards, so the subscription is made once.
//
// # Notifications
//
// Entering an error state shows a toast in the footer for a few seconds.
// The model remembers the last snapshot Seq it handled and only toasts when
// Snapshot.Entered reports a newer transition.
//
// # Preferences
//
// T cycles the theme and t switches between relative (go-humanize) and
// absolute timestamps. Both are written back to prefs.toml.
package ui
