// Package logtail reads the end of the onair log file and renders it for humans.
//
// # Overview
//
// onair writes structured zerolog JSON to its log file while the TUI owns the
// terminal. This package turns that file back into something readable for
// the `onair logs` command and the TUI log view.
//
// # Reading Log Files
//
// Read keeps a ring buffer of maxLines entries and makes one pass over the
// file, so memory stays O(maxLines) no matter how large the log grows:
//
//	lines, err := logtail.Read("~/.local/state/onair/onair.log", 200)
//
// A missing file is not an error; it simply yields no lines. maxLines <= 0
// returns nothing.
//
// # Formatting
//
// Parse decodes one JSON line into an Entry (time, level, component,
// message, error and remaining fields). Format renders it as:
//
//	2025-10-08 21:01:05 WARN [poller] – fetch current track failed status=503 error="api down"
//
// Extra fields are sorted by key so output is stable. Lines that are not
// JSON (a panic trace, for example) are passed through untouched.
package logtail
