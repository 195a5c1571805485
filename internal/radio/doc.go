// Package radio provides an HTTP client for the web-radio "now playing" API.
//
// # Overview
//
// The client is a thin, stateless wrapper around two read-only endpoints:
//
//   - GET {base}radio/pi/current-song: {"title": "...", "artist": "..."}
//   - GET {base}radio/pi/song/picture: a JSON string pointing at the cover art
//
// The default base is https://webradio.io/api/. Relative endpoint paths are
// resolved beneath the base, so the base path must end with a slash;
// parseBaseURL takes care of that.
//
// # Usage
//
//	client, err := radio.NewClient("", radio.WithTimeout(10*time.Second))
//	if err != nil {
//		return err
//	}
//	track, err := client.FetchCurrentTrack(ctx)
//
// # Errors
//
// Every failure is returned, never panicked:
//
//   - "execute request: ...": transport failures, timeouts, cancelled contexts
//   - *StatusError: any non-2xx answer ("api radio/pi/current-song returned status 503")
//   - "decode response: ...": malformed JSON
//   - ErrIncompleteTrack: the payload decoded but title or artist is blank
//
// The poller does not distinguish between these; they all count as a
// response error. The detail is kept for logs.
//
// # Request Handling
//
// All requests use the caller's context, send Accept: application/json and
// a User-Agent of the form onair/<version>, and are bounded by the client
// timeout (10 seconds unless overridden).
//
// # Design Rationale
//
// No caching and no retries live here. The poller owns the cadence and the
// retry policy, which keeps this package trivially testable with httptest.
package radio
