package radio

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.String() != DefaultBaseURL {
		t.Fatalf("url = %q, want %q", u.String(), DefaultBaseURL)
	}

	u, err = parseBaseURL("http://example.com:1234/api?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "/api/" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}

	u, err = parseBaseURL("radio.example.com/v1")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "https" || u.Host != "radio.example.com" || u.Path != "/v1/" {
		t.Fatalf("url = %q, want https://radio.example.com/v1/", u.String())
	}
}

func TestParseBaseURL_RejectsMissingHost(t *testing.T) {
	if _, err := parseBaseURL("http:///only/path"); err == nil {
		t.Fatalf("parseBaseURL returned nil error, want missing host error")
	}
}

func TestClient_FetchesCurrentTrackAndPicture(t *testing.T) {
	t.Parallel()

	var gotUserAgent, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/api/radio/pi/current-song":
			_ = json.NewEncoder(w).Encode(Track{Title: "  Song A ", Artist: "Artist A"})
		case "/api/radio/pi/song/picture":
			_ = json.NewEncoder(w).Encode("https://cdn.example.com/a.jpg")
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL + "/api")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	track, err := c.FetchCurrentTrack(ctx)
	if err != nil {
		t.Fatalf("FetchCurrentTrack returned error: %v", err)
	}
	if track.Title != "Song A" || track.Artist != "Artist A" {
		t.Fatalf("FetchCurrentTrack = %#v, want trimmed Song A / Artist A", track)
	}

	picture, err := c.FetchSongPicture(ctx)
	if err != nil {
		t.Fatalf("FetchSongPicture returned error: %v", err)
	}
	if picture != "https://cdn.example.com/a.jpg" {
		t.Fatalf("FetchSongPicture = %q", picture)
	}

	if !strings.HasPrefix(gotUserAgent, "onair/") {
		t.Fatalf("User-Agent = %q, want onair/*", gotUserAgent)
	}
	if gotAccept != "application/json" {
		t.Fatalf("Accept = %q, want application/json", gotAccept)
	}
}

func TestClient_ErrorClasses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", http.StatusServiceUnavailable)
			},
			check: func(t *testing.T, err error) {
				var se *StatusError
				if !errors.As(err, &se) || se.Code != http.StatusServiceUnavailable {
					t.Fatalf("err = %v, want StatusError 503", err)
				}
				if !strings.Contains(err.Error(), "returned status 503") {
					t.Fatalf("err = %q, want it to mention the status", err.Error())
				}
			},
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("{not-json"))
			},
			check: func(t *testing.T, err error) {
				if err == nil || !strings.Contains(err.Error(), "decode response") {
					t.Fatalf("err = %v, want decode response error", err)
				}
			},
		},
		{
			name: "blank artist",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"title":"Song","artist":"  "}`))
			},
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrIncompleteTrack) {
					t.Fatalf("err = %v, want ErrIncompleteTrack", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			t.Cleanup(server.Close)

			c, err := NewClient(server.URL)
			if err != nil {
				t.Fatalf("NewClient returned error: %v", err)
			}
			_, err = c.FetchCurrentTrack(context.Background())
			tt.check(t, err)
		})
	}
}

func TestClient_TransportErrorAndTimeout(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(block)
		server.Close()
	})

	c, err := NewClient(server.URL, WithTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = c.FetchCurrentTrack(context.Background())
	if err == nil || !strings.Contains(err.Error(), "execute request") {
		t.Fatalf("err = %v, want execute request timeout", err)
	}
}

func TestTrack_Helpers(t *testing.T) {
	tr := Track{Title: " A ", Artist: "B\n"}.Normalize()
	if !tr.Valid() {
		t.Fatalf("Valid() = false for %#v", tr)
	}
	if !tr.Same("A", "B") || tr.Same("A", "b") {
		t.Fatalf("Same comparison is wrong for %#v", tr)
	}
	if (Track{Title: "A"}).Valid() {
		t.Fatalf("Valid() = true for track without artist")
	}
}
