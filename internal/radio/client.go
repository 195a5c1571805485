package radio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TrackFetcher fetches the track the station is currently playing.
// It is implemented by *Client and can be faked in tests.
type TrackFetcher interface {
	FetchCurrentTrack(ctx context.Context) (Track, error)
}

// Ensure Client implements TrackFetcher at compile time.
var _ TrackFetcher = (*Client)(nil)

// ErrIncompleteTrack is returned when the API answers with an empty title or artist.
var ErrIncompleteTrack = errors.New("incomplete track payload")

// StatusError reports a non-success HTTP status from the radio API.
type StatusError struct {
	Path string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api %s returned status %d", e.Path, e.Code)
}

// Client talks to the web-radio HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	DefaultBaseURL        = "https://webradio.io/api/"
	DefaultRequestTimeout = 10 * time.Second

	currentSongPath = "radio/pi/current-song"
	songPicturePath = "radio/pi/song/picture"
)

// UserAgent is sent with every request. cmd/onair overrides the version at startup.
var UserAgent = "onair/dev"

// Option customizes a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewClient builds a Client rooted at baseURL. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: DefaultRequestTimeout},
		userAgent: UserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string {
	if c == nil || c.baseURL == nil {
		return ""
	}
	return c.baseURL.String()
}

// FetchCurrentTrack retrieves the track currently on air.
func (c *Client) FetchCurrentTrack(ctx context.Context) (Track, error) {
	if c == nil {
		return Track{}, fmt.Errorf("client is nil")
	}
	var payload Track
	if err := c.do(ctx, http.MethodGet, currentSongPath, &payload); err != nil {
		return Track{}, err
	}
	payload = payload.Normalize()
	if !payload.Valid() {
		return Track{}, fmt.Errorf("%s: %w", currentSongPath, ErrIncompleteTrack)
	}
	return payload, nil
}

// FetchSongPicture retrieves the cover picture reference for the current track.
func (c *Client) FetchSongPicture(ctx context.Context) (string, error) {
	if c == nil {
		return "", fmt.Errorf("client is nil")
	}
	var picture string
	if err := c.do(ctx, http.MethodGet, songPicturePath, &picture); err != nil {
		return "", err
	}
	return strings.TrimSpace(picture), nil
}

func (c *Client) do(ctx context.Context, method, path string, dest any) error {
	rel := &url.URL{Path: path}
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Path: rel.Path, Code: resp.StatusCode}
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// parseBaseURL normalizes the API root so relative endpoint paths resolve
// beneath it: the path always ends with a slash, query and fragment are dropped.
func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api base url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api base url %q: missing host", raw)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
