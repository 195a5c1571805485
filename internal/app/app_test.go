package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/onair/internal/config"
	"github.com/five82/onair/internal/netprobe"
	"github.com/five82/onair/internal/state"
)

func testConfig(t *testing.T, baseURL, driver string) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.APIBaseURL = baseURL
	cfg.AssumeOnline = true
	cfg.PollInterval = time.Hour
	cfg.RequestTimeout = 2 * time.Second
	cfg.Store.Driver = driver
	cfg.Store.Path = filepath.Join(t.TempDir(), "history")
	cfg.Log.File = ""
	return cfg
}

func TestNewEngine_UnknownDriver(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1/api/", "postgres")
	_, err := NewEngine(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
}

func TestNewEngine_BadBaseURL(t *testing.T) {
	cfg := testConfig(t, "http://", "sqlite")
	_, err := NewEngine(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "init radio client")
}

func TestNewProbe_AssumeOnline(t *testing.T) {
	cfg := config.Default()
	cfg.AssumeOnline = true
	assert.Equal(t, netprobe.Static(true), NewProbe(cfg, zerolog.Nop()))

	cfg.AssumeOnline = false
	_, isSystem := NewProbe(cfg, zerolog.Nop()).(*netprobe.System)
	assert.True(t, isSystem)
}

func TestWatch_RecordsTrackFromAPI(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/api/radio/pi/current-song" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"title":"Song A","artist":"Artist A"}`)
	}))
	defer srv.Close()

	for _, driver := range []string{"sqlite", "bolt"} {
		t.Run(driver, func(t *testing.T) {
			eng, err := NewEngine(context.Background(), testConfig(t, srv.URL+"/api/", driver), zerolog.Nop())
			require.NoError(t, err)
			defer func() { _ = eng.Close() }()

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			var seen []state.Kind
			err = Watch(ctx, eng, func(s state.Snapshot) {
				seen = append(seen, s.Status.Kind())
				if s.Status.Kind() == state.KindSuccess {
					cancel()
				}
			})
			require.NoError(t, err)
			require.NotEmpty(t, seen)
			assert.Equal(t, state.KindSuccess, seen[len(seen)-1])

			recs, err := eng.Store.List(context.Background(), 0)
			require.NoError(t, err)
			require.Len(t, recs, 1)
			assert.Equal(t, "Song A", recs[0].Title)
			assert.Equal(t, "Artist A", recs[0].Artist)
		})
	}
}

func TestWatch_APIErrorPublishesResponseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	eng, err := NewEngine(context.Background(), testConfig(t, srv.URL+"/api/", "sqlite"), zerolog.Nop())
	require.NoError(t, err)
	defer func() { _ = eng.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var last state.Snapshot
	err = Watch(ctx, eng, func(s state.Snapshot) {
		last = s
		if s.Status.Kind() == state.KindError {
			cancel()
		}
	})
	require.NoError(t, err)
	assert.True(t, last.Status.IsError(state.ResponseError))
	require.Error(t, last.LastError)

	recs, err := eng.Store.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, recs)
}
