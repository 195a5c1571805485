package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/five82/onair/internal/config"
	"github.com/five82/onair/internal/history"
	_ "github.com/five82/onair/internal/history/bolt"
	_ "github.com/five82/onair/internal/history/sqlite"
	"github.com/five82/onair/internal/netprobe"
	"github.com/five82/onair/internal/prefs"
	"github.com/five82/onair/internal/radio"
	"github.com/five82/onair/internal/state"
	"github.com/five82/onair/internal/ui"
)

// Engine is the dependency bundle behind the interactive and headless modes.
// Whoever builds it owns it and must Close it.
type Engine struct {
	Config config.Config
	Store  history.Store
	Client *radio.Client
	Probe  netprobe.Probe
	Feed   *state.Feed
	Poller *Poller
}

// NewEngine opens the store and wires the poller from cfg.
func NewEngine(ctx context.Context, cfg config.Config, log zerolog.Logger) (*Engine, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	store, err := OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	feed := state.NewFeed()
	probe := NewProbe(cfg, log)
	poller, err := NewPoller(Deps{
		Probe:    probe,
		Client:   client,
		Store:    store,
		Feed:     feed,
		Logger:   log,
		Interval: cfg.PollInterval,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &Engine{
		Config: cfg,
		Store:  store,
		Client: client,
		Probe:  probe,
		Feed:   feed,
		Poller: poller,
	}, nil
}

// Close releases the store.
func (e *Engine) Close() error {
	if e == nil || e.Store == nil {
		return nil
	}
	return e.Store.Close()
}

// NewClient builds the radio API client from cfg.
func NewClient(cfg config.Config) (*radio.Client, error) {
	client, err := radio.NewClient(cfg.APIBaseURL, radio.WithTimeout(cfg.RequestTimeout))
	if err != nil {
		return nil, fmt.Errorf("init radio client: %w", err)
	}
	return client, nil
}

// OpenStore opens the configured history backend.
func OpenStore(ctx context.Context, cfg config.Config, log zerolog.Logger) (history.Store, error) {
	return history.Open(ctx, cfg.Store.Driver, history.Options{
		Path:         cfg.Store.Path,
		UniqueTracks: cfg.Store.UniqueTracks,
		WatchRefresh: cfg.Store.WatchRefresh,
		Logger:       log,
	})
}

// NewProbe returns the reachability probe selected by cfg.
func NewProbe(cfg config.Config, log zerolog.Logger) netprobe.Probe {
	if cfg.AssumeOnline {
		return netprobe.Static(true)
	}
	return netprobe.New(log, cfg.IgnoreInterfaces)
}

// Options configures the interactive mode.
type Options struct {
	Config    config.Config
	PrefsPath string
	Logger    zerolog.Logger
}

// Run starts the poller and the TUI, and blocks until the user quits or
// ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	eng, err := NewEngine(ctx, opts.Config, opts.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := eng.Poller.Start(ctx)
	userPrefs := prefs.Load(opts.PrefsPath)

	uiErr := ui.Run(ui.Options{
		Context:   ctx,
		Feed:      eng.Feed,
		LogPath:   opts.Config.Log.File,
		PollEvery: eng.Poller.Interval(),
		ThemeName: userPrefs.Theme,
		TimeStyle: userPrefs.TimeStyle,
		PrefsPath: opts.PrefsPath,
	})

	cancel()
	<-done
	return uiErr
}

// Watch runs the poller without a UI and calls onChange for the current
// snapshot and every transition after it. It returns when ctx ends.
func Watch(ctx context.Context, eng *Engine, onChange func(state.Snapshot)) error {
	if eng == nil {
		return errors.New("watch: engine is nil")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	snapshots := eng.Feed.Watch(ctx)
	done := eng.Poller.Start(ctx)
	for snap := range snapshots {
		if onChange != nil {
			onChange(snap)
		}
	}
	<-done
	return nil
}
