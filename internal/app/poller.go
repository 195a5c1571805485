package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/five82/onair/internal/history"
	"github.com/five82/onair/internal/netprobe"
	"github.com/five82/onair/internal/radio"
	"github.com/five82/onair/internal/state"
)

// DefaultPollInterval is the fixed pause between iterations.
const DefaultPollInterval = 20 * time.Second

var errOffline = errors.New("no usable network transport")

// Deps is everything a Poller needs. The caller owns the lifecycle of each
// dependency; the poller never closes them.
type Deps struct {
	Probe    netprobe.Probe
	Client   radio.TrackFetcher
	Store    history.Store
	Feed     *state.Feed
	Logger   zerolog.Logger
	Interval time.Duration
}

// Stats are running counters for one Poller.
type Stats struct {
	Iterations    int64
	Appended      int64
	StoreFailures int64
}

// Poller drives the probe → fetch → record → publish loop. It is the only
// writer of its Feed.
type Poller struct {
	probe    netprobe.Probe
	client   radio.TrackFetcher
	store    history.Store
	feed     *state.Feed
	log      zerolog.Logger
	interval time.Duration
	runID    string

	iterations    atomic.Int64
	appended      atomic.Int64
	storeFailures atomic.Int64
}

// step tells the loop whether an iteration continues past the fetch.
type step int

const (
	stepProceed step = iota
	stepSkip
)

// NewPoller validates deps and builds a Poller.
func NewPoller(d Deps) (*Poller, error) {
	switch {
	case d.Probe == nil:
		return nil, fmt.Errorf("poller: probe is required")
	case d.Client == nil:
		return nil, fmt.Errorf("poller: client is required")
	case d.Store == nil:
		return nil, fmt.Errorf("poller: store is required")
	case d.Feed == nil:
		return nil, fmt.Errorf("poller: feed is required")
	}
	interval := d.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	runID := uuid.NewString()
	return &Poller{
		probe:    d.Probe,
		client:   d.Client,
		store:    d.Store,
		feed:     d.Feed,
		log:      d.Logger.With().Str("component", "poller").Str("run", runID).Logger(),
		interval: interval,
		runID:    runID,
	}, nil
}

// RunID identifies this poller in log output.
func (p *Poller) RunID() string { return p.runID }

// Interval is the pause between iterations.
func (p *Poller) Interval() time.Duration { return p.interval }

// Stats returns a copy of the running counters.
func (p *Poller) Stats() Stats {
	return Stats{
		Iterations:    p.iterations.Load(),
		Appended:      p.appended.Load(),
		StoreFailures: p.storeFailures.Load(),
	}
}

// Start runs the loop in a background goroutine. The returned channel is
// closed once the loop has exited.
func (p *Poller) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()
	return done
}

// Run executes iterations until ctx is cancelled. The first iteration runs
// immediately; later ones follow a fixed pause.
func (p *Poller) Run(ctx context.Context) {
	p.log.Info().Dur("interval", p.interval).Msg("poller started")
	defer p.log.Info().Msg("poller stopped")

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		p.Step(ctx)
		timer.Reset(p.interval)
	}
}

// Step runs a single iteration and returns the status it left published.
func (p *Poller) Step(ctx context.Context) state.Status {
	p.iterations.Add(1)

	online := p.probe.Online(ctx)
	if ctx.Err() != nil {
		return p.feed.Current()
	}
	if !online {
		p.publish(state.Failure(state.NoInternetConnection, p.handle()), errOffline)
		return p.feed.Current()
	}

	track, next := p.fetch(ctx)
	if next == stepSkip {
		return p.feed.Current()
	}

	err := p.record(ctx, track)
	if err != nil {
		if ctx.Err() != nil {
			return p.feed.Current()
		}
		p.storeFailures.Add(1)
		p.log.Error().Err(err).Str("track", track.String()).Msg("store history failed")
	}
	p.publish(state.Success(p.handle()), err)
	return p.feed.Current()
}

// fetch asks the radio API for the current track. A failure publishes a
// ResponseError and tells the caller to skip the rest of the iteration.
func (p *Poller) fetch(ctx context.Context) (radio.Track, step) {
	track, err := p.client.FetchCurrentTrack(ctx)
	if err == nil {
		return track, stepProceed
	}
	if ctx.Err() != nil {
		return radio.Track{}, stepSkip
	}

	evt := p.log.Warn().Err(err)
	var se *radio.StatusError
	if errors.As(err, &se) {
		evt = evt.Int("status", se.Code)
	}
	evt.Msg("fetch current track failed")

	p.publish(state.Failure(state.ResponseError, p.handle()), err)
	return radio.Track{}, stepSkip
}

// record appends track unless it is already the most recent entry. The
// read and the write share one transaction so concurrent writers cannot
// interleave between them.
func (p *Poller) record(ctx context.Context, track radio.Track) error {
	track = track.Normalize()
	var inserted bool
	err := p.store.Transaction(ctx, func(tx history.Tx) error {
		last, ok, err := tx.Latest(ctx)
		if err != nil {
			return fmt.Errorf("read latest: %w", err)
		}
		if ok && last.SameTrack(track.Title, track.Artist) {
			return nil
		}
		rec, added, err := tx.Append(ctx, track.Title, track.Artist)
		if err != nil {
			return fmt.Errorf("append %s: %w", track, err)
		}
		inserted = added
		if added {
			p.log.Debug().Int64("id", rec.ID).Str("track", track.String()).Msg("track recorded")
		}
		return nil
	})
	if err != nil {
		return err
	}
	if inserted {
		p.appended.Add(1)
		p.log.Info().Str("title", track.Title).Str("artist", track.Artist).Msg("now playing")
	}
	return nil
}

// handle returns the history view carried by the current status, or asks
// the store for it the first time.
func (p *Poller) handle() *history.View {
	if h, ok := p.feed.Current().History(); ok && h != nil {
		return h
	}
	return p.store.WatchAll()
}

func (p *Poller) publish(next state.Status, detail error) {
	prev := p.feed.Current()
	if !p.feed.Publish(next, detail) {
		return
	}
	evt := p.log.Info()
	if next.Kind() == state.KindError {
		evt = p.log.Warn()
	}
	evt.Str("from", prev.String()).Str("to", next.String()).Msg("status changed")
}
