package history

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultWatchRefresh is how often a view re-reads the store when no
// in-process write has been observed.
const DefaultWatchRefresh = 5 * time.Second

// Options configure a backend when it is opened.
type Options struct {
	Path         string
	UniqueTracks bool
	WatchRefresh time.Duration
	Logger       zerolog.Logger
	// Now stamps new records; nil means time.Now.
	Now func() time.Time
}

// Clock returns the timestamp source a backend should use.
func (o Options) Clock() func() time.Time {
	if o.Now != nil {
		return o.Now
	}
	return time.Now
}

// Opener opens a backend.
type Opener func(ctx context.Context, opts Options) (Store, error)

var (
	driversMu sync.RWMutex
	drivers   = map[string]Opener{}
)

// Register makes a backend available to Open under name. Backends call it
// from init; registering the same name twice panics.
func Register(name string, open Opener) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if open == nil {
		panic("history: Register opener is nil")
	}
	if _, dup := drivers[name]; dup {
		panic("history: Register called twice for driver " + name)
	}
	drivers[name] = open
}

// Drivers lists the registered backend names, sorted.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Open opens the named backend.
func Open(ctx context.Context, driver string, opts Options) (Store, error) {
	name := strings.ToLower(strings.TrimSpace(driver))
	driversMu.RLock()
	open, ok := drivers[name]
	driversMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownDriver, driver, strings.Join(Drivers(), ", "))
	}
	if opts.WatchRefresh <= 0 {
		opts.WatchRefresh = DefaultWatchRefresh
	}
	store, err := open(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("open %s history: %w", name, err)
	}
	return store, nil
}
