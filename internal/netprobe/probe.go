// Package netprobe answers "is any network transport usable right now?".
//
// The answer is deliberately conservative: if the interface list cannot be
// read, the machine is treated as offline. Probing never blocks on the
// network itself; it only inspects local interface state.
package netprobe

import (
	"context"
	"net/netip"
	"strings"

	"github.com/rs/zerolog"
)

// Probe reports network reachability.
type Probe interface {
	Online(ctx context.Context) bool
}

// Static is a Probe with a fixed answer.
type Static bool

// Online returns the fixed answer.
func (s Static) Online(context.Context) bool { return bool(s) }

// Transport is a coarse interface category used for diagnostics.
type Transport string

const (
	TransportWired    Transport = "wired"
	TransportWireless Transport = "wireless"
	TransportCellular Transport = "cellular"
	TransportOther    Transport = "other"
)

// Interface is the subset of link state the probe needs.
type Interface struct {
	Name     string
	Up       bool
	Running  bool
	Loopback bool
	Addrs    []netip.Addr
}

// Usable reports whether traffic could leave the host through i.
func (i Interface) Usable() bool {
	if i.Loopback || !i.Up || !i.Running {
		return false
	}
	for _, addr := range i.Addrs {
		if addr.IsGlobalUnicast() {
			return true
		}
	}
	return false
}

// Classify guesses the transport of an interface from its kernel name.
func Classify(name string) Transport {
	n := strings.ToLower(name)
	switch {
	case hasAnyPrefix(n, "wl", "wifi", "ath", "ra"):
		return TransportWireless
	case hasAnyPrefix(n, "ww", "rmnet", "ppp", "pdp_ip", "ccmni"):
		return TransportCellular
	case hasAnyPrefix(n, "en", "eth", "em", "bond"):
		return TransportWired
	default:
		return TransportOther
	}
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// System probes the host's interfaces.
type System struct {
	log    zerolog.Logger
	ignore map[string]struct{}
	list   func() ([]Interface, error)
}

// New returns a probe over the host interfaces. Interfaces named in ignore
// (bridges for containers or VMs, typically) never count as a transport.
func New(log zerolog.Logger, ignore []string) *System {
	set := make(map[string]struct{}, len(ignore))
	for _, name := range ignore {
		if name = strings.TrimSpace(name); name != "" {
			set[name] = struct{}{}
		}
	}
	return &System{
		log:    log.With().Str("component", "netprobe").Logger(),
		ignore: set,
		list:   listInterfaces,
	}
}

// Online reports whether at least one wired, wireless or cellular (or other
// non-ignored) interface is usable.
func (s *System) Online(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	ifaces, err := s.list()
	if err != nil {
		s.log.Debug().Err(err).Msg("list interfaces failed, assuming offline")
		return false
	}

	usable := map[Transport]bool{}
	for _, iface := range ifaces {
		if _, skip := s.ignore[iface.Name]; skip {
			continue
		}
		if iface.Usable() {
			usable[Classify(iface.Name)] = true
		}
	}

	online := len(usable) > 0
	s.log.Debug().
		Bool("wired", usable[TransportWired]).
		Bool("wireless", usable[TransportWireless]).
		Bool("cellular", usable[TransportCellular]).
		Bool("other", usable[TransportOther]).
		Bool("online", online).
		Msg("reachability probed")
	return online
}
