//go:build linux

package netprobe

import (
	"fmt"
	"net"
	"net/netip"

	"github.com/vishvananda/netlink"
)

func listInterfaces() ([]Interface, error) {
	links, err := netlink.LinkList()
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}

	out := make([]Interface, 0, len(links))
	for _, link := range links {
		attrs := link.Attrs()
		if attrs == nil {
			continue
		}
		iface := Interface{
			Name:     attrs.Name,
			Up:       attrs.Flags&net.FlagUp != 0,
			Running:  attrs.OperState == netlink.OperUp || attrs.Flags&net.FlagRunning != 0,
			Loopback: attrs.Flags&net.FlagLoopback != 0,
		}
		addrs, err := netlink.AddrList(link, netlink.FAMILY_ALL)
		if err != nil {
			return nil, fmt.Errorf("list addresses for %s: %w", attrs.Name, err)
		}
		for _, a := range addrs {
			if a.IPNet == nil {
				continue
			}
			if ip, ok := netip.AddrFromSlice(a.IP); ok {
				iface.Addrs = append(iface.Addrs, ip.Unmap())
			}
		}
		out = append(out, iface)
	}
	return out, nil
}
