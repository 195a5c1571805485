//go:build !linux

package netprobe

import (
	"fmt"
	"net"
	"net/netip"
)

func listInterfaces() ([]Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("list interfaces: %w", err)
	}

	out := make([]Interface, 0, len(ifaces))
	for _, ni := range ifaces {
		iface := Interface{
			Name:     ni.Name,
			Up:       ni.Flags&net.FlagUp != 0,
			Running:  ni.Flags&net.FlagRunning != 0,
			Loopback: ni.Flags&net.FlagLoopback != 0,
		}
		addrs, err := ni.Addrs()
		if err != nil {
			return nil, fmt.Errorf("list addresses for %s: %w", ni.Name, err)
		}
		for _, a := range addrs {
			ipnet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			if ip, ok := netip.AddrFromSlice(ipnet.IP); ok {
				iface.Addrs = append(iface.Addrs, ip.Unmap())
			}
		}
		out = append(out, iface)
	}
	return out, nil
}
