package duckdns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
)

// InterfaceResolver constructs a resolver that returns the global unicast addresses of the given interfaces.
// With no interfaces every interface is considered.
//
// This is useful when the machine holds its public address directly, as on a VPS or behind IPv6 without NAT.
func InterfaceResolver(iface ...string) Resolver {
	return interfaceResolver{ifaces: iface}
}

type interfaceResolver struct {
	ifaces []string
}

func (r interfaceResolver) Resolve(ctx context.Context) ([]netip.Addr, error) {
	if len(r.ifaces) == 0 {
		a, err := net.InterfaceAddrs()
		if err != nil {
			return nil, fmt.Errorf("error listing interface addresses: %w", err)
		}
		return globalAddrs(a)
	}

	var addrs []netip.Addr
	var errs []error
	for _, name := range r.ifaces {
		iface, err := net.InterfaceByName(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("error getting interface %s by name: %w", name, err))
			continue
		}
		a, err := iface.Addrs()
		if err != nil {
			errs = append(errs, fmt.Errorf("error looking up addresses for interface %s: %w", name, err))
			continue
		}
		found, err := globalAddrs(a)
		if err != nil {
			errs = append(errs, fmt.Errorf("interface %s: %w", name, err))
		}
		addrs = append(addrs, found...)
	}
	return addrs, errors.Join(errs...)
}

// globalAddrs drops loopback, link-local and private addresses, which Duck DNS would refuse to publish anyway.
func globalAddrs(in []net.Addr) (addrs []netip.Addr, err error) {
	var errs []error
	for _, a := range in {
		// a.String() looks like 192.168.86.253/24 or fe80::2cc9:801b:3551:9a43/64
		p, err := netip.ParsePrefix(a.String())
		if err != nil {
			errs = append(errs, fmt.Errorf("error parsing local ip %s: %s", a.String(), err))
			continue
		}
		ip := p.Addr()
		if !ip.IsGlobalUnicast() || ip.IsPrivate() {
			continue
		}
		addrs = append(addrs, ip)
	}
	return addrs, errors.Join(errs...)
}
