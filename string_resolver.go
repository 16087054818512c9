package duckdns

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"sync"

	"github.com/sirupsen/logrus"
)

// FromString constructs a resolver that always returns the fixed address addr.
func FromString(addr string) (Resolver, error) {
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse IP: %w", err)
	}
	return staticResolver{ip}, nil
}

type staticResolver []netip.Addr

func (s staticResolver) Resolve(context.Context) ([]netip.Addr, error) {
	return append([]netip.Addr(nil), s...), nil
}

// Join runs every resolver concurrently and concatenates their addresses in argument order.
// Any error fails the whole lookup.
//
// A common use is one IPv4-only and one IPv6-only WebResolver, so that Duck DNS receives both ip and ipv6.
func Join(resolvers ...Resolver) Resolver {
	return joinResolver(resolvers)
}

type joinResolver []Resolver

func (j joinResolver) Resolve(ctx context.Context) ([]netip.Addr, error) {
	found := make([][]netip.Addr, len(j))
	errs := make([]error, len(j))

	var wg sync.WaitGroup
	for i, r := range j {
		wg.Add(1)
		go func(i int, r Resolver) {
			defer wg.Done()
			found[i], errs[i] = r.Resolve(ctx)
		}(i, r)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	var addrs []netip.Addr
	for _, a := range found {
		addrs = append(addrs, a...)
	}
	return addrs, nil
}

func (j joinResolver) SetHTTPClient(c *http.Client) {
	for _, r := range j {
		if s, ok := r.(interface{ SetHTTPClient(*http.Client) }); ok {
			s.SetHTTPClient(c)
		}
	}
}

func (j joinResolver) SetLogger(l logrus.FieldLogger) {
	for _, r := range j {
		if s, ok := r.(interface{ SetLogger(logrus.FieldLogger) }); ok {
			s.SetLogger(l)
		}
	}
}
