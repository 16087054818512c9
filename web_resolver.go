package duckdns

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// WebResolver constructs a resolver which asks external web services for the public IP address.
//
// Each serviceURL must speak http and return status "200 OK",
// with a valid IPv4 or IPv6 address as the first line of the response body.
// All other responses are considered an error.
//
// With a single serviceURL the resolver returns whatever that service reports.
// With several, it requests from up to three of them and only succeeds if the first two non-error responses agree.
//
// Duck DNS already detects the address of the update request itself,
// so a WebResolver is only needed when that address is not the one that should be published,
// for example when updates leave through a different route than inbound traffic.
func WebResolver(serviceURL ...string) (Resolver, error) {
	if len(serviceURL) == 0 {
		return nil, errors.New("duckdns.WebResolver: at least one service URL is required")
	}
	var URLs []*url.URL
	for _, u := range serviceURL {
		pu, err := url.Parse(u)
		if err != nil {
			return nil, fmt.Errorf("error parsing URL: %w", err)
		}
		if pu.Scheme != "http" && pu.Scheme != "https" {
			return nil, fmt.Errorf("unsupported scheme in %q", u)
		}
		URLs = append(URLs, pu)
	}
	return &webResolver{serviceURLs: URLs, logger: discard}, nil
}

type webResolver struct {
	httpClient  *http.Client
	serviceURLs []*url.URL
	logger      logrus.FieldLogger
}

func (wr *webResolver) SetHTTPClient(c *http.Client) { wr.httpClient = c }

func (wr *webResolver) SetLogger(l logrus.FieldLogger) { wr.logger = l }

// Resolve implements duckdns.Resolver.
func (wr *webResolver) Resolve(ctx context.Context) ([]netip.Addr, error) {
	if len(wr.serviceURLs) == 1 {
		ip, err := wr.lookup(ctx, wr.serviceURLs[0])
		if err != nil {
			return nil, err
		}
		return []netip.Addr{ip}, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		addr netip.Addr
		err  error
	}

	const useCount = 3
	results := make(chan result, useCount)

	var wg sync.WaitGroup
	wg.Add(useCount)
	for i := 0; i < useCount; i++ {
		u := wr.serviceURLs[i%len(wr.serviceURLs)]
		go func() {
			defer wg.Done()
			r := result{}
			r.addr, r.err = wr.lookup(ctx, u)
			results <- r
		}()
	}
	go func() { wg.Wait(); close(results) }()

	resultCount := 0
	var errs []error
	var ip netip.Addr
	for r := range results {
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}
		resultCount++
		if !ip.IsValid() {
			ip = r.addr
			continue
		}
		if ip == r.addr {
			return []netip.Addr{ip}, nil
		}
		wr.logger.Warnf("public IP lookups disagree: %s != %s", ip, r.addr)
	}
	if resultCount < 2 {
		return nil, fmt.Errorf("not enough resolvers responded without errors: %w", errors.Join(errs...))
	}
	return nil, errors.New("IP resolvers did not agree on our IP")
}

func (wr *webResolver) lookup(ctx context.Context, u *url.URL) (netip.Addr, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	httpclient := wr.httpClient
	if httpclient == nil {
		httpclient = http.DefaultClient
	}

	resp, err := httpclient.Do(req)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return netip.Addr{}, fmt.Errorf("%s returned %s", u.Host, resp.Status)
	}

	line, _ := bufio.NewReader(resp.Body).ReadString('\n')
	ip, err := netip.ParseAddr(strings.TrimSpace(line))
	if err != nil {
		return netip.Addr{}, fmt.Errorf("error parsing IP address from %s: %w", u.Host, err)
	}
	wr.logger.Debugf("%s reported %s", u.Host, ip)
	return ip, nil
}
