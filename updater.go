package duckdns

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultBaseURL is the Duck DNS API host.
const DefaultBaseURL = "https://www.duckdns.org"

// maxBodySize bounds how much of a reply is read; a verbose reply is four short lines.
const maxBodySize = 64 << 10

var discard = newDiscardLogger()

func newDiscardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Result tells the scheduler driving an Updater whether to keep going.
type Result int

const (
	// Continue means the next tick should run as usual.
	Continue Result = iota
	// Disable means the saved configuration can never succeed and further ticks should stop.
	Disable
)

func (r Result) String() string {
	switch r {
	case Continue:
		return "continue"
	case Disable:
		return "disable"
	}
	return fmt.Sprintf("Result(%d)", int(r))
}

// Runner runs one update cycle.
type Runner interface {
	RunCycle(ctx context.Context) Result
}

// RunnerFunc adapts an ordinary function to a Runner.
type RunnerFunc func(ctx context.Context) Result

func (f RunnerFunc) RunCycle(ctx context.Context) Result { return f(ctx) }

// New constructs an Updater which reads its configuration from store.
//
// Options:
//   - UsingNotifier: where outcome messages go (default: dropped)
//   - UsingHTTPClient: the client used for every request (default: a new http.Client owned by the Updater)
//   - UsingBaseURL: the Duck DNS endpoint (default: DefaultBaseURL)
//   - UsingResolver, UsingWebResolver: send an explicit address instead of letting Duck DNS detect it
//   - UsingCloudflare, UsingMirror: copy the reported addresses to another DNS provider
//   - WithLogger: diagnostic logging (default: discarded)
func New(store Store, options ...Option) (*Updater, error) {
	if store == nil {
		return nil, errors.New("duckdns.New: store cannot be nil")
	}
	base, _ := url.Parse(DefaultBaseURL)
	u := &Updater{
		store:      store,
		baseURL:    base,
		httpClient: &http.Client{},
		notifier:   NotifierFunc(func(context.Context, Notification) error { return nil }),
		logger:     discard,
	}
	for i, opt := range options {
		if err := opt(u); err != nil {
			return nil, fmt.Errorf("duckdns.New: option %d returned an error: %s", i, err)
		}
	}

	// options may be given in any order, so dependencies only receive the client and logger once all are registered
	u.propagate()
	return u, nil
}

// Option configures an Updater.
type Option func(*Updater) error

func UsingNotifier(n Notifier) Option {
	return func(u *Updater) error {
		if n == nil {
			return errors.New("duckdns.UsingNotifier: notifier cannot be nil")
		}
		u.notifier = n
		return nil
	}
}

func UsingHTTPClient(httpclient *http.Client) Option {
	return func(u *Updater) error {
		if httpclient == nil {
			httpclient = &http.Client{}
		}
		u.httpClient = httpclient
		return nil
	}
}

func UsingBaseURL(baseURL string) Option {
	return func(u *Updater) error {
		pu, err := url.Parse(baseURL)
		if err != nil {
			return fmt.Errorf("error parsing URL: %w", err)
		}
		if pu.Scheme == "" || pu.Host == "" {
			return fmt.Errorf("base URL %q must be absolute", baseURL)
		}
		u.baseURL = pu
		return nil
	}
}

func UsingResolver(resolver Resolver) Option {
	return func(u *Updater) error {
		u.resolver = resolver
		return nil
	}
}

func UsingWebResolver(serviceURL ...string) Option {
	return func(u *Updater) (err error) {
		u.resolver, err = WebResolver(serviceURL...)
		return err
	}
}

// UsingMirror copies the addresses Duck DNS reports into record at provider after every successful reply.
func UsingMirror(provider Provider, record string) Option {
	return func(u *Updater) error {
		if provider == nil || record == "" {
			return errors.New("duckdns.UsingMirror: provider and record are both required")
		}
		u.mirror, u.mirrorRecord = provider, record
		return nil
	}
}

// UsingCloudflare mirrors the reported addresses into record, a hostname in a zone the token can edit.
func UsingCloudflare(token, record string) Option {
	return func(u *Updater) error {
		p, err := newCloudflareProvider(token)
		if err != nil {
			return fmt.Errorf("duckdns.UsingCloudflare: error creating cloudflare DNS provider: %w", err)
		}
		return UsingMirror(p, record)(u)
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(u *Updater) error {
		if logger == nil {
			logger = discard
		}
		u.logger = logger
		return nil
	}
}

func (u *Updater) propagate() {
	type setLogger interface {
		SetLogger(logrus.FieldLogger)
	}
	type setHTTPClient interface {
		SetHTTPClient(*http.Client)
	}
	for _, dep := range []any{u.resolver, u.mirror} {
		if l, ok := dep.(setLogger); ok {
			l.SetLogger(u.logger)
		}
		if c, ok := dep.(setHTTPClient); ok {
			c.SetHTTPClient(u.httpClient)
		}
	}
}

// Updater sends the saved domains and token to Duck DNS and reports what happened.
type Updater struct {
	store        Store
	notifier     Notifier
	httpClient   *http.Client
	baseURL      *url.URL
	resolver     Resolver
	mirror       Provider
	mirrorRecord string
	logger       logrus.FieldLogger
}

// RunCycle makes a single best-effort update attempt.
//
// Every outcome other than a silent "no change" ends in a notification.
// RunCycle returns Disable only when the saved configuration is missing its domains or token;
// request failures return Continue and are left for the next tick.
func (u *Updater) RunCycle(ctx context.Context) Result {
	log := u.logger
	if id, ok := cycleID(ctx); ok {
		log = log.WithField("cycle", id)
	}

	c, err := u.store.Load(ctx)
	if err != nil {
		log.WithError(err).Error("unable to read configuration")
		u.notify(ctx, log, "Configuration could not be read | "+err.Error(), DefaultExpiry)
		return Continue
	}
	if !c.Valid() {
		log.Warn("configuration is missing domains or token")
		u.notify(ctx, log, "Configuration invalid", 24*time.Hour)
		return Disable
	}

	resp, body, err := u.update(ctx, log, c)
	if err != nil {
		log.WithError(err).Error("update request failed")
		u.notify(ctx, log, "Update request failed | "+err.Error(), DefaultExpiry)
		return Continue
	}
	log = log.WithFields(logrus.Fields{"ipv4": resp.IPv4, "ipv6": resp.IPv6, "status": resp.Status})

	if resp.Success != OK {
		log.Warn("duck dns rejected the update")
		u.notify(ctx, log, "Failed to update Public IP | "+body, DefaultExpiry)
		return Continue
	}
	switch resp.Status {
	case Updated:
		log.Info("public IP updated")
		u.notify(ctx, log, "Successfully updated Public IP", DefaultExpiry)
	case NoChange:
		log.Debug("public IP unchanged")
	}

	u.updateMirror(ctx, log, resp)
	return Continue
}

func (u *Updater) update(ctx context.Context, log logrus.FieldLogger, c Configuration) (Response, string, error) {
	q := url.Values{}
	q.Set("domains", c.DomainNames)
	q.Set("token", c.Token)
	q.Set("verbose", "true")

	if u.resolver != nil {
		addrs, err := u.resolver.Resolve(ctx)
		if err != nil {
			return Response{}, "", fmt.Errorf("error resolving public IP: %w", err)
		}
		for _, a := range addrs {
			a = a.Unmap()
			if a.Is4() && !q.Has("ip") {
				q.Set("ip", a.String())
			}
			if a.Is6() && !q.Has("ipv6") {
				q.Set("ipv6", a.String())
			}
		}
	}

	endpoint := u.baseURL.JoinPath("update")
	endpoint.RawQuery = q.Encode()

	// the caller's context may have no deadline and neither may the http.Client
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return Response{}, "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	log.WithField("domains", c.DomainNames).Debugf("sending update request to %s", u.baseURL.Host)
	resp, err := u.httpClient.Do(req)
	if err != nil {
		return Response{}, "", fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return Response{}, "", fmt.Errorf("error reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Response{}, "", fmt.Errorf("http request returned %s", resp.Status)
	}
	body := string(b)
	r, err := ParseResponse(body)
	if err != nil {
		return Response{}, body, err
	}
	return r, body, nil
}

func (u *Updater) updateMirror(ctx context.Context, log logrus.FieldLogger, r Response) {
	if u.mirror == nil {
		return
	}
	var addrs []netip.Addr
	for _, s := range []string{r.IPv4, r.IPv6} {
		if s == "" {
			continue
		}
		a, err := netip.ParseAddr(s)
		if err != nil {
			log.WithError(err).Warnf("skipping unparseable address %q", s)
			continue
		}
		addrs = append(addrs, a)
	}
	if len(addrs) == 0 {
		return
	}
	if err := u.mirror.SetDNSRecords(ctx, u.mirrorRecord, addrs); err != nil {
		log.WithError(err).Errorf("unable to mirror addresses to %s", u.mirrorRecord)
		u.notify(ctx, log, "Mirror update failed | "+err.Error(), DefaultExpiry)
	}
}

func (u *Updater) notify(ctx context.Context, log logrus.FieldLogger, msg string, expiry time.Duration) {
	n := Notification{Title: Title, Message: msg, Expiry: expiry}
	if err := u.notifier.Notify(ctx, n); err != nil {
		log.WithError(err).Warn("notification was not delivered")
	}
}
