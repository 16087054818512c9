package duckdns

import (
	"context"
	"net/netip"
)

// Store persists the single Duck DNS configuration record.
type Store interface {
	// Load returns the saved configuration.
	// A missing record is not an error; it yields an empty (invalid) Configuration.
	Load(ctx context.Context) (Configuration, error)
	// Save replaces the saved configuration in full.
	Save(ctx context.Context, c Configuration) error
}

// Notifier shows a message to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts an ordinary function to a Notifier.
type NotifierFunc func(ctx context.Context, n Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n Notification) error { return f(ctx, n) }

type Resolver interface {
	Resolve(context.Context) ([]netip.Addr, error)
}

// ResolverFunc adapts an ordinary function to a Resolver.
type ResolverFunc func(context.Context) ([]netip.Addr, error)

func (f ResolverFunc) Resolve(ctx context.Context) ([]netip.Addr, error) { return f(ctx) }

// Provider writes address records for a hostname somewhere other than Duck DNS.
type Provider interface {
	SetDNSRecords(ctx context.Context, domain string, records []netip.Addr) error
}
