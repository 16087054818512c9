package duckdns

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"strings"

	"github.com/cloudflare/cloudflare-go"
	"github.com/sirupsen/logrus"
)

func newCloudflareProvider(token string, opts ...cloudflare.Option) (*cloudflareProvider, error) {
	if token == "" {
		return nil, errors.New("an API token is required")
	}
	api, err := cloudflare.NewWithAPIToken(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("error creating cloudflare api client: %w", err)
	}
	return &cloudflareProvider{
		api:     api,
		logger:  discard,
		comment: "mirrored from duck dns",
	}, nil
}

// cloudflareProvider implements duckdns.Provider.
// A hostname ends up with exactly one A/AAAA record per address it is given.
type cloudflareProvider struct {
	api     *cloudflare.API
	logger  logrus.FieldLogger
	comment string // attached to each record it creates
}

func (cf *cloudflareProvider) SetHTTPClient(c *http.Client) {
	// cloudflare.HTTPClient never fails
	_ = cloudflare.HTTPClient(c)(cf.api)
}

func (cf *cloudflareProvider) SetLogger(l logrus.FieldLogger) { cf.logger = l }

func (cf *cloudflareProvider) SetDNSRecords(ctx context.Context, domain string, addrs []netip.Addr) error {
	zid, err := cf.zoneID(ctx, domain)
	if err != nil {
		return fmt.Errorf("unable to get zone ID for %s: %w", domain, err)
	}
	log := cf.logger.WithFields(logrus.Fields{"zone": zid, "record": domain})

	records, _, err := cf.api.ListDNSRecords(ctx, cloudflare.ZoneIdentifier(zid), cloudflare.ListDNSRecordsParams{
		Type: "A,AAAA",
		Name: domain,
	})
	if err != nil {
		return fmt.Errorf("error listing DNS records: %w", err)
	}
	log.Debugf("found %d existing records", len(records))

	want := map[netip.Addr]bool{}
	for _, a := range addrs {
		want[a.Unmap()] = true
	}
	existing := map[netip.Addr]bool{}
	for _, r := range records {
		a, err := netip.ParseAddr(r.Content)
		if err != nil {
			return fmt.Errorf("error parsing IP from record %s: %w", r.ID, err)
		}
		if want[a] {
			existing[a] = true
			continue
		}
		log.Infof("deleting stale record for %s", a)
		if err := cf.api.DeleteDNSRecord(ctx, cloudflare.ZoneIdentifier(zid), r.ID); err != nil {
			return fmt.Errorf("unable to delete DNS record %s: %w", r.ID, err)
		}
	}

	for a := range want {
		if existing[a] {
			continue
		}
		log.Infof("creating record for %s", a)
		_, err := cf.api.CreateDNSRecord(ctx, cloudflare.ZoneIdentifier(zid), cloudflare.CreateDNSRecordParams{
			Type:    recordType(a),
			Name:    domain,
			Content: a.String(),
			ZoneID:  zid,
			TTL:     60,
			Comment: cf.comment,
		})
		if err != nil {
			return fmt.Errorf("error creating DNS record: %w", err)
		}
	}
	return nil
}

// zoneID picks the longest zone name that domain falls under.
func (cf *cloudflareProvider) zoneID(ctx context.Context, domain string) (zid string, err error) {
	zones, err := cf.api.ListZones(ctx)
	if err != nil {
		return "", fmt.Errorf("error listing zones: %w", err)
	}
	return longestZoneMatch(domain, zones)
}

func longestZoneMatch(domain string, zones []cloudflare.Zone) (string, error) {
	domain = strings.TrimSuffix(strings.ToLower(domain), ".")
	zid, max := "", 0
	for _, z := range zones {
		name := strings.ToLower(z.Name)
		if (domain == name || strings.HasSuffix(domain, "."+name)) && len(name) > max {
			max, zid = len(name), z.ID
		}
	}
	if zid == "" {
		return "", fmt.Errorf("unable to find a zone matching %q", domain)
	}
	return zid, nil
}

func recordType(a netip.Addr) string {
	if a.Is4() {
		return "A"
	}
	return "AAAA"
}
