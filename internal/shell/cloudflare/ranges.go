// Package cloudflare supplies the current set of Cloudflare proxy CIDR
// ranges. This is part of the Imperative Shell - the live source fetches
// over HTTP.
package cloudflare

import (
	"context"
	"log/slog"
	"time"

	cf "github.com/cloudflare/cloudflare-go"

	"github.com/artpar/domainctl/internal/core/dnscheck"
)

// RangeSource supplies the proxy CIDR ranges for Cloudflare's edge.
type RangeSource interface {
	Ranges(ctx context.Context) (dnscheck.CIDRSet, error)
}

// =============================================================================
// Live Source
// =============================================================================

// fetchTimeout bounds the range fetch. The fetch is best-effort; a slow
// API must not stall a verification run.
const fetchTimeout = 10 * time.Second

// APISource fetches the published ranges from the Cloudflare API.
type APISource struct{}

// Ranges returns the current ipv4/ipv6 CIDR ranges.
func (APISource) Ranges(ctx context.Context) (dnscheck.CIDRSet, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	type fetched struct {
		ranges cf.IPRanges
		err    error
	}
	ch := make(chan fetched, 1)
	go func() {
		ranges, err := cf.IPs()
		ch <- fetched{ranges, err}
	}()

	select {
	case <-ctx.Done():
		return dnscheck.CIDRSet{}, ctx.Err()
	case res := <-ch:
		if res.err != nil {
			return dnscheck.CIDRSet{}, res.err
		}
		return dnscheck.CIDRSet{
			IPv4: res.ranges.IPv4CIDRs,
			IPv6: res.ranges.IPv6CIDRs,
		}, nil
	}
}

// =============================================================================
// Static Fallback
// =============================================================================

// fallbackV4 is a minimal snapshot of Cloudflare's ipv4 ranges. Stale
// ranges here risk a missed proxy detection (a false negative), not a
// wrong provisioning decision, so falling back is acceptable.
var fallbackV4 = []string{
	"173.245.48.0/20", "103.21.244.0/22", "103.22.200.0/22", "103.31.4.0/22",
	"141.101.64.0/18", "108.162.192.0/18", "190.93.240.0/20", "188.114.96.0/20",
	"197.234.240.0/22", "198.41.128.0/17", "162.158.0.0/15", "104.16.0.0/13",
	"104.24.0.0/14", "172.64.0.0/13", "131.0.72.0/22",
}

// StaticSource returns the hardcoded fallback set. It never fails.
type StaticSource struct{}

func (StaticSource) Ranges(_ context.Context) (dnscheck.CIDRSet, error) {
	return dnscheck.CIDRSet{IPv4: append([]string(nil), fallbackV4...)}, nil
}

// =============================================================================
// Try/Fallback Policy
// =============================================================================

// FallbackSource tries the primary source and falls back to the
// secondary when the primary fails.
type FallbackSource struct {
	Primary   RangeSource
	Secondary RangeSource
	Logger    *slog.Logger
}

func (s FallbackSource) Ranges(ctx context.Context) (dnscheck.CIDRSet, error) {
	set, err := s.Primary.Ranges(ctx)
	if err == nil {
		return set, nil
	}
	if s.Logger != nil {
		s.Logger.Warn("failed to fetch Cloudflare IP ranges, using fallback", "error", err)
	}
	return s.Secondary.Ranges(ctx)
}

// DefaultSource returns the live API source backed by the static
// fallback set.
func DefaultSource(logger *slog.Logger) RangeSource {
	return FallbackSource{
		Primary:   APISource{},
		Secondary: StaticSource{},
		Logger:    logger,
	}
}
