// Package verifier implements end-to-end DNS verification: provider
// identification, Cloudflare proxy detection and A-record comparison
// with bounded retry. This is part of the Imperative Shell - it drives
// DNS queries and the range fetch; the decisions themselves live in
// core/dnscheck.
package verifier

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/artpar/domainctl/internal/core/dnscheck"
	"github.com/artpar/domainctl/internal/shell/cloudflare"
	shelldns "github.com/artpar/domainctl/internal/shell/dns"
)

// Resolver is the subset of DNS resolution the verifier needs.
type Resolver interface {
	Resolve(ctx context.Context, name string, qtype uint16) []string
}

// Verifier composes provider identification, proxy detection and
// A-record verification into the "does this domain point where we
// expect" decision.
type Verifier struct {
	resolver Resolver
	ranges   cloudflare.RangeSource
	retries  int
	logger   *slog.Logger

	// sleep is swapped out in tests to observe backoff without waiting.
	sleep func(time.Duration)
}

// New creates a verifier. retries is the A-record attempt budget,
// clamped to a minimum of one.
func New(resolver Resolver, ranges cloudflare.RangeSource, retries int, logger *slog.Logger) *Verifier {
	if retries < 1 {
		retries = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{
		resolver: resolver,
		ranges:   ranges,
		retries:  retries,
		logger:   logger.With("component", "verifier"),
		sleep:    time.Sleep,
	}
}

// Verify runs the full check for domain against expectedIPs. The result
// always carries the provider, proxy status and resolved set, regardless
// of success; callers decide exit-code semantics from the structured
// result, not from errors.
func (v *Verifier) Verify(ctx context.Context, domain string, expectedIPs []string) dnscheck.Result {
	result := dnscheck.Result{
		Domain:      domain,
		ProxyStatus: dnscheck.ProxyStatusNotApplicable,
	}

	base := dnscheck.BaseDomain(domain)
	v.logger.Info("identifying DNS provider", "base_domain", base)
	nsRecords := v.resolver.Resolve(ctx, base, shelldns.TypeNS)
	result.Provider = dnscheck.IdentifyProvider(nsRecords)
	v.logger.Info("DNS provider identified", "provider", result.Provider)

	if result.Provider == dnscheck.ProviderCloudflare {
		set, err := v.ranges.Ranges(ctx)
		if err != nil {
			// The range source is expected to fail open on its own; a
			// hard failure here degrades to "no proxy detected".
			v.logger.Warn("no Cloudflare ranges available", "error", err)
			set = dnscheck.CIDRSet{}
		}

		v.logger.Info("checking Cloudflare proxy", "domain", domain)
		aRecords := v.resolver.Resolve(ctx, domain, shelldns.TypeA)
		if dnscheck.IsProxied(aRecords, set) {
			// CDN-fronted addresses will never match origin IPs, so an
			// A-record comparison would report a misleading mismatch.
			result.ResolvedIPs = aRecords
			result.ProxyStatus = dnscheck.ProxyStatusEnabled
			result.Message = "Please disable the proxy in Cloudflare to match SSL certificate"
			v.logger.Warn("domain is using Cloudflare proxy", "domain", domain)
			return result
		}
		result.ProxyStatus = dnscheck.ProxyStatusDisabled
		v.logger.Info("Cloudflare proxy is disabled, checking A records")
	}

	v.verifyARecords(ctx, domain, expectedIPs, &result)
	return result
}

// verifyARecords resolves the domain's A records with up to the
// configured attempt budget and exponential backoff, then compares them
// against the expected set.
func (v *Verifier) verifyARecords(ctx context.Context, domain string, expectedIPs []string, result *dnscheck.Result) {
	v.logger.Info("verifying A records", "domain", domain)
	result.Message = "not matched"

	for attempt := 0; attempt < v.retries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(1<<attempt) * time.Second
			v.logger.Info("retrying DNS resolution", "attempt", attempt, "delay", delay)
			v.sleep(delay)
		}
		last := attempt == v.retries-1

		resolved := v.resolver.Resolve(ctx, domain, shelldns.TypeA)
		if len(resolved) == 0 {
			cname := v.resolver.Resolve(ctx, domain, shelldns.TypeCNAME)
			if len(cname) > 0 {
				v.logger.Info("domain has CNAME record", "cname", strings.Join(cname, ", "))
				if last {
					v.logger.Warn("CNAME present, but no A records resolved", "domain", domain)
					return
				}
			} else if last {
				v.logger.Error("no A or CNAME records found", "domain", domain)
				return
			}
			continue
		}

		result.ResolvedIPs = resolved
		v.logger.Info("resolved IPs", "ips", strings.Join(resolved, " "))

		if dnscheck.MatchExpected(resolved, expectedIPs) {
			result.Matched = true
			result.Message = "matched"
			v.logger.Info("DNS verification successful", "domain", domain)
			return
		}
		if last {
			v.logger.Warn("DNS verification failed",
				"domain", domain,
				"resolved", strings.Join(resolved, " "),
				"expected", strings.Join(expectedIPs, " "))
			return
		}
	}
}
