// Package dns provides DNS resolution against a configurable, ordered
// list of nameservers. This is part of the Imperative Shell - handles
// I/O (DNS queries).
package dns

import (
	"context"
	"net"
	"strings"
	"time"

	mdns "github.com/miekg/dns"
)

// Query types accepted by Resolve.
const (
	TypeA     = mdns.TypeA
	TypeAAAA  = mdns.TypeAAAA
	TypeCNAME = mdns.TypeCNAME
	TypeNS    = mdns.TypeNS
)

// Config holds process-wide resolver settings, loaded once at startup
// and never mutated after.
type Config struct {
	// Servers is the ordered list of nameserver addresses. A bare IP
	// gets port 53 appended.
	Servers []string

	// Timeout bounds each individual query.
	Timeout time.Duration
}

// DefaultConfig returns the resolver settings used when none are
// configured.
func DefaultConfig() Config {
	return Config{
		Servers: []string{"8.8.8.8", "8.8.4.4", "1.1.1.1", "1.0.0.1"},
		Timeout: 30 * time.Second,
	}
}

// Resolver performs DNS queries for domain verification. There is no
// retry at this layer; retry/backoff is the caller's responsibility,
// because only the caller knows whether retrying is meaningful for that
// call site.
type Resolver struct {
	servers []string
	client  *mdns.Client
}

// NewResolver creates a resolver for the configured nameservers.
func NewResolver(cfg Config) *Resolver {
	if len(cfg.Servers) == 0 {
		cfg.Servers = DefaultConfig().Servers
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	servers := make([]string, 0, len(cfg.Servers))
	for _, s := range cfg.Servers {
		if _, _, err := net.SplitHostPort(s); err != nil {
			s = net.JoinHostPort(s, "53")
		}
		servers = append(servers, s)
	}

	return &Resolver{
		servers: servers,
		client:  &mdns.Client{Net: "udp", Timeout: cfg.Timeout},
	}
}

// Resolve queries each configured server in order and returns the record
// values from the first server that answers. Any failure (timeout,
// NXDOMAIN, network error) yields an empty result rather than an error;
// callers treat empty as "could not confirm", not as fatal. Trailing
// dots are stripped for comparison stability.
func (r *Resolver) Resolve(ctx context.Context, name string, qtype uint16) []string {
	m := new(mdns.Msg)
	m.SetQuestion(mdns.Fqdn(name), qtype)
	m.RecursionDesired = true

	for _, server := range r.servers {
		resp, _, err := r.client.ExchangeContext(ctx, m, server)
		if err != nil || resp == nil || resp.Rcode != mdns.RcodeSuccess {
			continue
		}
		if values := recordValues(resp.Answer, qtype); len(values) > 0 {
			return values
		}
	}
	return nil
}

// recordValues extracts the values matching qtype from an answer section.
// CNAMEs included in an A response are ignored here; callers ask for
// them explicitly when they matter.
func recordValues(answers []mdns.RR, qtype uint16) []string {
	var values []string
	for _, rr := range answers {
		if rr.Header().Rrtype != qtype {
			continue
		}
		switch rec := rr.(type) {
		case *mdns.A:
			values = append(values, rec.A.String())
		case *mdns.AAAA:
			values = append(values, rec.AAAA.String())
		case *mdns.CNAME:
			values = append(values, strings.TrimSuffix(rec.Target, "."))
		case *mdns.NS:
			values = append(values, strings.TrimSuffix(rec.Ns, "."))
		}
	}
	return values
}
