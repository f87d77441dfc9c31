// Package dnscheck contains pure functions for DNS verification logic:
// provider identification, CDN proxy detection and expected-IP matching.
// This is part of the Functional Core - all functions are pure with no I/O.
package dnscheck

import "strings"

// =============================================================================
// Provider Identification
// =============================================================================

// UnknownProvider is returned when no nameserver matches a known signature.
const UnknownProvider = "Unknown provider"

// ProviderCloudflare is the one provider whose proxy ranges we track.
const ProviderCloudflare = "Cloudflare"

// providerSignature maps a nameserver-hostname substring to a DNS hosting
// provider name.
type providerSignature struct {
	substr string
	name   string
}

// providerSignatures is checked in order; the first substring match wins.
// Note "ns1" must come after the more specific signatures it would shadow.
var providerSignatures = []providerSignature{
	{"awsdns", "Route 53"},
	{"cloudflare", ProviderCloudflare},
	{"godaddy", "GoDaddy"},
	{"dns.google", "Google Cloud DNS"},
	{"dnsmadeeasy", "DNS Made Easy"},
	{"registrar-servers", "Namecheap"},
	{"networksolutions", "Network Solutions"},
	{"azure-dns", "Microsoft Azure DNS"},
	{"ns.digitalocean", "DigitalOcean"},
	{"ns1", "NS1"},
	{"ultradns", "UltraDNS"},
	{"yahoo", "Yahoo Small Business"},
	{"akamai", "Akamai"},
	{"rackspace", "Rackspace Cloud DNS"},
	{"oraclecloud", "Oracle Cloud DNS"},
}

// BaseDomain derives the registrable base domain by taking the last two
// dot-separated labels. This is a heuristic, not a public-suffix-list
// lookup, and is wrong for multi-label suffixes such as co.uk.
func BaseDomain(domain string) string {
	parts := strings.Split(strings.Trim(domain, "."), ".")
	if len(parts) > 2 {
		return strings.Join(parts[len(parts)-2:], ".")
	}
	return domain
}

// IdentifyProvider classifies nameserver hostnames against the signature
// table. It returns the first signature matched by the first matching
// nameserver, or UnknownProvider. Best-effort classification - never
// authoritative, never blocks subsequent checks.
func IdentifyProvider(nsRecords []string) string {
	for _, ns := range nsRecords {
		ns = strings.ToLower(ns)
		for _, sig := range providerSignatures {
			if strings.Contains(ns, sig.substr) {
				return sig.name
			}
		}
	}
	return UnknownProvider
}
