package dnscheck

import "net/netip"

// =============================================================================
// CDN Proxy Detection
// =============================================================================

// CIDRSet holds the ipv4/ipv6 proxy CIDR ranges for a CDN. Fetched lazily
// and held for the lifetime of one verification run.
type CIDRSet struct {
	IPv4 []string
	IPv6 []string
}

// Empty reports whether the set contains no ranges at all.
func (s CIDRSet) Empty() bool {
	return len(s.IPv4) == 0 && len(s.IPv6) == 0
}

// Contains reports whether ip falls inside any CIDR in the set.
// Malformed ranges and addresses are skipped, never fatal.
func (s CIDRSet) Contains(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	for _, ranges := range [][]string{s.IPv4, s.IPv6} {
		for _, cidr := range ranges {
			prefix, err := netip.ParsePrefix(cidr)
			if err != nil {
				continue
			}
			if prefix.Contains(addr) {
				return true
			}
		}
	}
	return false
}

// IsProxied reports whether any resolved A record falls inside the CDN's
// proxy ranges. No records resolving is not evidence of proxying.
func IsProxied(aRecords []string, set CIDRSet) bool {
	for _, ip := range aRecords {
		if set.Contains(ip) {
			return true
		}
	}
	return false
}
