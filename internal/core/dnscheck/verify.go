package dnscheck

// =============================================================================
// Verification Result
// =============================================================================

// ProxyStatus describes the CDN proxy state observed for a domain.
type ProxyStatus string

const (
	// ProxyStatusNotApplicable means the domain is not hosted on a CDN
	// whose ranges this system tracks.
	ProxyStatusNotApplicable ProxyStatus = ""

	// ProxyStatusEnabled means the published A records belong to the
	// CDN's edge, masking the true origin.
	ProxyStatusEnabled ProxyStatus = "enabled"

	// ProxyStatusDisabled means the domain is on the tracked CDN but its
	// A records point outside the proxy ranges.
	ProxyStatusDisabled ProxyStatus = "disabled"
)

// Result is the outcome of one DNS verification run. Produced once per
// verification call; immutable. Callers decide exit-code semantics from
// the structured fields, not from errors.
type Result struct {
	Domain      string
	ResolvedIPs []string
	Matched     bool
	Provider    string
	ProxyStatus ProxyStatus
	Message     string
}

// MatchExpected reports whether any resolved IP is in the expected set.
// An empty expected set is vacuously true: the caller only wanted the
// existence of the mapping confirmed.
func MatchExpected(resolved, expected []string) bool {
	if len(expected) == 0 {
		return true
	}
	for _, ip := range resolved {
		for _, want := range expected {
			if ip == want {
				return true
			}
		}
	}
	return false
}
