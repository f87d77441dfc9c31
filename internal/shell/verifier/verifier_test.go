package verifier

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/domainctl/internal/core/dnscheck"
	shelldns "github.com/artpar/domainctl/internal/shell/dns"
)

// fakeResolver serves canned answers. A queries consume aBatches one per
// call; the final batch sticks.
type fakeResolver struct {
	ns       []string
	cname    []string
	aBatches [][]string
	aCalls   int
}

func (f *fakeResolver) Resolve(_ context.Context, _ string, qtype uint16) []string {
	switch qtype {
	case shelldns.TypeNS:
		return f.ns
	case shelldns.TypeCNAME:
		return f.cname
	case shelldns.TypeA:
		f.aCalls++
		if len(f.aBatches) == 0 {
			return nil
		}
		batch := f.aBatches[0]
		if len(f.aBatches) > 1 {
			f.aBatches = f.aBatches[1:]
		}
		return batch
	}
	return nil
}

type fakeRanges struct {
	set dnscheck.CIDRSet
	err error
}

func (f fakeRanges) Ranges(context.Context) (dnscheck.CIDRSet, error) {
	return f.set, f.err
}

var cloudflareRanges = fakeRanges{set: dnscheck.CIDRSet{IPv4: []string{"104.16.0.0/13"}}}

func newTestVerifier(t *testing.T, r Resolver, ranges fakeRanges, retries int) (*Verifier, *[]time.Duration) {
	t.Helper()
	v := New(r, ranges, retries, nil)
	var slept []time.Duration
	v.sleep = func(d time.Duration) { slept = append(slept, d) }
	return v, &slept
}

// =============================================================================
// A-Record Verification
// =============================================================================

func TestVerify_Matched(t *testing.T) {
	r := &fakeResolver{
		ns:       []string{"ns-99.awsdns-01.net"},
		aBatches: [][]string{{"203.0.113.10"}},
	}
	v, slept := newTestVerifier(t, r, fakeRanges{}, 3)

	result := v.Verify(context.Background(), "app.example.com", []string{"203.0.113.10"})

	assert.True(t, result.Matched)
	assert.Equal(t, "matched", result.Message)
	assert.Equal(t, "Route 53", result.Provider)
	assert.Equal(t, dnscheck.ProxyStatusNotApplicable, result.ProxyStatus)
	assert.Equal(t, []string{"203.0.113.10"}, result.ResolvedIPs)
	assert.Empty(t, *slept)
}

func TestVerify_Mismatch(t *testing.T) {
	r := &fakeResolver{
		ns:       []string{"ns-99.awsdns-01.net"},
		aBatches: [][]string{{"198.51.100.5"}},
	}
	v, _ := newTestVerifier(t, r, fakeRanges{}, 3)

	result := v.Verify(context.Background(), "app.example.com", []string{"203.0.113.10"})

	assert.False(t, result.Matched)
	assert.Equal(t, "not matched", result.Message)
	assert.Equal(t, []string{"198.51.100.5"}, result.ResolvedIPs)
}

func TestVerify_NoExpectedIPsIsVacuouslyTrue(t *testing.T) {
	r := &fakeResolver{aBatches: [][]string{{"198.51.100.5"}}}
	v, _ := newTestVerifier(t, r, fakeRanges{}, 3)

	result := v.Verify(context.Background(), "app.example.com", nil)

	assert.True(t, result.Matched)
	assert.Equal(t, dnscheck.UnknownProvider, result.Provider)
}

func TestVerify_RetryBackoff(t *testing.T) {
	// Resolution fails on attempts 1-2 and succeeds on attempt 3; total
	// wait before the final attempt is 2s + 4s.
	r := &fakeResolver{
		aBatches: [][]string{nil, nil, {"203.0.113.10"}},
	}
	v, slept := newTestVerifier(t, r, fakeRanges{}, 3)

	result := v.Verify(context.Background(), "app.example.com", []string{"203.0.113.10"})

	assert.True(t, result.Matched)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, *slept)
	assert.Equal(t, 3, r.aCalls)
}

func TestVerify_CNAMEWithoutARecords(t *testing.T) {
	r := &fakeResolver{
		cname:    []string{"edge.example-cdn.net"},
		aBatches: [][]string{nil},
	}
	v, _ := newTestVerifier(t, r, fakeRanges{}, 2)

	result := v.Verify(context.Background(), "app.example.com", []string{"203.0.113.10"})

	assert.False(t, result.Matched)
	assert.Equal(t, "not matched", result.Message)
	assert.Empty(t, result.ResolvedIPs)
}

func TestVerify_NothingResolves(t *testing.T) {
	r := &fakeResolver{}
	v, slept := newTestVerifier(t, r, fakeRanges{}, 3)

	result := v.Verify(context.Background(), "app.example.com", []string{"203.0.113.10"})

	assert.False(t, result.Matched)
	assert.Equal(t, 3, r.aCalls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, *slept)
}

func TestNew_ClampsRetryBudget(t *testing.T) {
	v := New(&fakeResolver{}, fakeRanges{}, 0, nil)
	require.Equal(t, 1, v.retries)
}

// =============================================================================
// Cloudflare Proxy Detection
// =============================================================================

func TestVerify_CloudflareProxyShortCircuits(t *testing.T) {
	r := &fakeResolver{
		ns:       []string{"dina.ns.cloudflare.com"},
		aBatches: [][]string{{"104.16.132.229"}},
	}
	v, _ := newTestVerifier(t, r, cloudflareRanges, 3)

	// Expected IPs are supplied but must not be compared.
	result := v.Verify(context.Background(), "app.example.com", []string{"203.0.113.10"})

	assert.Equal(t, dnscheck.ProxyStatusEnabled, result.ProxyStatus)
	assert.False(t, result.Matched)
	assert.Equal(t, "Please disable the proxy in Cloudflare to match SSL certificate", result.Message)
	assert.Equal(t, "Cloudflare", result.Provider)
	assert.Equal(t, 1, r.aCalls, "no A-record comparison pass after proxy detection")
}

func TestVerify_CloudflareProxyDisabled(t *testing.T) {
	r := &fakeResolver{
		ns:       []string{"dina.ns.cloudflare.com"},
		aBatches: [][]string{{"203.0.113.10"}},
	}
	v, _ := newTestVerifier(t, r, cloudflareRanges, 3)

	result := v.Verify(context.Background(), "app.example.com", []string{"203.0.113.10"})

	assert.Equal(t, dnscheck.ProxyStatusDisabled, result.ProxyStatus)
	assert.True(t, result.Matched)
	assert.Equal(t, "matched", result.Message)
}

func TestVerify_RangeFetchFailureFailsOpen(t *testing.T) {
	r := &fakeResolver{
		ns:       []string{"dina.ns.cloudflare.com"},
		aBatches: [][]string{{"104.16.132.229"}},
	}
	v, _ := newTestVerifier(t, r, fakeRanges{err: assert.AnError}, 3)

	result := v.Verify(context.Background(), "app.example.com", []string{"104.16.132.229"})

	// Without ranges the proxy cannot be detected; verification proceeds.
	assert.Equal(t, dnscheck.ProxyStatusDisabled, result.ProxyStatus)
	assert.True(t, result.Matched)
}
