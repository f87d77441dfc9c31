package dns

import (
	"testing"
	"time"

	mdns "github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResolver_AppendsDefaultPort(t *testing.T) {
	r := NewResolver(Config{Servers: []string{"8.8.8.8", "1.1.1.1:5353"}, Timeout: time.Second})
	assert.Equal(t, []string{"8.8.8.8:53", "1.1.1.1:5353"}, r.servers)
}

func TestNewResolver_Defaults(t *testing.T) {
	r := NewResolver(Config{})
	require.NotEmpty(t, r.servers)
	assert.Equal(t, "8.8.8.8:53", r.servers[0])
	assert.Equal(t, 30*time.Second, r.client.Timeout)
}

func TestRecordValues_FiltersByType(t *testing.T) {
	a, err := mdns.NewRR("example.com. 300 IN A 203.0.113.10")
	require.NoError(t, err)
	cname, err := mdns.NewRR("www.example.com. 300 IN CNAME example.com.")
	require.NoError(t, err)

	answers := []mdns.RR{cname, a}

	assert.Equal(t, []string{"203.0.113.10"}, recordValues(answers, TypeA))
	assert.Equal(t, []string{"example.com"}, recordValues(answers, TypeCNAME))
	assert.Empty(t, recordValues(answers, TypeNS))
}

func TestRecordValues_StripsTrailingDots(t *testing.T) {
	ns, err := mdns.NewRR("example.com. 300 IN NS dina.ns.cloudflare.com.")
	require.NoError(t, err)

	assert.Equal(t, []string{"dina.ns.cloudflare.com"}, recordValues([]mdns.RR{ns}, TypeNS))
}
