// Command verify-dns checks whether a domain's DNS points at the
// expected addresses and reports the result as JSON on stdout, for
// consumption by provisioning automation.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/netip"
	"os"

	"github.com/google/uuid"

	"github.com/artpar/domainctl/internal/config"
	"github.com/artpar/domainctl/internal/core/dnscheck"
	"github.com/artpar/domainctl/internal/core/domain"
	"github.com/artpar/domainctl/internal/shell/cloudflare"
	shelldns "github.com/artpar/domainctl/internal/shell/dns"
	"github.com/artpar/domainctl/internal/shell/verifier"
)

// Exit codes.
const (
	ExitSuccess    = 0
	ExitFailure    = 1
	ExitUsageError = 2
)

// report is the machine-readable verification outcome. cloudflare_proxy
// is present only when the domain is served by Cloudflare.
type report struct {
	Message         string `json:"message"`
	DNSProvider     string `json:"dnsProvider"`
	CloudflareProxy string `json:"cloudflare_proxy,omitempty"`
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: verify-dns [-config path] <domain> [expected-ip ...]")
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := flag.NewFlagSet("verify-dns", flag.ContinueOnError)
	flags.Usage = usage
	configPath := flags.String("config", "", "Path to config file")
	if err := flags.Parse(args); err != nil {
		return ExitUsageError
	}
	if flags.NArg() < 1 {
		usage()
		return ExitUsageError
	}

	name, err := domain.Parse(flags.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid domain %q: %v\n", flags.Arg(0), err)
		return ExitUsageError
	}

	expectedIPs := flags.Args()[1:]
	for _, ip := range expectedIPs {
		if _, err := netip.ParseAddr(ip); err != nil {
			fmt.Fprintf(os.Stderr, "invalid expected IP %q\n", ip)
			return ExitUsageError
		}
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return ExitFailure
	}
	logger := config.SetupLogger(cfg).With("run_id", uuid.NewString())

	v := verifier.New(
		shelldns.NewResolver(cfg.ResolverConfig()),
		cloudflare.DefaultSource(logger),
		cfg.DNS.Retries,
		logger,
	)
	result := v.Verify(context.Background(), string(name), expectedIPs)

	out := report{
		Message:     result.Message,
		DNSProvider: result.Provider,
	}
	switch result.ProxyStatus {
	case dnscheck.ProxyStatusEnabled:
		out.CloudflareProxy = "enabled"
	case dnscheck.ProxyStatusDisabled:
		out.CloudflareProxy = "disabled"
	}

	enc := json.NewEncoder(os.Stdout)
	if err := enc.Encode(out); err != nil {
		return ExitFailure
	}

	// An enabled proxy is "checked, action required", not a failed check:
	// the caller gets exit 0 plus the proxy marker in the JSON.
	if result.Matched || result.ProxyStatus == dnscheck.ProxyStatusEnabled {
		return ExitSuccess
	}
	return ExitFailure
}
