// Command domainctl manages the custom-domain lifecycle: certificate
// issuance, reverse-proxy configuration, verification and teardown.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/artpar/domainctl/internal/config"
	"github.com/artpar/domainctl/internal/core/domain"
	"github.com/artpar/domainctl/internal/shell/certbot"
	"github.com/artpar/domainctl/internal/shell/cloudflare"
	shelldns "github.com/artpar/domainctl/internal/shell/dns"
	"github.com/artpar/domainctl/internal/shell/lifecycle"
	"github.com/artpar/domainctl/internal/shell/nginx"
	"github.com/artpar/domainctl/internal/shell/verifier"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// Exit codes.
const (
	ExitSuccess    = 0
	ExitFailure    = 1
	ExitUsageError = 2
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: domainctl [-config path] <command> [arguments]

Commands:
  request <domain> [email]          issue a certificate and enable the proxy site
  check <domain> [expected-ip ...]  report certificate, configuration and DNS state
  delete <domain>                   disable the site and remove certificate and config
  renew                             renew all managed certificates and reload
  list                              list configured domains
`)
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := flag.NewFlagSet("domainctl", flag.ContinueOnError)
	flags.Usage = usage
	configPath := flags.String("config", "", "Path to config file")
	showVersion := flags.Bool("version", false, "Print version and exit")
	if err := flags.Parse(args); err != nil {
		return ExitUsageError
	}

	if *showVersion {
		fmt.Printf("domainctl %s (built %s)\n", Version, BuildTime)
		return ExitSuccess
	}

	if flags.NArg() < 1 {
		usage()
		return ExitUsageError
	}
	command, rest := flags.Arg(0), flags.Args()[1:]

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return ExitFailure
	}
	// Every invocation gets a run ID so that log lines from overlapping
	// cron and operator runs can be told apart.
	logger := config.SetupLogger(cfg).With("run_id", uuid.NewString())

	ctx := context.Background()
	orch := newOrchestrator(cfg, logger)

	switch command {
	case "request":
		return runRequest(ctx, orch, cfg, rest)
	case "check":
		return runCheck(ctx, orch, rest)
	case "delete":
		return runDelete(ctx, orch, rest)
	case "renew":
		if len(rest) != 0 {
			usage()
			return ExitUsageError
		}
		if err := orch.Renew(ctx); err != nil {
			return ExitFailure
		}
		return ExitSuccess
	case "list":
		if len(rest) != 0 {
			usage()
			return ExitUsageError
		}
		return runList(orch)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		usage()
		return ExitUsageError
	}
}

// newOrchestrator wires the shell collaborators from configuration.
func newOrchestrator(cfg *config.Config, logger *slog.Logger) *lifecycle.Orchestrator {
	resolver := shelldns.NewResolver(cfg.ResolverConfig())
	ranges := cloudflare.DefaultSource(logger)
	return lifecycle.New(
		cfg.SiteParams(),
		cfg.Certbot.LiveDir,
		nginx.NewSiteStore(cfg.Nginx.SitesAvailable, cfg.Nginx.SitesEnabled, logger),
		nginx.NewExecServer(cfg.Nginx.Binary, logger),
		certbot.NewExecAgent(cfg.CertbotConfig(), logger),
		verifier.New(resolver, ranges, cfg.DNS.Retries, logger),
		logger,
	)
}

func parseDomainArg(raw string) (string, bool) {
	d, err := domain.Parse(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid domain %q: %v\n", raw, err)
		return "", false
	}
	return string(d), true
}

func runRequest(ctx context.Context, orch *lifecycle.Orchestrator, cfg *config.Config, args []string) int {
	if len(args) < 1 || len(args) > 2 {
		usage()
		return ExitUsageError
	}
	name, ok := parseDomainArg(args[0])
	if !ok {
		return ExitUsageError
	}

	email := cfg.Certbot.Email
	if len(args) == 2 {
		email = args[1]
	}
	if email == "" {
		fmt.Fprintln(os.Stderr, "no registration email: pass one or set certbot.email")
		return ExitUsageError
	}

	if err := orch.Request(ctx, name, email); err != nil {
		return ExitFailure
	}
	return ExitSuccess
}

func runCheck(ctx context.Context, orch *lifecycle.Orchestrator, args []string) int {
	if len(args) < 1 {
		usage()
		return ExitUsageError
	}
	name, ok := parseDomainArg(args[0])
	if !ok {
		return ExitUsageError
	}

	if err := orch.Check(ctx, name, args[1:]); err != nil {
		return ExitFailure
	}
	return ExitSuccess
}

func runDelete(ctx context.Context, orch *lifecycle.Orchestrator, args []string) int {
	if len(args) != 1 {
		usage()
		return ExitUsageError
	}
	name, ok := parseDomainArg(args[0])
	if !ok {
		return ExitUsageError
	}

	// A partial teardown is reported through logging, not the exit code;
	// only an invalid post-state or a failed reload is fatal.
	if _, err := orch.Delete(ctx, name); err != nil {
		return ExitFailure
	}
	return ExitSuccess
}

func runList(orch *lifecycle.Orchestrator) int {
	domains, err := orch.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to list domains: %v\n", err)
		return ExitFailure
	}

	fmt.Println("Configured domains:")
	if len(domains) == 0 {
		fmt.Println("  (none)")
		return ExitSuccess
	}
	for _, d := range domains {
		fmt.Printf("  - %s\n", d)
	}
	return ExitSuccess
}
