// Package lifecycle drives a domain from unconfigured to serving traffic
// over TLS and back: certificate issuance, vhost rendering, site
// enablement, verification and teardown.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/artpar/domainctl/internal/core/dnscheck"
	corenginx "github.com/artpar/domainctl/internal/core/nginx"
	"github.com/artpar/domainctl/internal/shell/certbot"
	"github.com/artpar/domainctl/internal/shell/nginx"
)

// =============================================================================
// Errors
// =============================================================================

var (
	ErrNotConfigured      = errors.New("domain is not configured")
	ErrCertificateMissing = errors.New("SSL certificate not found")
	ErrCertificateIssue   = errors.New("failed to obtain SSL certificate")
	ErrProxyConfigInvalid = errors.New("nginx configuration is invalid")
	ErrProxyReloadFailed  = errors.New("failed to reload nginx")
	ErrRenewalFailed      = errors.New("certificate renewal failed")
	ErrVerificationFailed = errors.New("DNS verification failed")
)

// =============================================================================
// Orchestrator
// =============================================================================

// Verifier is the subset of DNS verification the orchestrator needs.
type Verifier interface {
	Verify(ctx context.Context, domain string, expectedIPs []string) dnscheck.Result
}

// Orchestrator sequences the lifecycle operations for one domain per
// invocation. Domain state is derived fresh from the filesystem and the
// certificate agent on every call - certbot and nginx may mutate it
// between invocations.
type Orchestrator struct {
	site     corenginx.SiteParams // per-process template defaults
	liveDir  string
	sites    *nginx.SiteStore
	server   nginx.Server
	agent    certbot.Agent
	verifier Verifier
	logger   *slog.Logger
}

// New creates an orchestrator. site carries the rendering parameters
// shared by every domain; Domain and CertDir are filled per request.
func New(
	site corenginx.SiteParams,
	liveDir string,
	sites *nginx.SiteStore,
	server nginx.Server,
	agent certbot.Agent,
	verifier Verifier,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		site:     site,
		liveDir:  liveDir,
		sites:    sites,
		server:   server,
		agent:    agent,
		verifier: verifier,
		logger:   logger.With("component", "lifecycle"),
	}
}

// liveCertDir returns the live certificate directory for domain.
func (o *Orchestrator) liveCertDir(domain string) string {
	return filepath.Join(o.liveDir, domain)
}

// =============================================================================
// Request
// =============================================================================

// Request issues a certificate and provisions the vhost for domain. An
// already-configured domain is a successful no-op. Certificate failure
// aborts before any proxy state is created.
func (o *Orchestrator) Request(ctx context.Context, domain, email string) error {
	if o.sites.Exists(domain) {
		o.logger.Warn("domain is already configured", "domain", domain)
		return nil
	}

	o.logger.Info("requesting SSL certificate", "domain", domain, "email", email)
	if res := o.agent.Issue(ctx, domain, email); !res.OK {
		o.logger.Error("failed to obtain SSL certificate", "domain", domain, "output", res.Output)
		return fmt.Errorf("%w for %s", ErrCertificateIssue, domain)
	}
	o.logger.Info("SSL certificate obtained", "domain", domain)

	params := o.site
	params.Domain = domain
	params.CertDir = o.liveCertDir(domain)
	content, err := corenginx.Render(params)
	if err != nil {
		return fmt.Errorf("failed to render nginx configuration: %w", err)
	}
	if err := o.sites.WriteAvailable(domain, content); err != nil {
		return err
	}
	if err := o.sites.Enable(domain); err != nil {
		return err
	}

	if res := o.server.TestConfig(ctx); !res.Valid {
		// The enabled site is left in place on purpose: this nginx
		// process may be serving unrelated domains, and silently
		// disabling a site we did not fully vet is riskier than leaving
		// it inert. Operator intervention required.
		o.logger.Error("nginx configuration test failed after enabling site",
			"domain", domain, "output", res.Output)
		return fmt.Errorf("%w after enabling %s", ErrProxyConfigInvalid, domain)
	}
	if !o.server.Reload(ctx) {
		return ErrProxyReloadFailed
	}

	o.logger.Info("domain configured successfully", "domain", domain)
	return nil
}

// =============================================================================
// Check
// =============================================================================

// Check reports on a configured domain: certificate presence and expiry,
// configuration validity and, when expectedIPs is non-empty, DNS. A
// missing certificate is fatal; an expired one is informational.
func (o *Orchestrator) Check(ctx context.Context, domain string, expectedIPs []string) error {
	if !o.sites.Exists(domain) {
		o.logger.Error("domain is not configured", "domain", domain)
		return fmt.Errorf("%w: %s", ErrNotConfigured, domain)
	}

	liveDir := o.liveCertDir(domain)
	if _, err := os.Stat(liveDir); err != nil {
		o.logger.Error("SSL certificate not found", "domain", domain)
		return fmt.Errorf("%w for %s", ErrCertificateMissing, domain)
	}
	o.logger.Info("SSL certificate exists", "domain", domain)
	expiry := certbot.CertExpiry(filepath.Join(liveDir, "cert.pem"))
	o.logger.Info("certificate expires", "domain", domain, "expiry", expiry)

	if res := o.server.TestConfig(ctx); !res.Valid {
		o.logger.Error("nginx configuration is invalid", "output", res.Output)
		return ErrProxyConfigInvalid
	}
	o.logger.Info("nginx configuration is valid")

	if len(expectedIPs) == 0 {
		return nil
	}

	result := o.verifier.Verify(ctx, domain, expectedIPs)
	if result.ProxyStatus == dnscheck.ProxyStatusEnabled {
		// Checked, action required: the proxy masks the origin, so a
		// comparison was never attempted. Not a verification failure.
		o.logger.Warn("Cloudflare proxy is enabled", "domain", domain, "message", result.Message)
		return nil
	}
	if !result.Matched {
		o.logger.Warn("DNS verification failed", "domain", domain,
			"resolved", result.ResolvedIPs, "expected", expectedIPs)
		return fmt.Errorf("%w for %s", ErrVerificationFailed, domain)
	}
	o.logger.Info("DNS verification successful", "domain", domain)
	return nil
}

// =============================================================================
// Delete
// =============================================================================

// ActionOutcome records one independent teardown action.
type ActionOutcome struct {
	Name    string
	Done    bool // action performed
	Skipped bool // resource already absent
	Err     error
}

// DeleteReport aggregates the outcomes of one teardown run, in the order
// the actions were attempted.
type DeleteReport struct {
	Actions []ActionOutcome
}

// Succeeded reports whether no attempted action failed. Skipped actions
// count as success: deleting an already-deleted domain is idempotent.
func (r DeleteReport) Succeeded() bool {
	for _, a := range r.Actions {
		if a.Err != nil {
			return false
		}
	}
	return true
}

// Delete tears down a domain: disable the site, remove the available
// config, revoke and delete the certificate. The three actions are
// independent and each is attempted regardless of earlier failures -
// the operator's goal is to stop routing to this domain, and a partial
// teardown is better than none. Only the post-state config check is
// fatal: a removal that breaks the overall configuration cannot be
// undone automatically, so it is surfaced loudly instead.
func (o *Orchestrator) Delete(ctx context.Context, domain string) (DeleteReport, error) {
	var report DeleteReport

	removed, err := o.sites.Disable(domain)
	switch {
	case err != nil:
		o.logger.Error("failed to disable site", "domain", domain, "error", err)
	case removed:
		o.logger.Info("nginx site disabled", "domain", domain)
	default:
		o.logger.Warn("nginx site not enabled", "domain", domain)
	}
	report.Actions = append(report.Actions, ActionOutcome{
		Name: "disable-site", Done: removed, Skipped: !removed && err == nil, Err: err,
	})

	removed, err = o.sites.RemoveAvailable(domain)
	switch {
	case err != nil:
		o.logger.Error("failed to remove nginx configuration", "domain", domain, "error", err)
	case removed:
		o.logger.Info("nginx configuration removed", "domain", domain)
	default:
		o.logger.Warn("nginx configuration not found", "domain", domain)
	}
	report.Actions = append(report.Actions, ActionOutcome{
		Name: "remove-config", Done: removed, Skipped: !removed && err == nil, Err: err,
	})

	if _, statErr := os.Stat(o.liveCertDir(domain)); statErr == nil {
		o.logger.Info("revoking SSL certificate", "domain", domain)
		if res := o.agent.Revoke(ctx, domain); !res.OK {
			// Revocation of an already-revoked or expired certificate
			// fails; deletion below is what stops renewal attempts.
			o.logger.Warn("certificate revocation failed", "domain", domain, "output", res.Output)
		}
		o.logger.Info("deleting certificate files", "domain", domain)
		res := o.agent.Delete(ctx, domain)
		var certErr error
		if !res.OK {
			certErr = fmt.Errorf("certificate delete failed: %s", res.Output)
			o.logger.Error("failed to delete certificate files", "domain", domain, "output", res.Output)
		}
		report.Actions = append(report.Actions, ActionOutcome{
			Name: "remove-certificate", Done: res.OK, Err: certErr,
		})
	} else {
		o.logger.Warn("SSL certificate not found", "domain", domain)
		report.Actions = append(report.Actions, ActionOutcome{
			Name: "remove-certificate", Skipped: true,
		})
	}

	if res := o.server.TestConfig(ctx); !res.Valid {
		o.logger.Error("nginx configuration is invalid after delete",
			"domain", domain, "output", res.Output)
		return report, fmt.Errorf("%w after deleting %s", ErrProxyConfigInvalid, domain)
	}
	if !o.server.Reload(ctx) {
		return report, ErrProxyReloadFailed
	}

	if report.Succeeded() {
		o.logger.Info("domain deleted successfully", "domain", domain)
	} else {
		o.logger.Warn("domain partially deleted, some operations failed", "domain", domain)
	}
	return report, nil
}

// =============================================================================
// Renew / List
// =============================================================================

// Renew delegates to the agent's batch renewal and reloads the server.
// Any renewal failure is fatal: a silent failure risks certificate
// expiry.
func (o *Orchestrator) Renew(ctx context.Context) error {
	o.logger.Info("renewing certificates")
	if res := o.agent.RenewAll(ctx); !res.OK {
		o.logger.Error("certificate renewal failed", "output", res.Output)
		return ErrRenewalFailed
	}
	o.logger.Info("all certificates renewed successfully")
	if !o.server.Reload(ctx) {
		return ErrProxyReloadFailed
	}
	return nil
}

// List enumerates the configured domains.
func (o *Orchestrator) List() ([]string, error) {
	return o.sites.List()
}
