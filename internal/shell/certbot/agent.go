// Package certbot invokes the external certificate agent for TLS
// certificate lifecycle operations. This is part of the Imperative Shell.
package certbot

import (
	"context"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
)

// Result carries the outcome of one agent invocation. The process exit
// code decides OK; Output holds combined stdout/stderr for diagnostics.
type Result struct {
	OK     bool
	Output string
}

// Agent is the capability interface for certificate management. A fake
// implementation substitutes for the certbot binary in tests.
type Agent interface {
	// Issue obtains a certificate for domain, registered to email.
	Issue(ctx context.Context, domain, email string) Result

	// Revoke revokes the certificate for domain. Absence is tolerated.
	Revoke(ctx context.Context, domain string) Result

	// Delete removes the certificate files for domain. Absence is tolerated.
	Delete(ctx context.Context, domain string) Result

	// RenewAll renews every certificate the agent manages.
	RenewAll(ctx context.Context) Result
}

// Config holds the exec agent's settings.
type Config struct {
	// Path is the certbot binary location.
	Path string

	// LiveDir is where issued certificates live, one directory per domain.
	LiveDir string

	// Staging selects the Let's Encrypt staging environment.
	Staging bool

	// ForceRenewal forces reissuance even for unexpired certificates.
	ForceRenewal bool
}

// DefaultConfig returns the conventional certbot paths.
func DefaultConfig() Config {
	return Config{
		Path:    "/usr/bin/certbot",
		LiveDir: "/etc/letsencrypt/live",
	}
}

// ExecAgent runs the certbot binary as an external process.
type ExecAgent struct {
	config Config
	logger *slog.Logger
}

// NewExecAgent creates an agent invoking the certbot binary.
func NewExecAgent(cfg Config, logger *slog.Logger) *ExecAgent {
	if cfg.Path == "" {
		cfg.Path = DefaultConfig().Path
	}
	if cfg.LiveDir == "" {
		cfg.LiveDir = DefaultConfig().LiveDir
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecAgent{
		config: cfg,
		logger: logger.With("component", "certbot"),
	}
}

func (a *ExecAgent) run(ctx context.Context, args ...string) Result {
	cmd := exec.CommandContext(ctx, a.config.Path, args...)
	out, err := cmd.CombinedOutput()
	return Result{
		OK:     err == nil,
		Output: strings.TrimSpace(string(out)),
	}
}

// Issue obtains a certificate via the nginx authenticator.
func (a *ExecAgent) Issue(ctx context.Context, domain, email string) Result {
	args := []string{
		"certonly", "--nginx",
		"--non-interactive", "--agree-tos",
		"--email", email,
		"--domains", domain,
	}
	if a.config.Staging {
		a.logger.Info("using Let's Encrypt staging environment")
		args = append(args, "--staging")
	}
	if a.config.ForceRenewal {
		a.logger.Info("forcing certificate renewal")
		args = append(args, "--force-renewal")
	}
	return a.run(ctx, args...)
}

// Revoke revokes the live certificate for domain.
func (a *ExecAgent) Revoke(ctx context.Context, domain string) Result {
	certPath := filepath.Join(a.config.LiveDir, domain, "cert.pem")
	return a.run(ctx, "revoke", "--cert-path", certPath, "--non-interactive")
}

// Delete removes the certificate files for domain.
func (a *ExecAgent) Delete(ctx context.Context, domain string) Result {
	return a.run(ctx, "delete", "--cert-name", domain, "--non-interactive")
}

// RenewAll renews every certificate due for renewal.
func (a *ExecAgent) RenewAll(ctx context.Context) Result {
	return a.run(ctx, "renew", "--quiet")
}
