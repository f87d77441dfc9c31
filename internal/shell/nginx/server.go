// Package nginx manages the reverse-proxy configuration on disk and the
// nginx process itself. This is part of the Imperative Shell.
package nginx

import (
	"context"
	"log/slog"
	"os/exec"
	"strings"
)

// TestResult carries the outcome of a configuration validity check.
type TestResult struct {
	Valid  bool
	Output string
}

// Server is the capability interface for the proxy server process. A
// fake implementation substitutes for nginx in tests.
type Server interface {
	// TestConfig validates the full proxy configuration.
	TestConfig(ctx context.Context) TestResult

	// Reload applies the current configuration to the running server.
	Reload(ctx context.Context) bool
}

// ExecServer drives nginx through its binary and the service manager.
type ExecServer struct {
	binary string
	logger *slog.Logger
}

// NewExecServer creates a server handle for the given nginx binary.
func NewExecServer(binary string, logger *slog.Logger) *ExecServer {
	if binary == "" {
		binary = "/usr/sbin/nginx"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecServer{
		binary: binary,
		logger: logger.With("component", "nginx"),
	}
}

// TestConfig runs nginx -t. Exit code decides validity; the diagnostic
// text is returned for operator-facing reports.
func (s *ExecServer) TestConfig(ctx context.Context) TestResult {
	cmd := exec.CommandContext(ctx, s.binary, "-t")
	out, err := cmd.CombinedOutput()
	result := TestResult{
		Valid:  err == nil,
		Output: strings.TrimSpace(string(out)),
	}
	s.logger.Debug("nginx configuration test", "valid", result.Valid, "output", result.Output)
	return result
}

// Reload reloads nginx through the service manager.
func (s *ExecServer) Reload(ctx context.Context) bool {
	s.logger.Info("reloading nginx")
	cmd := exec.CommandContext(ctx, "systemctl", "reload", "nginx")
	if err := cmd.Run(); err != nil {
		s.logger.Error("failed to reload nginx", "error", err)
		return false
	}
	s.logger.Info("nginx reloaded successfully")
	return true
}
