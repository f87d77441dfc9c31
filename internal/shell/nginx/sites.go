package nginx

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// SiteStore manages the available and enabled vhost configurations for
// customer domains. An available config is a rendered file named by the
// literal domain string; enabling a site symlinks it into the enabled
// directory under the same name.
//
// State is always read fresh from the filesystem - certbot and nginx may
// mutate it between invocations, so nothing is cached.
type SiteStore struct {
	availableDir string
	enabledDir   string
	logger       *slog.Logger
}

// NewSiteStore creates a store over the given directories.
func NewSiteStore(availableDir, enabledDir string, logger *slog.Logger) *SiteStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SiteStore{
		availableDir: availableDir,
		enabledDir:   enabledDir,
		logger:       logger.With("component", "sites"),
	}
}

// AvailablePath returns the available config path for domain.
func (s *SiteStore) AvailablePath(domain string) string {
	return filepath.Join(s.availableDir, domain)
}

// EnabledPath returns the enabled link path for domain.
func (s *SiteStore) EnabledPath(domain string) string {
	return filepath.Join(s.enabledDir, domain)
}

// Exists reports whether an available or enabled configuration exists
// for domain.
func (s *SiteStore) Exists(domain string) bool {
	if _, err := os.Lstat(s.AvailablePath(domain)); err == nil {
		return true
	}
	if _, err := os.Lstat(s.EnabledPath(domain)); err == nil {
		return true
	}
	return false
}

// WriteAvailable writes the rendered configuration for domain.
func (s *SiteStore) WriteAvailable(domain, content string) error {
	if err := os.MkdirAll(s.availableDir, 0o755); err != nil {
		return fmt.Errorf("failed to create available directory: %w", err)
	}
	path := s.AvailablePath(domain)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write configuration: %w", err)
	}
	s.logger.Info("nginx configuration created", "domain", domain, "path", path)
	return nil
}

// Enable links the available config into the enabled set. A pre-existing
// link means the site is already enabled, not an error.
func (s *SiteStore) Enable(domain string) error {
	src := s.AvailablePath(domain)
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("nginx configuration file not found: %s", src)
	}
	if err := os.MkdirAll(s.enabledDir, 0o755); err != nil {
		return fmt.Errorf("failed to create enabled directory: %w", err)
	}

	dst := s.EnabledPath(domain)
	if _, err := os.Lstat(dst); err == nil {
		s.logger.Info("site already enabled", "domain", domain)
		return nil
	}
	if err := os.Symlink(src, dst); err != nil {
		return fmt.Errorf("failed to enable site: %w", err)
	}
	s.logger.Info("nginx site enabled", "domain", domain)
	return nil
}

// Disable removes the enabled link if present. The bool reports whether
// a link was actually removed; an already-absent link is not an error.
func (s *SiteStore) Disable(domain string) (bool, error) {
	dst := s.EnabledPath(domain)
	if _, err := os.Lstat(dst); err != nil {
		return false, nil
	}
	if err := os.Remove(dst); err != nil {
		return false, fmt.Errorf("failed to disable site: %w", err)
	}
	return true, nil
}

// RemoveAvailable removes the available config if present. The bool
// reports whether a file was actually removed.
func (s *SiteStore) RemoveAvailable(domain string) (bool, error) {
	path := s.AvailablePath(domain)
	if _, err := os.Lstat(path); err != nil {
		return false, nil
	}
	if err := os.Remove(path); err != nil {
		return false, fmt.Errorf("failed to remove configuration: %w", err)
	}
	return true, nil
}

// List enumerates the configured domains, sorted. An absent available
// directory is an empty list, not an error.
func (s *SiteStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.availableDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read available directory: %w", err)
	}

	var domains []string
	for _, e := range entries {
		if !e.IsDir() {
			domains = append(domains, e.Name())
		}
	}
	sort.Strings(domains)
	return domains, nil
}
