package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Backend.Host)
	assert.Equal(t, 3000, cfg.Backend.Port)
	assert.Equal(t, "127.0.0.1:3000", cfg.Backend.Address())
	assert.Equal(t, "/usr/sbin/nginx", cfg.Nginx.Binary)
	assert.Equal(t, "/etc/nginx/sites-available", cfg.Nginx.SitesAvailable)
	assert.Equal(t, "/etc/nginx/sites-enabled", cfg.Nginx.SitesEnabled)
	assert.Equal(t, "/usr/bin/certbot", cfg.Certbot.Path)
	assert.Equal(t, "/etc/letsencrypt/live", cfg.Certbot.LiveDir)
	assert.False(t, cfg.Certbot.Staging)
	assert.Equal(t, []string{"8.8.8.8", "8.8.4.4", "1.1.1.1", "1.0.0.1"}, cfg.DNS.Servers)
	assert.Equal(t, 30*time.Second, cfg.DNS.Timeout)
	assert.Equal(t, 3, cfg.DNS.Retries)
	assert.Equal(t, "TLSv1.2 TLSv1.3", cfg.TLS.Protocols)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Backend.Port)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
backend:
  host: 10.0.0.5
  port: 8080
certbot:
  email: ops@example.com
  staging: true
dns:
  retries: 5
log:
  level: debug
  format: text
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.5", cfg.Backend.Host)
	assert.Equal(t, 8080, cfg.Backend.Port)
	assert.Equal(t, "ops@example.com", cfg.Certbot.Email)
	assert.True(t, cfg.Certbot.Staging)
	assert.Equal(t, 5, cfg.DNS.Retries)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Unset keys keep their defaults.
	assert.Equal(t, "/usr/bin/certbot", cfg.Certbot.Path)
}

func TestLoad_InvalidFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: [not: valid"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("DOMAINCTL_BACKEND_PORT", "9000")
	t.Setenv("DOMAINCTL_CERTBOT_EMAIL", "env@example.com")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Backend.Port)
	assert.Equal(t, "env@example.com", cfg.Certbot.Email)
}

func TestSiteParams_MapsConfiguration(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.RateLimit.Enabled = true

	params := cfg.SiteParams()

	assert.Empty(t, params.Domain, "domain is per-request")
	assert.Empty(t, params.CertDir, "cert dir is per-request")
	assert.Equal(t, "127.0.0.1", params.BackendHost)
	assert.Equal(t, 3000, params.BackendPort)
	assert.Equal(t, "TLSv1.2 TLSv1.3", params.SSLProtocols)
	assert.True(t, params.RateLimitEnabled)
	assert.Equal(t, "customdomain", params.RateLimitZone)
	assert.True(t, params.WebSocketEnabled)
	assert.Equal(t, "/health", params.HealthCheckPath)
}

func TestResolverConfig_MapsConfiguration(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	rc := cfg.ResolverConfig()
	assert.Equal(t, cfg.DNS.Servers, rc.Servers)
	assert.Equal(t, 30*time.Second, rc.Timeout)
}

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		format string
	}{
		{name: "json info", level: "info", format: "json"},
		{name: "text debug", level: "debug", format: "text"},
		{name: "unknown level falls back", level: "verbose", format: "json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := SetupLogger(&Config{Log: LogConfig{Level: tt.level, Format: tt.format}})
			assert.NotNil(t, logger)
		})
	}
}
