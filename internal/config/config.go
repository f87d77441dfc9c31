// Package config loads the configuration shared by the domainctl and
// verify-dns binaries from an optional file plus environment overrides.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	corenginx "github.com/artpar/domainctl/internal/core/nginx"
	"github.com/artpar/domainctl/internal/shell/certbot"
	shelldns "github.com/artpar/domainctl/internal/shell/dns"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds all application configuration.
type Config struct {
	Backend   BackendConfig   `mapstructure:"backend"`
	Nginx     NginxConfig     `mapstructure:"nginx"`
	Certbot   CertbotConfig   `mapstructure:"certbot"`
	DNS       DNSConfig       `mapstructure:"dns"`
	TLS       TLSConfig       `mapstructure:"tls"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

// BackendConfig identifies the upstream application the proxy routes to.
type BackendConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Address returns the backend address in host:port format.
func (c BackendConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// NginxConfig holds site directory locations and per-site options.
type NginxConfig struct {
	Binary           string `mapstructure:"binary"`
	SitesAvailable   string `mapstructure:"sites_available"`
	SitesEnabled     string `mapstructure:"sites_enabled"`
	HealthCheckPath  string `mapstructure:"health_check_path"`
	WebSocketEnabled bool   `mapstructure:"websocket_enabled"`
}

// CertbotConfig holds certificate agent settings.
type CertbotConfig struct {
	Path    string `mapstructure:"path"`
	LiveDir string `mapstructure:"live_dir"`

	// Email is the registration address for new certificates. May be
	// overridden per invocation on the command line.
	Email string `mapstructure:"email"`

	// Staging selects the Let's Encrypt staging environment.
	Staging bool `mapstructure:"staging"`

	// ForceRenewal forces reissuance even for unexpired certificates.
	ForceRenewal bool `mapstructure:"force_renewal"`
}

// DNSConfig holds resolver settings for verification.
type DNSConfig struct {
	// Servers is the ordered list of nameservers to query.
	Servers []string `mapstructure:"servers"`

	// Timeout bounds each individual query.
	Timeout time.Duration `mapstructure:"timeout"`

	// Retries is the A-record verification attempt budget.
	Retries int `mapstructure:"retries"`
}

// TLSConfig holds the TLS directives rendered into each vhost.
type TLSConfig struct {
	Protocols      string `mapstructure:"protocols"`
	Ciphers        string `mapstructure:"ciphers"`
	SessionCache   string `mapstructure:"session_cache"`
	SessionTimeout string `mapstructure:"session_timeout"`
}

// RateLimitConfig holds the optional per-vhost request rate limit.
type RateLimitConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Zone    string `mapstructure:"zone"`
	Rate    string `mapstructure:"rate"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// =============================================================================
// Config Loading
// =============================================================================

// Load loads configuration from file and environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("backend.host", "127.0.0.1")
	v.SetDefault("backend.port", 3000)
	v.SetDefault("nginx.binary", "/usr/sbin/nginx")
	v.SetDefault("nginx.sites_available", "/etc/nginx/sites-available")
	v.SetDefault("nginx.sites_enabled", "/etc/nginx/sites-enabled")
	v.SetDefault("nginx.health_check_path", "/health")
	v.SetDefault("nginx.websocket_enabled", true)
	v.SetDefault("certbot.path", "/usr/bin/certbot")
	v.SetDefault("certbot.live_dir", "/etc/letsencrypt/live")
	v.SetDefault("certbot.email", "")
	v.SetDefault("certbot.staging", false)
	v.SetDefault("certbot.force_renewal", false)
	v.SetDefault("dns.servers", []string{"8.8.8.8", "8.8.4.4", "1.1.1.1", "1.0.0.1"})
	v.SetDefault("dns.timeout", "30s")
	v.SetDefault("dns.retries", 3)
	v.SetDefault("tls.protocols", "TLSv1.2 TLSv1.3")
	v.SetDefault("tls.ciphers", "ECDHE-ECDSA-AES128-GCM-SHA256:ECDHE-RSA-AES128-GCM-SHA256:ECDHE-ECDSA-AES256-GCM-SHA384:ECDHE-RSA-AES256-GCM-SHA384")
	v.SetDefault("tls.session_cache", "shared:SSL:10m")
	v.SetDefault("tls.session_timeout", "10m")
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.zone", "customdomain")
	v.SetDefault("rate_limit.rate", "10r/s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Load from file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// Only return error if file was explicitly specified and is invalid
			if _, ok := err.(viper.ConfigParseError); ok {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			// File not found is OK, we'll use defaults
		}
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("DOMAINCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// =============================================================================
// Derived Settings
// =============================================================================

// SiteParams returns the per-process vhost rendering parameters. Domain
// and CertDir are filled in per request by the orchestrator.
func (c *Config) SiteParams() corenginx.SiteParams {
	return corenginx.SiteParams{
		BackendHost:       c.Backend.Host,
		BackendPort:       c.Backend.Port,
		SSLProtocols:      c.TLS.Protocols,
		SSLCiphers:        c.TLS.Ciphers,
		SSLSessionCache:   c.TLS.SessionCache,
		SSLSessionTimeout: c.TLS.SessionTimeout,
		RateLimitEnabled:  c.RateLimit.Enabled,
		RateLimitZone:     c.RateLimit.Zone,
		RateLimitRate:     c.RateLimit.Rate,
		WebSocketEnabled:  c.Nginx.WebSocketEnabled,
		HealthCheckPath:   c.Nginx.HealthCheckPath,
	}
}

// ResolverConfig returns the shell resolver settings.
func (c *Config) ResolverConfig() shelldns.Config {
	return shelldns.Config{
		Servers: c.DNS.Servers,
		Timeout: c.DNS.Timeout,
	}
}

// CertbotConfig returns the certificate agent settings.
func (c *Config) CertbotConfig() certbot.Config {
	return certbot.Config{
		Path:         c.Certbot.Path,
		LiveDir:      c.Certbot.LiveDir,
		Staging:      c.Certbot.Staging,
		ForceRenewal: c.Certbot.ForceRenewal,
	}
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format.
// Output goes to stderr so that command output (the verification JSON in
// particular) stays clean on stdout.
func SetupLogger(cfg *Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
