// Package nginx renders the reverse-proxy virtual-host configuration for
// a customer domain. This is part of the Functional Core - rendering is
// pure; writing the result to disk belongs to the shell.
package nginx

import (
	"bytes"
	"text/template"
)

// SiteParams holds everything the vhost template needs. Domain and
// CertDir vary per request; the rest comes from process configuration.
type SiteParams struct {
	Domain            string
	CertDir           string
	BackendHost       string
	BackendPort       int
	SSLProtocols      string
	SSLCiphers        string
	SSLSessionCache   string
	SSLSessionTimeout string
	RateLimitEnabled  bool
	RateLimitZone     string
	RateLimitRate     string
	WebSocketEnabled  bool
	HealthCheckPath   string
}

const siteTemplate = `# Custom domain configuration for {{.Domain}}
server {
    listen 80;
    server_name {{.Domain}} www.{{.Domain}};

    return 301 https://$server_name$request_uri;
}

server {
    listen 443 ssl http2;
    server_name {{.Domain}} www.{{.Domain}};
{{- if .RateLimitEnabled}}

    limit_req_zone $binary_remote_addr zone={{.RateLimitZone}}:10m rate={{.RateLimitRate}};
{{- end}}

    ssl_certificate {{.CertDir}}/fullchain.pem;
    ssl_certificate_key {{.CertDir}}/privkey.pem;

    ssl_protocols {{.SSLProtocols}};
    ssl_ciphers {{.SSLCiphers}};
    ssl_prefer_server_ciphers off;
    ssl_session_cache {{.SSLSessionCache}};
    ssl_session_timeout {{.SSLSessionTimeout}};

    add_header X-Frame-Options DENY;
    add_header X-Content-Type-Options nosniff;
    add_header X-XSS-Protection "1; mode=block";
    add_header Strict-Transport-Security "max-age=31536000; includeSubDomains" always;

    location / {
        proxy_pass http://{{.BackendHost}}:{{.BackendPort}};
        proxy_set_header Host $host;
        proxy_set_header X-Real-IP $remote_addr;
        proxy_set_header X-Forwarded-For $proxy_add_x_forwarded_for;
        proxy_set_header X-Forwarded-Proto $scheme;
{{- if .WebSocketEnabled}}
        proxy_http_version 1.1;
        proxy_set_header Upgrade $http_upgrade;
        proxy_set_header Connection "upgrade";
{{- end}}
        proxy_connect_timeout 60s;
        proxy_send_timeout 60s;
        proxy_read_timeout 60s;
    }

    location {{.HealthCheckPath}} {
        access_log off;
        return 200 "healthy\n";
        add_header Content-Type text/plain;
    }
}
`

var siteTmpl = template.Must(template.New("site").Parse(siteTemplate))

// Render produces the vhost configuration text for the given parameters.
func Render(p SiteParams) (string, error) {
	var buf bytes.Buffer
	if err := siteTmpl.Execute(&buf, p); err != nil {
		return "", err
	}
	return buf.String(), nil
}
