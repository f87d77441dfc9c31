package certbot

import (
	"crypto/x509"
	"encoding/pem"
	"os"
)

// Expiry sentinel values for certificates that cannot be read.
const (
	ExpiryNotFound = "not found"
	ExpiryUnknown  = "unknown"
)

// CertExpiry reads the notAfter timestamp from the PEM certificate at
// path. The value is informational only, so read failures degrade to
// sentinel strings instead of errors.
func CertExpiry(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ExpiryNotFound
		}
		return ExpiryUnknown
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return ExpiryUnknown
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return ExpiryUnknown
	}
	return cert.NotAfter.UTC().Format("2006-01-02 15:04:05 MST")
}
