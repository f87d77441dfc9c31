// Package domain contains the core domain-name type and its validation.
// This is part of the Functional Core - all functions are pure with no I/O.
package domain

import (
	"errors"
	"regexp"
	"strings"
)

// =============================================================================
// Errors
// =============================================================================

var (
	ErrEmptyDomain   = errors.New("domain is required")
	ErrDomainTooLong = errors.New("domain must be under 254 characters")
	ErrInvalidFormat = errors.New("invalid domain format")
)

// =============================================================================
// Domain
// =============================================================================

// domainRegex matches label(.label)*, each label 1-63 alphanumerics with
// internal hyphens and no leading or trailing hyphen.
var domainRegex = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9\-]{0,61}[A-Za-z0-9])?(\.[A-Za-z0-9]([A-Za-z0-9\-]{0,61}[A-Za-z0-9])?)*$`)

// Domain is a validated hostname. Immutable once constructed via Parse.
//
// Every operation that touches the filesystem or an external tool must go
// through Parse first: the domain string names config files, symlinks and
// certbot arguments, so a malformed value is a path-traversal and
// command-injection vector.
type Domain string

// Parse validates name against the hostname grammar and returns it as a
// Domain. The name is lowercased; DNS is case-insensitive and the domain
// string is used as an on-disk file name.
func Parse(name string) (Domain, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "", ErrEmptyDomain
	}
	if len(name) > 253 {
		return "", ErrDomainTooLong
	}
	if !domainRegex.MatchString(name) {
		return "", ErrInvalidFormat
	}
	return Domain(name), nil
}

// String returns the validated hostname.
func (d Domain) String() string {
	return string(d)
}
