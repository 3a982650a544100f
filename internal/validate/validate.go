// Package validate rejects malformed domain input before any scan work starts.
package validate

import (
	"errors"
	"net"
	"regexp"
	"strings"
)

var (
	ErrDomainRequired = errors.New("domain is required")
	ErrInvalidDomain  = errors.New("invalid domain format")
)

// domainRegex accepts dot-separated labels of 1-63 alphanumeric-or-hyphen
// characters (no leading or trailing hyphen) ending in an alphabetic
// top-level label of at least two characters.
var domainRegex = regexp.MustCompile(`^([a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,63}$`)

// Domain checks that raw is a well-formed hostname suitable for downstream
// network lookups. Reject-by-default: no auto-correction is attempted. This
// is the sole defense against injection via the domain field.
func Domain(raw string) error {
	domain := strings.TrimSpace(raw)
	if domain == "" {
		return ErrDomainRequired
	}
	if len(domain) > 253 {
		return ErrInvalidDomain
	}
	// IP literals are not domains even when they slip past the grammar.
	if net.ParseIP(domain) != nil {
		return ErrInvalidDomain
	}
	if !domainRegex.MatchString(domain) {
		return ErrInvalidDomain
	}
	return nil
}

// Normalize lowercases a domain and strips surrounding whitespace, a URL
// scheme and path, and a trailing dot. It never fixes bad input beyond
// that; validation decides acceptance.
func Normalize(raw string) string {
	domain := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.Index(domain, "://"); i >= 0 {
		domain = domain[i+3:]
	}
	if i := strings.IndexAny(domain, "/?#"); i >= 0 {
		domain = domain[:i]
	}
	return strings.TrimSuffix(domain, ".")
}
