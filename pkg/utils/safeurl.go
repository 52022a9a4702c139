package utils

import (
	"net/url"
	"strings"
)

// safeurl.go - Redirect target validation (open-redirect defense)

// RedirectPolicy decides whether a stored redirect target may be served.
// The scheme whitelist is fixed; host allow/deny lists come from config.
// An empty AllowedHosts means any host not explicitly blocked is permitted.
type RedirectPolicy struct {
	AllowedHosts []string
	BlockedHosts []string
}

// IsSafeRedirectURL reports whether raw is an absolute http(s) URL permitted
// by the policy. Malformed URLs are always rejected.
func (p RedirectPolicy) IsSafeRedirectURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}

	for _, blocked := range p.BlockedHosts {
		if hostMatches(host, blocked) {
			return false
		}
	}

	if len(p.AllowedHosts) == 0 {
		return true
	}

	for _, allowed := range p.AllowedHosts {
		if hostMatches(host, allowed) {
			return true
		}
	}
	return false
}

// hostMatches compares a request host against a policy entry.
// An entry matches itself and any subdomain (example.org matches
// cdn.example.org but not notexample.org).
func hostMatches(host, entry string) bool {
	entry = strings.ToLower(strings.TrimSpace(entry))
	if entry == "" {
		return false
	}
	return host == entry || strings.HasSuffix(host, "."+entry)
}
