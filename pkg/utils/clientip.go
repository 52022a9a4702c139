package utils

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP extracts the client address from a proxied request.
// Precedence: X-Real-IP, then the first X-Forwarded-For entry, then the
// transport peer address. Returns "unknown" when nothing usable is present.
// The service always sits behind a reverse proxy, so these headers are
// trusted as-is; this is an analytics input, not a security decision.
func ClientIP(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First entry is the original client, the rest are intermediate proxies
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}

	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
			return host
		}
		return r.RemoteAddr
	}

	return "unknown"
}
