package middleware

import (
	"net"
	"net/http"
	"strings"
)

// ClientIdentity returns the first X-Forwarded-For hop, else the socket
// address host, else "unknown". The header is client controlled, so this is a
// best-effort key for rate limiting only.
func ClientIdentity(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if r.RemoteAddr == "" {
		return "unknown"
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
