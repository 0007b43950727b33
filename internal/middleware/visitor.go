package middleware

import (
	"net"
	"net/http"
)

// VisitorIP returns the caller's address without the port. It relies on
// chi's RealIP middleware having already applied the forwarding headers,
// so the value is only as trustworthy as the proxy in front of us.
func VisitorIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
