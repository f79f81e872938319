package clientip

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// DefaultHeaders lists proxy headers in the order GetIP trusts them.
var DefaultHeaders = []string{
	"CF-Connecting-IP",
	"DO-Connecting-IP",
	"X-Forwarded-For",
	"X-Real-IP",
}

// Resolver extracts the client address from a request using a fixed list of
// trusted headers, falling back to RemoteAddr.
type Resolver struct {
	headers []string
}

// NewResolver creates a Resolver. With no headers, only RemoteAddr is used,
// which is the right setting when the service is not behind a proxy.
func NewResolver(headers ...string) *Resolver {
	clean := make([]string, 0, len(headers))
	for _, h := range headers {
		if h = strings.TrimSpace(h); h != "" {
			clean = append(clean, http.CanonicalHeaderKey(h))
		}
	}
	return &Resolver{headers: clean}
}

var defaultResolver = NewResolver(DefaultHeaders...)

// GetIP returns the client's IP address using DefaultHeaders.
func GetIP(r *http.Request) string {
	return defaultResolver.IP(r)
}

// IP returns the normalized client address or "" when none is valid.
func (res *Resolver) IP(r *http.Request) string {
	for _, h := range res.headers {
		v := r.Header.Get(h)
		if v == "" {
			continue
		}
		// X-Forwarded-For may hold a chain; the first valid entry is the client.
		for candidate := range strings.SplitSeq(v, ",") {
			if ip := parseIP(candidate); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return parseIP(r.RemoteAddr)
	}
	return parseIP(host)
}

func parseIP(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return ""
	}
	return addr.Unmap().WithZone("").String()
}
