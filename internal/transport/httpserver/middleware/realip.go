package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// NewRealIP rewrites RemoteAddr from X-Forwarded-For or X-Real-IP, but only
// when the socket peer is one of the trusted proxies. The forwarded chain is
// read right to left and the first hop that is not a trusted proxy wins, so
// entries a client prepends are never used.
func NewRealIP(trusted []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(trusted) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			peer, ok := parseHost(r.RemoteAddr)
			if !ok || !containsAddr(trusted, peer) {
				next.ServeHTTP(w, r)
				return
			}

			if client, ok := forwardedClient(r, trusted); ok {
				r.RemoteAddr = client.String()
			}
			next.ServeHTTP(w, r)
		})
	}
}

func forwardedClient(r *http.Request, trusted []netip.Prefix) (netip.Addr, bool) {
	var hops []string
	for _, header := range r.Header.Values("X-Forwarded-For") {
		hops = append(hops, strings.Split(header, ",")...)
	}
	for i := len(hops) - 1; i >= 0; i-- {
		addr, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			return netip.Addr{}, false
		}
		addr = addr.Unmap()
		if !containsAddr(trusted, addr) {
			return addr, true
		}
	}

	if value := strings.TrimSpace(r.Header.Get("X-Real-IP")); value != "" {
		if addr, err := netip.ParseAddr(value); err == nil {
			return addr.Unmap(), true
		}
	}
	return netip.Addr{}, false
}

func parseHost(remoteAddr string) (netip.Addr, bool) {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

func containsAddr(prefixes []netip.Prefix, addr netip.Addr) bool {
	for _, prefix := range prefixes {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
