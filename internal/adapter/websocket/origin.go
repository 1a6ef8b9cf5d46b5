package websocket

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// OriginPolicy decides which browser origins may open the live feed.
// Requests without an Origin header come from non-browser clients and are allowed.
type OriginPolicy struct {
	allowed        map[string]struct{}
	allowLocalhost bool
}

// NewOriginPolicy allows the origin of appURL plus every entry of extra.
// Entries that are not absolute URLs are ignored. With allowLocalhost any
// localhost or loopback origin is accepted as well, on any port.
func NewOriginPolicy(appURL string, extra []string, allowLocalhost bool) *OriginPolicy {
	p := &OriginPolicy{allowed: make(map[string]struct{}), allowLocalhost: allowLocalhost}
	for _, raw := range append([]string{appURL}, extra...) {
		if origin := normalizeOrigin(raw); origin != "" {
			p.allowed[origin] = struct{}{}
		}
	}
	return p
}

// Check has the signature of websocket.Upgrader.CheckOrigin.
func (p *OriginPolicy) Check(r *http.Request) bool {
	raw := r.Header.Get("Origin")
	if raw == "" {
		return true
	}

	origin := normalizeOrigin(raw)
	if _, ok := p.allowed[origin]; ok && origin != "" {
		return true
	}
	if p.allowLocalhost && isLoopback(raw) {
		return true
	}

	slog.Warn("Live feed origin rejected", "origin", raw, "remote_addr", r.RemoteAddr)
	return false
}

// normalizeOrigin reduces a URL to scheme://host[:port], lowercased, dropping
// the port when it is the scheme default.
func normalizeOrigin(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		host += ":" + port
	}
	return scheme + "://" + host
}

func isLoopback(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}
