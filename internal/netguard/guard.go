// Package netguard decides whether a URL is a permissible public HTTP(S)
// target. The policy is advisory: callers apply it only when the server is
// configured to restrict trackers to public URLs.
package netguard

import (
	"context"
	"log/slog"
	"net/netip"
	"net/url"

	"golang.org/x/net/idna"
)

// Resolver resolves a host name to its IP addresses. *net.Resolver satisfies
// the interface; tests inject a fixture.
type Resolver interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// Guard classifies outbound URLs.
type Guard struct {
	resolver Resolver
	logger   *slog.Logger
}

// New creates a Guard backed by the given resolver.
func New(resolver Resolver, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		resolver: resolver,
		logger:   logger,
	}
}

// IsPublicWebURL returns true iff the URL uses an http(s) scheme and its host
// resolves exclusively to globally routable unicast addresses. Resolution
// failure is treated as non-public.
func (g *Guard) IsPublicWebURL(ctx context.Context, rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		g.logger.WarnContext(ctx, "rejecting malformed url", "url", rawURL, "error", err)
		return false
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}

	host := parsed.Hostname()
	if host == "" {
		return false
	}

	// Literal hosts are classified directly, without resolution.
	if addr, parseErr := netip.ParseAddr(host); parseErr == nil {
		return isGlobal(addr)
	}

	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		g.logger.WarnContext(ctx, "rejecting non-normalizable host", "host", host, "error", err)
		return false
	}

	addrs, err := g.resolver.LookupNetIP(ctx, "ip", ascii)
	if err != nil || len(addrs) == 0 {
		g.logger.WarnContext(ctx, "host did not resolve, treating as non-public",
			"host", ascii, "error", err)
		return false
	}

	for _, addr := range addrs {
		if !isGlobal(addr) {
			return false
		}
	}
	return true
}

// Blocks of special-purpose addresses that netip's built-in predicates do not
// cover.
var specialBlocks = []netip.Prefix{
	netip.MustParsePrefix("100.64.0.0/10"),  // CGNAT (RFC 6598)
	netip.MustParsePrefix("192.0.0.0/24"),   // IETF protocol assignments
	netip.MustParsePrefix("192.0.2.0/24"),   // documentation (TEST-NET-1)
	netip.MustParsePrefix("198.18.0.0/15"),  // benchmarking
	netip.MustParsePrefix("198.51.100.0/24"), // documentation (TEST-NET-2)
	netip.MustParsePrefix("203.0.113.0/24"), // documentation (TEST-NET-3)
	netip.MustParsePrefix("240.0.0.0/4"),    // reserved
	netip.MustParsePrefix("2001:db8::/32"),  // documentation
	netip.MustParsePrefix("2001::/23"),      // IETF protocol assignments
	netip.MustParsePrefix("fc00::/7"),       // unique local (ULA)
}

// isGlobal reports whether the address is globally routable unicast.
func isGlobal(addr netip.Addr) bool {
	// Classify IPv4-mapped IPv6 addresses by their embedded IPv4 address.
	addr = addr.Unmap()

	switch {
	case !addr.IsValid(),
		addr.IsUnspecified(),
		addr.IsLoopback(),
		addr.IsPrivate(),
		addr.IsLinkLocalUnicast(),
		addr.IsLinkLocalMulticast(),
		addr.IsMulticast(),
		addr.IsInterfaceLocalMulticast():
		return false
	}

	for _, block := range specialBlocks {
		if block.Contains(addr) {
			return false
		}
	}
	return true
}
