package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"os"
	"strings"
)

// IPExtractor abstracts how the client IP is obtained from a request.
// The default strategy reads the TCP peer address; an alternative honors
// forwarding headers once the peer has been verified as a trusted proxy.
type IPExtractor interface {
	// ExtractIP returns the client IP for the request.
	ExtractIP(r *http.Request) (string, error)
}

// RemoteAddrExtractor reads the IP from the TCP connection itself. The
// connection address cannot be spoofed, so this is the safe choice when
// no reverse proxy sits in front of the API.
type RemoteAddrExtractor struct{}

// ExtractIP strips the port from r.RemoteAddr, handling IPv4, bracketed
// IPv6, and portless addresses.
func (e *RemoteAddrExtractor) ExtractIP(r *http.Request) (string, error) {
	return extractIPFromAddr(r.RemoteAddr)
}

// TrustedProxyConfig decides which peers may speak for their clients via
// X-Forwarded-For and X-Real-IP.
type TrustedProxyConfig struct {
	// Enabled gates all header-based extraction.
	Enabled bool

	// AllowedCIDRs lists the trusted proxy ranges. Single IPs are stored
	// as /32 or /128 prefixes.
	AllowedCIDRs []netip.Prefix
}

// IsTrusted reports whether the remote address belongs to a trusted proxy.
// Unparseable addresses are never trusted.
func (c *TrustedProxyConfig) IsTrusted(remoteAddr string) bool {
	ip, err := extractIPFromAddr(remoteAddr)
	if err != nil {
		return false
	}

	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}

	for _, prefix := range c.AllowedCIDRs {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// parseProxyPrefix accepts either CIDR notation or a bare IP, widening
// bare IPs to a /32 or /128 prefix.
func parseProxyPrefix(s string) (netip.Prefix, error) {
	if prefix, err := netip.ParsePrefix(s); err == nil {
		return prefix, nil
	}

	ip, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("invalid IP or CIDR format '%s': must be valid IP address or CIDR notation (e.g., '192.168.1.1' or '10.0.0.0/8')", s)
	}

	if ip.Is4() {
		return netip.PrefixFrom(ip, 32), nil
	}
	return netip.PrefixFrom(ip, 128), nil
}

// LoadTrustedProxyConfig reads proxy trust settings from the environment.
// RATE_LIMIT_TRUST_PROXY=true turns header extraction on, and
// RATE_LIMIT_TRUSTED_PROXIES then carries a comma-separated list of IPs
// or CIDR ranges. Misconfiguration fails closed: an enabled flag with an
// empty or invalid proxy list is a startup error.
func LoadTrustedProxyConfig() (*TrustedProxyConfig, error) {
	enabled := os.Getenv("RATE_LIMIT_TRUST_PROXY") == "true"

	config := &TrustedProxyConfig{
		Enabled:      enabled,
		AllowedCIDRs: []netip.Prefix{},
	}

	if !enabled {
		return config, nil
	}

	proxiesStr := strings.TrimSpace(os.Getenv("RATE_LIMIT_TRUSTED_PROXIES"))
	if proxiesStr == "" {
		return nil, fmt.Errorf("RATE_LIMIT_TRUST_PROXY is enabled but RATE_LIMIT_TRUSTED_PROXIES is empty")
	}

	for _, proxyStr := range strings.Split(proxiesStr, ",") {
		proxyStr = strings.TrimSpace(proxyStr)
		if proxyStr == "" {
			continue
		}

		prefix, err := parseProxyPrefix(proxyStr)
		if err != nil {
			return nil, err
		}
		config.AllowedCIDRs = append(config.AllowedCIDRs, prefix)
	}

	if len(config.AllowedCIDRs) == 0 {
		return nil, fmt.Errorf("RATE_LIMIT_TRUST_PROXY is enabled but no valid proxies found in RATE_LIMIT_TRUSTED_PROXIES")
	}

	return config, nil
}

// TrustedProxyExtractor honors X-Forwarded-For (first hop) and then
// X-Real-IP, but only when the request arrived from a trusted proxy.
// Everything else falls back to RemoteAddr, which stops clients from
// rotating their apparent IP with spoofed headers.
type TrustedProxyExtractor struct {
	config TrustedProxyConfig
}

// NewTrustedProxyExtractor creates an extractor for the given trust config.
func NewTrustedProxyExtractor(config TrustedProxyConfig) *TrustedProxyExtractor {
	return &TrustedProxyExtractor{config: config}
}

// ExtractIP resolves the client IP. Forwarding headers from untrusted
// peers are ignored and logged; unparseable header values fall through
// to RemoteAddr.
func (e *TrustedProxyExtractor) ExtractIP(r *http.Request) (string, error) {
	if !e.config.Enabled {
		return extractIPFromAddr(r.RemoteAddr)
	}

	if !e.config.IsTrusted(r.RemoteAddr) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			slog.Warn("untrusted proxy attempting to set X-Forwarded-For",
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("x_forwarded_for", xff),
			)
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			slog.Warn("untrusted proxy attempting to set X-Real-IP",
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("x_real_ip", xri),
			)
		}
		return extractIPFromAddr(r.RemoteAddr)
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := parseFirstIP(xff); ip != "" {
			return ip, nil
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if ip := net.ParseIP(xri); ip != nil {
			return ip.String(), nil
		}
	}

	return extractIPFromAddr(r.RemoteAddr)
}

// extractIPFromAddr strips the port from a "host:port" string, accepting
// bracketed IPv6 and bare IPs without a port.
func extractIPFromAddr(addr string) (string, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		if ip := net.ParseIP(addr); ip != nil {
			return ip.String(), nil
		}
		return "", fmt.Errorf("invalid address format: %s", addr)
	}
	return host, nil
}

// parseFirstIP returns the first entry of a comma-separated header value
// such as X-Forwarded-For ("client, proxy1, proxy2"), or "" when that
// entry is not a clean IP. Entries with surrounding whitespace are
// rejected rather than trimmed.
func parseFirstIP(s string) string {
	first, _, _ := strings.Cut(s, ",")
	if ip := net.ParseIP(first); ip != nil {
		return ip.String()
	}
	return ""
}
