package middleware

import (
	"net/http/httptest"
	"net/netip"
	"testing"
)

func extractFrom(t *testing.T, extractor IPExtractor, remoteAddr string, headers map[string]string) string {
	t.Helper()
	req := httptest.NewRequest("GET", "/appointments", nil)
	req.RemoteAddr = remoteAddr
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	ip, err := extractor.ExtractIP(req)
	if err != nil {
		t.Fatalf("ExtractIP() error: %v", err)
	}
	return ip
}

func TestRemoteAddrExtractor(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		want       string
	}{
		{"IPv4 with port", "203.0.113.1:54321", "203.0.113.1"},
		{"IPv4 localhost", "127.0.0.1:8080", "127.0.0.1"},
		{"IPv4 without port", "203.0.113.1", "203.0.113.1"},
		{"IPv6 with port", "[::1]:8080", "::1"},
		{"IPv6 full address", "[2001:db8::1]:443", "2001:db8::1"},
		{"IPv6 expanded form kept as written", "[2001:db8:0:0:0:0:0:1]:9000", "2001:db8:0:0:0:0:0:1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractFrom(t, &RemoteAddrExtractor{}, tt.remoteAddr, nil); got != tt.want {
				t.Errorf("ExtractIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestTrustedProxyExtractor covers the header trust rules in one place:
// forwarding headers are honored only when the direct peer is inside the
// trusted CIDR set, X-Forwarded-For beats X-Real-IP, and anything
// unparseable falls back to the connection address.
func TestTrustedProxyExtractor(t *testing.T) {
	trusted := TrustedProxyConfig{
		Enabled:      true,
		AllowedCIDRs: []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")},
	}

	tests := []struct {
		name       string
		config     TrustedProxyConfig
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "XFF honored from trusted proxy",
			config:     trusted,
			remoteAddr: "10.0.0.5:54321",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1"},
			want:       "203.0.113.1",
		},
		{
			name:       "XFF ignored from untrusted peer",
			config:     trusted,
			remoteAddr: "203.0.113.50:12345",
			headers:    map[string]string{"X-Forwarded-For": "192.168.1.100"},
			want:       "203.0.113.50",
		},
		{
			name:       "X-Real-IP used when XFF absent",
			config:     trusted,
			remoteAddr: "10.0.0.5:54321",
			headers:    map[string]string{"X-Real-IP": "203.0.113.2"},
			want:       "203.0.113.2",
		},
		{
			name:       "XFF wins over X-Real-IP",
			config:     trusted,
			remoteAddr: "10.0.0.5:54321",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1", "X-Real-IP": "203.0.113.2"},
			want:       "203.0.113.1",
		},
		{
			name:       "no headers falls back to RemoteAddr",
			config:     trusted,
			remoteAddr: "10.0.0.5:54321",
			want:       "10.0.0.5",
		},
		{
			name:       "first hop of multi-entry XFF",
			config:     trusted,
			remoteAddr: "10.0.0.5:54321",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1, 192.168.1.1, 10.0.0.5"},
			want:       "203.0.113.1",
		},
		{
			name:       "padded XFF entry is rejected",
			config:     trusted,
			remoteAddr: "10.0.0.5:54321",
			headers:    map[string]string{"X-Forwarded-For": "  203.0.113.1  , 10.0.0.5"},
			want:       "10.0.0.5",
		},
		{
			name:       "garbage XFF falls back",
			config:     trusted,
			remoteAddr: "10.0.0.5:54321",
			headers:    map[string]string{"X-Forwarded-For": "not-an-ip"},
			want:       "10.0.0.5",
		},
		{
			name:       "out-of-range XFF falls back",
			config:     trusted,
			remoteAddr: "10.0.0.5:54321",
			headers:    map[string]string{"X-Forwarded-For": "999.999.999.999"},
			want:       "10.0.0.5",
		},
		{
			name:       "garbage X-Real-IP falls back",
			config:     trusted,
			remoteAddr: "10.0.0.5:54321",
			headers:    map[string]string{"X-Real-IP": "invalid-ip"},
			want:       "10.0.0.5",
		},
		{
			name:       "disabled config ignores all headers",
			config:     TrustedProxyConfig{Enabled: false},
			remoteAddr: "203.0.113.50:12345",
			headers:    map[string]string{"X-Forwarded-For": "192.168.1.100", "X-Real-IP": "192.168.1.101"},
			want:       "203.0.113.50",
		},
		{
			name: "IPv6 proxy and IPv6 client",
			config: TrustedProxyConfig{
				Enabled:      true,
				AllowedCIDRs: []netip.Prefix{netip.MustParsePrefix("2001:db8::/32")},
			},
			remoteAddr: "[2001:db8::1]:54321",
			headers:    map[string]string{"X-Forwarded-For": "2606:4700:4700::1111"},
			want:       "2606:4700:4700::1111",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := NewTrustedProxyExtractor(tt.config)
			if got := extractFrom(t, extractor, tt.remoteAddr, tt.headers); got != tt.want {
				t.Errorf("ExtractIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractIPFromAddr(t *testing.T) {
	tests := []struct {
		addr    string
		want    string
		wantErr bool
	}{
		{"203.0.113.1:8080", "203.0.113.1", false},
		{"[::1]:8080", "::1", false},
		{"203.0.113.1", "203.0.113.1", false},
		{"not-an-address", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		ip, err := extractIPFromAddr(tt.addr)
		if (err != nil) != tt.wantErr {
			t.Errorf("extractIPFromAddr(%q) error = %v, wantErr %v", tt.addr, err, tt.wantErr)
			continue
		}
		if ip != tt.want {
			t.Errorf("extractIPFromAddr(%q) = %q, want %q", tt.addr, ip, tt.want)
		}
	}
}

func TestParseFirstIP(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"203.0.113.1", "203.0.113.1"},
		{"203.0.113.1, 10.0.0.1", "203.0.113.1"},
		{"invalid, 10.0.0.1", ""},
		{"", ""},
		{"2001:db8::1", "2001:db8::1"},
		{"2001:db8::1, 10.0.0.1", "2001:db8::1"},
	}
	for _, tt := range tests {
		if got := parseFirstIP(tt.input); got != tt.want {
			t.Errorf("parseFirstIP(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
