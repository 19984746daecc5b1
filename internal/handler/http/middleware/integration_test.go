package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"sync"
	"testing"
	"time"
)

/* ───────── Rate limiting integration ───────── */

func limiterHandler(limiter *RateLimiter) http.Handler {
	return limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

// sendFrom drives one request through the handler with a chosen peer
// address and optional X-Forwarded-For header.
func sendFrom(handler http.Handler, remoteAddr, xff string) int {
	req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
	req.RemoteAddr = remoteAddr
	if xff != "" {
		req.Header.Set("X-Forwarded-For", xff)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Code
}

func countOutcomes(handler http.Handler, n int, remoteAddr string, xff func(i int) string) (allowed, limited int) {
	for i := 0; i < n; i++ {
		header := ""
		if xff != nil {
			header = xff(i)
		}
		switch sendFrom(handler, remoteAddr, header) {
		case http.StatusOK:
			allowed++
		case http.StatusTooManyRequests:
			limited++
		}
	}
	return allowed, limited
}

// Without proxy trust the limiter keys on RemoteAddr, so rotating
// X-Forwarded-For values must not widen the budget.
func TestRateLimiter_Integration_RemoteAddrOnly(t *testing.T) {
	limiter := NewRateLimiter(3, time.Minute, &RemoteAddrExtractor{})
	handler := limiterHandler(limiter)

	allowed, limited := countOutcomes(handler, 5, "203.0.113.50:12345", func(i int) string {
		return fmt.Sprintf("203.0.113.%d", i)
	})

	if allowed != 3 {
		t.Errorf("Expected 3 successful requests, got %d", allowed)
	}
	if limited != 2 {
		t.Errorf("Expected 2 rate limited requests, got %d", limited)
	}
}

// With a trusted proxy the limiter keys on the forwarded client IP, not
// the proxy address.
func TestRateLimiter_Integration_TrustedProxy(t *testing.T) {
	config := TrustedProxyConfig{
		Enabled: true,
		AllowedCIDRs: []netip.Prefix{
			netip.MustParsePrefix("127.0.0.0/8"),
		},
	}
	limiter := NewRateLimiter(3, time.Minute, NewTrustedProxyExtractor(config))
	handler := limiterHandler(limiter)

	allowed, limited := countOutcomes(handler, 5, "127.0.0.1:54321", func(int) string {
		return "203.0.113.100"
	})

	if allowed != 3 {
		t.Errorf("Expected 3 successful requests, got %d", allowed)
	}
	if limited != 2 {
		t.Errorf("Expected 2 rate limited requests, got %d", limited)
	}

	// A different forwarded client through the same proxy gets its
	// own budget.
	if code := sendFrom(handler, "127.0.0.1:54321", "203.0.113.101"); code != http.StatusOK {
		t.Errorf("second client through proxy: got status %d, want 200", code)
	}
}

// A peer outside the trusted CIDRs cannot widen its budget by rotating
// spoofed X-Forwarded-For values.
func TestRateLimiter_Integration_UntrustedProxySpoofing(t *testing.T) {
	config := TrustedProxyConfig{
		Enabled: true,
		AllowedCIDRs: []netip.Prefix{
			netip.MustParsePrefix("10.0.0.0/8"),
		},
	}
	limiter := NewRateLimiter(3, time.Minute, NewTrustedProxyExtractor(config))
	handler := limiterHandler(limiter)

	allowed, limited := countOutcomes(handler, 5, "203.0.113.50:12345", func(i int) string {
		return fmt.Sprintf("192.168.1.%d", i)
	})

	if allowed != 3 {
		t.Errorf("Expected 3 successful requests, spoofed headers must be ignored, got %d", allowed)
	}
	if limited != 2 {
		t.Errorf("Expected 2 rate limited requests, got %d", limited)
	}
}

func TestRateLimiter_Integration_StartupConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		setEnv  func(*testing.T)
		wantErr bool
	}{
		{
			name: "valid configuration",
			setEnv: func(t *testing.T) {
				t.Setenv("RATE_LIMIT_TRUST_PROXY", "true")
				t.Setenv("RATE_LIMIT_TRUSTED_PROXIES", "10.0.0.0/8")
			},
		},
		{
			name: "enabled but empty proxies",
			setEnv: func(t *testing.T) {
				t.Setenv("RATE_LIMIT_TRUST_PROXY", "true")
				t.Setenv("RATE_LIMIT_TRUSTED_PROXIES", "")
			},
			wantErr: true,
		},
		{
			name: "invalid CIDR",
			setEnv: func(t *testing.T) {
				t.Setenv("RATE_LIMIT_TRUST_PROXY", "true")
				t.Setenv("RATE_LIMIT_TRUSTED_PROXIES", "invalid-cidr")
			},
			wantErr: true,
		},
		{
			name: "proxy trust disabled",
			setEnv: func(t *testing.T) {
				t.Setenv("RATE_LIMIT_TRUST_PROXY", "false")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setEnv(t)

			config, err := LoadTrustedProxyConfig()
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error for invalid configuration, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}

			var extractor IPExtractor
			if config.Enabled {
				extractor = NewTrustedProxyExtractor(*config)
			} else {
				extractor = &RemoteAddrExtractor{}
			}
			if NewRateLimiter(5, time.Minute, extractor) == nil {
				t.Error("Failed to create rate limiter with valid config")
			}
		})
	}
}

func TestRateLimiter_Integration_ConcurrentClients(t *testing.T) {
	limiter := NewRateLimiter(10, time.Minute, &RemoteAddrExtractor{})
	handler := limiterHandler(limiter)

	const clients = 5
	const requestsPerClient = 15

	type outcome struct {
		mu      sync.Mutex
		allowed int
		limited int
	}
	results := make([]*outcome, clients)

	var wg sync.WaitGroup
	for c := 0; c < clients; c++ {
		results[c] = &outcome{}
		wg.Add(1)
		go func(c int) {
			defer wg.Done()
			addr := fmt.Sprintf("203.0.113.%d:12345", c+1)
			for i := 0; i < requestsPerClient; i++ {
				code := sendFrom(handler, addr, "")
				results[c].mu.Lock()
				switch code {
				case http.StatusOK:
					results[c].allowed++
				case http.StatusTooManyRequests:
					results[c].limited++
				}
				results[c].mu.Unlock()
			}
		}(c)
	}
	wg.Wait()

	for c, result := range results {
		if result.allowed != 10 {
			t.Errorf("client %d: expected 10 successful requests, got %d", c+1, result.allowed)
		}
		if result.limited != 5 {
			t.Errorf("client %d: expected 5 rate limited requests, got %d", c+1, result.limited)
		}
	}
}

// A proxy chain in X-Forwarded-For resolves to the leftmost hop, so a
// stable chain shares one budget.
func TestRateLimiter_Integration_ProxyChain(t *testing.T) {
	config := TrustedProxyConfig{
		Enabled: true,
		AllowedCIDRs: []netip.Prefix{
			netip.MustParsePrefix("127.0.0.1/32"),
		},
	}
	limiter := NewRateLimiter(3, time.Minute, NewTrustedProxyExtractor(config))
	handler := limiterHandler(limiter)

	allowed, limited := countOutcomes(handler, 5, "127.0.0.1:54321", func(int) string {
		return "203.0.113.1, 10.0.0.1, 172.16.0.1"
	})

	if allowed != 3 {
		t.Errorf("Expected 3 successful requests, got %d", allowed)
	}
	if limited != 2 {
		t.Errorf("Expected 2 rate limited requests, got %d", limited)
	}
}

func TestRateLimiter_Integration_IPv6(t *testing.T) {
	config := TrustedProxyConfig{
		Enabled: true,
		AllowedCIDRs: []netip.Prefix{
			netip.MustParsePrefix("::1/128"),
		},
	}
	limiter := NewRateLimiter(3, time.Minute, NewTrustedProxyExtractor(config))
	handler := limiterHandler(limiter)

	allowed, limited := countOutcomes(handler, 5, "[::1]:54321", func(int) string {
		return "2001:db8::1"
	})

	if allowed != 3 {
		t.Errorf("Expected 3 successful requests, got %d", allowed)
	}
	if limited != 2 {
		t.Errorf("Expected 2 rate limited requests, got %d", limited)
	}
}

func TestRateLimiter_Integration_CleanupDuringOperation(t *testing.T) {
	limiter := NewRateLimiter(5, 100*time.Millisecond, &RemoteAddrExtractor{})
	handler := limiterHandler(limiter)

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				limiter.CleanupExpired()
			case <-done:
				return
			}
		}
	}()

	// Requests interleaved with cleanup must not race or panic.
	for i := 0; i < 10; i++ {
		sendFrom(handler, "203.0.113.10:12345", "")
		time.Sleep(10 * time.Millisecond)
	}
}
