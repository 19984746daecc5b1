package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/yussieik/pazpaz-sub002/pkg/ratelimit"
	"github.com/yussieik/pazpaz-sub002/pkg/security/csp"
)

// CSPMiddlewareConfig configures the CSP middleware: a default policy,
// optional per-path-prefix policies, and a report-only switch for trying
// a policy out before enforcing it.
type CSPMiddlewareConfig struct {
	// Enabled controls whether CSP headers are applied at all.
	Enabled bool

	// DefaultPolicy applies when no PathPolicies prefix matches.
	DefaultPolicy *csp.CSPBuilder

	// PathPolicies maps path prefixes to policies, e.g. a relaxed
	// policy under "/dashboard/" and the strict one everywhere else.
	PathPolicies map[string]*csp.CSPBuilder

	// ReportOnly emits Content-Security-Policy-Report-Only, logging
	// violations without blocking them.
	ReportOnly bool
}

// CSPMiddleware applies Content-Security-Policy headers to responses.
type CSPMiddleware struct {
	config  CSPMiddlewareConfig
	metrics ratelimit.RateLimitMetrics
}

// NewCSPMiddleware builds the middleware. Violation metrics are optional;
// inject them with WithMetrics when a report endpoint is configured.
func NewCSPMiddleware(config CSPMiddlewareConfig) *CSPMiddleware {
	return &CSPMiddleware{
		config:  config,
		metrics: nil,
	}
}

// Middleware returns the handler wrapper. The policy is chosen per
// request path; requests pass through untouched when CSP is disabled,
// no policy matches, or the policy builds to an empty string.
func (m *CSPMiddleware) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !m.config.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			policy := m.selectPolicy(r.URL.Path)
			if policy == nil {
				next.ServeHTTP(w, r)
				return
			}

			if m.config.ReportOnly {
				policy = policy.ReportOnly(true)
			}

			cspValue := policy.Build()
			if cspValue == "" {
				next.ServeHTTP(w, r)
				return
			}

			headerName := policy.HeaderName()
			w.Header().Set(headerName, cspValue)

			slog.Debug("CSP header applied",
				slog.String("path", r.URL.Path),
				slog.String("header", headerName),
				slog.String("policy", cspValue),
			)

			next.ServeHTTP(w, r)
		})
	}
}

// selectPolicy picks the policy whose prefix matches the path. The
// longest matching prefix wins; no match falls back to DefaultPolicy.
// Matching is case-sensitive.
func (m *CSPMiddleware) selectPolicy(path string) *csp.CSPBuilder {
	longestPrefix := ""
	var matchedPolicy *csp.CSPBuilder

	for prefix, policy := range m.config.PathPolicies {
		if strings.HasPrefix(path, prefix) && len(prefix) > len(longestPrefix) {
			longestPrefix = prefix
			matchedPolicy = policy
		}
	}

	if matchedPolicy != nil {
		return matchedPolicy
	}
	return m.config.DefaultPolicy
}

// WithMetrics injects a metrics recorder for violation tracking and
// returns the middleware for chaining.
func (m *CSPMiddleware) WithMetrics(metrics ratelimit.RateLimitMetrics) *CSPMiddleware {
	m.metrics = metrics
	return m
}

// ShouldApplyCSP reports whether a path matches any of the given
// patterns. Patterns match exactly, by wildcard suffix ("/dashboard/*"),
// or by trailing-slash prefix ("/dashboard/").
func ShouldApplyCSP(path string, applyToPaths []string) bool {
	for _, pattern := range applyToPaths {
		if pattern == path {
			return true
		}

		if strings.HasSuffix(pattern, "/*") {
			prefix := strings.TrimSuffix(pattern, "*")
			if strings.HasPrefix(path, prefix) {
				return true
			}
		}

		if strings.HasSuffix(pattern, "/") && strings.HasPrefix(path, pattern) {
			return true
		}
	}

	return false
}
