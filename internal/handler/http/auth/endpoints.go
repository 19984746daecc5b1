package auth

import "strings"

// PublicEndpoints lists paths reachable without a JWT: the health and
// readiness probes the orchestrator hits, the Prometheus scrape target,
// and token issuance itself (a token cannot be required to obtain one).
var PublicEndpoints = []string{
	"/health",
	"/health/ai",
	"/ready",
	"/ready/ai",
	"/live",
	"/metrics",
	"/auth/token",
}

// IsPublicEndpoint reports whether path may skip authentication.
//
// Entries ending in '/' match as prefixes. All others match exactly,
// plus an optional trailing slash or query string, so /health admits
// /health?format=json but not /health/detail or /healthcheck.
func IsPublicEndpoint(path string) bool {
	for _, endpoint := range PublicEndpoints {
		if strings.HasSuffix(endpoint, "/") {
			if strings.HasPrefix(path, endpoint) {
				return true
			}
			continue
		}

		if path == endpoint || path == endpoint+"/" {
			return true
		}
		if strings.HasPrefix(path, endpoint+"?") {
			return true
		}
	}
	return false
}
