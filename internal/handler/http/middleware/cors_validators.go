package middleware

import (
	"strings"
)

// WhitelistValidator allows exactly the origins it was configured with.
// Origins are normalized on both sides (lowercased, trimmed, trailing
// slash removed) so "https://App.PazPaz.health/" and
// "https://app.pazpaz.health" compare equal.
type WhitelistValidator struct {
	allowedOrigins []string
}

func normalizeOrigin(origin string) string {
	origin = strings.ToLower(strings.TrimSpace(origin))
	return strings.TrimSuffix(origin, "/")
}

// NewWhitelistValidator builds a validator from the given origins.
// Empty entries are dropped; duplicates are kept as-is.
func NewWhitelistValidator(origins []string) *WhitelistValidator {
	normalized := make([]string, 0, len(origins))
	for _, origin := range origins {
		if n := normalizeOrigin(origin); n != "" {
			normalized = append(normalized, n)
		}
	}

	return &WhitelistValidator{
		allowedOrigins: normalized,
	}
}

// IsAllowed reports whether origin is whitelisted. The empty origin is
// never allowed. Lookup is a linear scan; whitelists are small.
func (v *WhitelistValidator) IsAllowed(origin string) bool {
	if origin == "" {
		return false
	}

	origin = normalizeOrigin(origin)
	for _, allowed := range v.allowedOrigins {
		if origin == allowed {
			return true
		}
	}

	return false
}

// GetAllowedOrigins returns a copy of the normalized whitelist.
func (v *WhitelistValidator) GetAllowedOrigins() []string {
	out := make([]string, len(v.allowedOrigins))
	copy(out, v.allowedOrigins)
	return out
}
