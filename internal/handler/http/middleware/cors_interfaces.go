package middleware

// OriginValidator decides whether a request origin may use CORS. The
// whitelist validator compares exact strings; a pattern or composite
// validator can slot in behind the same interface.
type OriginValidator interface {
	// IsAllowed reports whether origin is permitted. Comparison is
	// case-sensitive, origins carry no trailing slash, and the empty
	// origin is never allowed.
	IsAllowed(origin string) bool

	// GetAllowedOrigins returns the configured origins (or patterns)
	// for logging. Implementations return a copy, not internal state.
	GetAllowedOrigins() []string
}

// ConfigSource loads CORS configuration. The environment-backed source
// is the only implementation today; a file or remote source would
// satisfy the same contract.
type ConfigSource interface {
	// LoadOrigins returns the allowed origins. At least one origin
	// must be configured and each must be an http:// or https:// URL
	// without a trailing slash; anything else is an error so that a
	// misconfigured deployment fails closed.
	LoadOrigins() ([]string, error)

	// LoadMethods returns the allowed HTTP methods, defaulting to
	// GET, POST, PUT, DELETE, PATCH and OPTIONS when unconfigured.
	// Unknown verbs are an error.
	LoadMethods() ([]string, error)

	// LoadHeaders returns the allowed request headers, defaulting to
	// Content-Type, Authorization and X-Request-ID. Header names are
	// matched case-insensitively by browsers.
	LoadHeaders() ([]string, error)

	// LoadMaxAge returns the preflight cache duration in seconds,
	// defaulting to 86400. Zero disables caching; negative or
	// non-numeric values are an error.
	LoadMaxAge() (int, error)
}

// CORSLogger decouples the middleware from a concrete logger so tests
// can capture or silence output. SlogAdapter is the production
// implementation, NoOpLogger the test one.
type CORSLogger interface {
	// Info logs startup configuration and other notable events.
	Info(msg string, fields map[string]interface{})

	// Warn logs policy violations: rejected origins, malformed
	// Origin headers, untrusted proxy attempts.
	Warn(msg string, fields map[string]interface{})

	// Debug logs per-request processing detail such as preflight
	// handling.
	Debug(msg string, fields map[string]interface{})
}
