package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig holds the configuration for the CORS middleware.
type CORSConfig struct {
	// AllowedOrigins is the origin whitelist. Superseded by Validator;
	// kept so env-loaded configs stay readable.
	AllowedOrigins []string

	// AllowedMethods lists the methods announced on preflight.
	// Default GET, POST, PUT, DELETE, PATCH, OPTIONS.
	AllowedMethods []string

	// AllowedHeaders lists the request headers announced on preflight.
	// Default Content-Type, Authorization, X-Request-ID.
	AllowedHeaders []string

	// AllowCredentials must be true for cookie-based sessions and
	// Bearer tokens to cross origins.
	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds. Default 86400.
	MaxAge int

	// Validator decides whether an origin is allowed.
	Validator OriginValidator

	// Logger receives policy violations and preflight traces. May be nil.
	Logger CORSLogger
}

// CORS returns middleware enforcing the given cross-origin policy.
//
// Requests without an Origin header are same-origin and pass straight
// through. A disallowed origin is logged and forwarded without CORS
// headers, which leaves the browser to block the response. An allowed
// origin is echoed back verbatim (required when credentials are on);
// preflight OPTIONS requests additionally get the method, header, and
// max-age announcements and are answered 204 without reaching the next
// handler.
func CORS(config CORSConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !config.Validator.IsAllowed(origin) {
				if config.Logger != nil {
					config.Logger.Warn("CORS: origin not allowed", map[string]interface{}{
						"origin":      origin,
						"path":        r.URL.Path,
						"method":      r.Method,
						"remote_addr": r.RemoteAddr,
					})
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", strings.Join(config.AllowedMethods, ", "))
				w.Header().Set("Access-Control-Allow-Headers", strings.Join(config.AllowedHeaders, ", "))
				w.Header().Set("Access-Control-Max-Age", strconv.Itoa(config.MaxAge))

				if config.Logger != nil {
					config.Logger.Debug("CORS: preflight request", map[string]interface{}{
						"origin":            origin,
						"requested_method":  r.Header.Get("Access-Control-Request-Method"),
						"requested_headers": r.Header.Get("Access-Control-Request-Headers"),
					})
				}

				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
