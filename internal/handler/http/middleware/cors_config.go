package middleware

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// EnvConfigSource loads CORS configuration from environment variables:
// CORS_ALLOWED_ORIGINS (required, comma-separated), CORS_ALLOWED_METHODS,
// CORS_ALLOWED_HEADERS, and CORS_MAX_AGE (seconds). The last three fall
// back to sensible defaults when unset.
type EnvConfigSource struct{}

// validateOrigin checks that an origin is a bare http(s) URL with no path,
// query, fragment, or trailing slash.
func validateOrigin(origin string) error {
	u, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("invalid origin URL '%s': %w", origin, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("origin must use http or https scheme: %s", origin)
	}
	if u.Path != "" && u.Path != "/" {
		return fmt.Errorf("origin must not include path: %s", origin)
	}
	if u.RawQuery != "" {
		return fmt.Errorf("origin must not include query string: %s", origin)
	}
	if u.Fragment != "" {
		return fmt.Errorf("origin must not include fragment: %s", origin)
	}
	if strings.HasSuffix(origin, "/") {
		return fmt.Errorf("origin must not have trailing slash: %s", origin)
	}
	return nil
}

// LoadOrigins reads CORS_ALLOWED_ORIGINS. An unset variable is an error:
// CORS fails closed rather than silently allowing nothing or everything.
func (s *EnvConfigSource) LoadOrigins() ([]string, error) {
	originsStr := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if originsStr == "" {
		return nil, fmt.Errorf("CORS_ALLOWED_ORIGINS environment variable is required")
	}

	originList := strings.Split(originsStr, ",")
	origins := make([]string, 0, len(originList))

	for _, originStr := range originList {
		originStr = strings.TrimSpace(originStr)
		if originStr == "" {
			continue
		}
		if err := validateOrigin(originStr); err != nil {
			return nil, err
		}
		origins = append(origins, originStr)
	}

	if len(origins) == 0 {
		return nil, fmt.Errorf("at least one valid origin must be configured in CORS_ALLOWED_ORIGINS")
	}

	return origins, nil
}

// LoadMethods reads CORS_ALLOWED_METHODS, defaulting to the full set of
// verbs the API serves. Unknown verbs are rejected rather than passed
// through to the browser.
func (s *EnvConfigSource) LoadMethods() ([]string, error) {
	methodsStr := strings.TrimSpace(os.Getenv("CORS_ALLOWED_METHODS"))
	if methodsStr == "" {
		return []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}, nil
	}

	validMethods := map[string]bool{
		"GET":     true,
		"POST":    true,
		"PUT":     true,
		"DELETE":  true,
		"PATCH":   true,
		"OPTIONS": true,
	}

	methodList := strings.Split(methodsStr, ",")
	methods := make([]string, 0, len(methodList))

	for _, method := range methodList {
		method = strings.ToUpper(strings.TrimSpace(method))
		if method == "" {
			continue
		}
		if !validMethods[method] {
			return nil, fmt.Errorf("invalid HTTP method '%s': must be one of GET, POST, PUT, DELETE, PATCH, OPTIONS", method)
		}
		methods = append(methods, method)
	}

	if len(methods) == 0 {
		return nil, fmt.Errorf("at least one valid HTTP method must be configured in CORS_ALLOWED_METHODS")
	}

	return methods, nil
}

// LoadHeaders reads CORS_ALLOWED_HEADERS, defaulting to the headers the
// frontend actually sends.
func (s *EnvConfigSource) LoadHeaders() ([]string, error) {
	headersStr := strings.TrimSpace(os.Getenv("CORS_ALLOWED_HEADERS"))
	if headersStr == "" {
		return []string{"Content-Type", "Authorization", "X-Request-ID", "X-Trace-ID"}, nil
	}

	headerList := strings.Split(headersStr, ",")
	headers := make([]string, 0, len(headerList))

	for _, header := range headerList {
		header = strings.TrimSpace(header)
		if header == "" {
			continue
		}
		headers = append(headers, header)
	}

	if len(headers) == 0 {
		return nil, fmt.Errorf("at least one valid header must be configured in CORS_ALLOWED_HEADERS")
	}

	return headers, nil
}

// LoadMaxAge reads CORS_MAX_AGE as a non-negative number of seconds,
// defaulting to 24 hours.
func (s *EnvConfigSource) LoadMaxAge() (int, error) {
	maxAgeStr := strings.TrimSpace(os.Getenv("CORS_MAX_AGE"))
	if maxAgeStr == "" {
		return 86400, nil
	}

	maxAge, err := strconv.Atoi(maxAgeStr)
	if err != nil {
		return 0, fmt.Errorf("invalid CORS_MAX_AGE '%s': must be a valid integer", maxAgeStr)
	}
	if maxAge < 0 {
		return 0, fmt.Errorf("CORS_MAX_AGE must be non-negative, got: %d", maxAge)
	}

	return maxAge, nil
}

// LoadCORSConfig loads CORS configuration from environment variables.
// The Logger field is left nil; callers inject one before use.
func LoadCORSConfig() (*CORSConfig, error) {
	source := &EnvConfigSource{}
	return LoadCORSConfigFromSource(source, nil)
}

// LoadCORSConfigFromSource loads CORS configuration from an arbitrary
// ConfigSource, so origins can come from a file or a settings service
// instead of the environment. logger may be nil.
func LoadCORSConfigFromSource(source ConfigSource, logger CORSLogger) (*CORSConfig, error) {
	origins, err := source.LoadOrigins()
	if err != nil {
		return nil, fmt.Errorf("failed to load allowed origins: %w", err)
	}

	methods, err := source.LoadMethods()
	if err != nil {
		return nil, fmt.Errorf("failed to load allowed methods: %w", err)
	}

	headers, err := source.LoadHeaders()
	if err != nil {
		return nil, fmt.Errorf("failed to load allowed headers: %w", err)
	}

	maxAge, err := source.LoadMaxAge()
	if err != nil {
		return nil, fmt.Errorf("failed to load max age: %w", err)
	}

	return &CORSConfig{
		// AllowedOrigins kept alongside Validator for callers that
		// inspect the raw list.
		AllowedOrigins:   origins,
		AllowedMethods:   methods,
		AllowedHeaders:   headers,
		AllowCredentials: true,
		MaxAge:           maxAge,
		Validator:        NewWhitelistValidator(origins),
		Logger:           logger,
	}, nil
}
