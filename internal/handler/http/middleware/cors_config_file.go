package middleware

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileConfigSource implements the ConfigSource interface by loading CORS
// configuration from a YAML file. This is the V2 file-based implementation.
//
// File format:
//
//	cors:
//	  allowed_origins:
//	    - http://localhost:3000
//	    - https://app.example.com
//	  allowed_methods: [GET, POST, PUT, DELETE, PATCH, OPTIONS]
//	  allowed_headers: [Content-Type, Authorization, X-Request-ID]
//	  max_age: 86400
//
// The file is read and parsed once; subsequent Load* calls reuse the parsed
// document. Validation rules match EnvConfigSource.
type FileConfigSource struct {
	Path string

	once   sync.Once
	parsed corsFileConfig
	err    error
}

// corsFileConfig mirrors the YAML document structure.
type corsFileConfig struct {
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
		AllowedMethods []string `yaml:"allowed_methods"`
		AllowedHeaders []string `yaml:"allowed_headers"`
		MaxAge         *int     `yaml:"max_age"`
	} `yaml:"cors"`
}

// load reads and parses the YAML file. Safe for concurrent use.
func (s *FileConfigSource) load() error {
	s.once.Do(func() {
		data, err := os.ReadFile(s.Path)
		if err != nil {
			s.err = fmt.Errorf("read CORS config file %s: %w", s.Path, err)
			return
		}
		if err := yaml.Unmarshal(data, &s.parsed); err != nil {
			s.err = fmt.Errorf("parse CORS config file %s: %w", s.Path, err)
		}
	})
	return s.err
}

// LoadOrigins loads the allowed origins from the cors.allowed_origins key.
//
// Validation:
//   - At least one origin must be configured (fail-closed)
//   - Each origin must be a valid URL with http:// or https:// scheme
//   - Origins must not include paths, query strings, fragments, or trailing slashes
func (s *FileConfigSource) LoadOrigins() ([]string, error) {
	if err := s.load(); err != nil {
		return nil, err
	}

	origins := make([]string, 0, len(s.parsed.CORS.AllowedOrigins))
	for _, originStr := range s.parsed.CORS.AllowedOrigins {
		originStr = strings.TrimSpace(originStr)
		if originStr == "" {
			continue
		}

		u, err := url.Parse(originStr)
		if err != nil {
			return nil, fmt.Errorf("invalid origin URL '%s': %w", originStr, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("origin must use http or https scheme: %s", originStr)
		}
		if u.Path != "" && u.Path != "/" {
			return nil, fmt.Errorf("origin must not include path: %s", originStr)
		}
		if u.RawQuery != "" {
			return nil, fmt.Errorf("origin must not include query string: %s", originStr)
		}
		if u.Fragment != "" {
			return nil, fmt.Errorf("origin must not include fragment: %s", originStr)
		}
		if strings.HasSuffix(originStr, "/") {
			return nil, fmt.Errorf("origin must not have trailing slash: %s", originStr)
		}

		origins = append(origins, originStr)
	}

	if len(origins) == 0 {
		return nil, fmt.Errorf("at least one valid origin must be configured in cors.allowed_origins")
	}

	return origins, nil
}

// LoadMethods loads the allowed HTTP methods from the cors.allowed_methods key.
// Defaults to [GET, POST, PUT, DELETE, PATCH, OPTIONS] when the key is absent.
func (s *FileConfigSource) LoadMethods() ([]string, error) {
	if err := s.load(); err != nil {
		return nil, err
	}

	if len(s.parsed.CORS.AllowedMethods) == 0 {
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

	methods := make([]string, 0, len(s.parsed.CORS.AllowedMethods))
	for _, method := range s.parsed.CORS.AllowedMethods {
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
		return nil, fmt.Errorf("at least one valid HTTP method must be configured in cors.allowed_methods")
	}

	return methods, nil
}

// LoadHeaders loads the allowed request headers from the cors.allowed_headers
// key. Defaults to [Content-Type, Authorization, X-Request-ID, X-Trace-ID]
// when the key is absent.
func (s *FileConfigSource) LoadHeaders() ([]string, error) {
	if err := s.load(); err != nil {
		return nil, err
	}

	if len(s.parsed.CORS.AllowedHeaders) == 0 {
		return []string{"Content-Type", "Authorization", "X-Request-ID", "X-Trace-ID"}, nil
	}

	headers := make([]string, 0, len(s.parsed.CORS.AllowedHeaders))
	for _, header := range s.parsed.CORS.AllowedHeaders {
		header = strings.TrimSpace(header)
		if header == "" {
			continue
		}
		headers = append(headers, header)
	}

	if len(headers) == 0 {
		return nil, fmt.Errorf("at least one valid header must be configured in cors.allowed_headers")
	}

	return headers, nil
}

// LoadMaxAge loads the preflight cache duration from the cors.max_age key.
// Defaults to 86400 (24 hours) when the key is absent.
func (s *FileConfigSource) LoadMaxAge() (int, error) {
	if err := s.load(); err != nil {
		return 0, err
	}

	if s.parsed.CORS.MaxAge == nil {
		return 86400, nil
	}

	maxAge := *s.parsed.CORS.MaxAge
	if maxAge < 0 {
		return 0, fmt.Errorf("cors.max_age must be non-negative, got: %d", maxAge)
	}

	return maxAge, nil
}
