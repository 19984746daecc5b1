package middleware

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeCORSFile writes a YAML CORS config into a temp dir and returns its path.
func writeCORSFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cors-config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestFileConfigSource_LoadOrigins(t *testing.T) {
	tests := []struct {
		name          string
		content       string
		wantOrigins   []string
		wantErr       bool
		errorContains string
	}{
		{
			name: "valid origins",
			content: `cors:
  allowed_origins:
    - http://localhost:3000
    - https://app.example.com
`,
			wantOrigins: []string{"http://localhost:3000", "https://app.example.com"},
		},
		{
			name: "no origins fails closed",
			content: `cors:
  allowed_methods: [GET]
`,
			wantErr:       true,
			errorContains: "at least one valid origin",
		},
		{
			name: "invalid scheme rejected",
			content: `cors:
  allowed_origins:
    - ftp://example.com
`,
			wantErr:       true,
			errorContains: "http or https",
		},
		{
			name: "trailing slash rejected",
			content: `cors:
  allowed_origins:
    - http://localhost:3000/
`,
			wantErr: true,
		},
		{
			name: "origin with path rejected",
			content: `cors:
  allowed_origins:
    - https://example.com/app
`,
			wantErr:       true,
			errorContains: "must not include path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &FileConfigSource{Path: writeCORSFile(t, tt.content)}
			origins, err := source.LoadOrigins()

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error but got nil")
				}
				if tt.errorContains != "" && !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("error = %v, should contain %q", err, tt.errorContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(origins) != len(tt.wantOrigins) {
				t.Fatalf("got %d origins, want %d", len(origins), len(tt.wantOrigins))
			}
			for i, want := range tt.wantOrigins {
				if origins[i] != want {
					t.Errorf("origin[%d] = %q, want %q", i, origins[i], want)
				}
			}
		})
	}
}

func TestFileConfigSource_LoadMethods(t *testing.T) {
	t.Run("defaults when absent", func(t *testing.T) {
		source := &FileConfigSource{Path: writeCORSFile(t, `cors:
  allowed_origins: [http://localhost:3000]
`)}
		methods, err := source.LoadMethods()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(methods) != 6 {
			t.Errorf("expected 6 default methods, got %d", len(methods))
		}
	})

	t.Run("normalizes to upper case", func(t *testing.T) {
		source := &FileConfigSource{Path: writeCORSFile(t, `cors:
  allowed_origins: [http://localhost:3000]
  allowed_methods: [get, post]
`)}
		methods, err := source.LoadMethods()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if methods[0] != "GET" || methods[1] != "POST" {
			t.Errorf("methods not normalized: %v", methods)
		}
	})

	t.Run("rejects invalid method", func(t *testing.T) {
		source := &FileConfigSource{Path: writeCORSFile(t, `cors:
  allowed_origins: [http://localhost:3000]
  allowed_methods: [TRACE]
`)}
		if _, err := source.LoadMethods(); err == nil {
			t.Error("expected error for invalid method")
		}
	})
}

func TestFileConfigSource_LoadMaxAge(t *testing.T) {
	t.Run("defaults when absent", func(t *testing.T) {
		source := &FileConfigSource{Path: writeCORSFile(t, `cors:
  allowed_origins: [http://localhost:3000]
`)}
		maxAge, err := source.LoadMaxAge()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if maxAge != 86400 {
			t.Errorf("maxAge = %d, want 86400", maxAge)
		}
	})

	t.Run("rejects negative", func(t *testing.T) {
		source := &FileConfigSource{Path: writeCORSFile(t, `cors:
  allowed_origins: [http://localhost:3000]
  max_age: -1
`)}
		if _, err := source.LoadMaxAge(); err == nil {
			t.Error("expected error for negative max_age")
		}
	})

	t.Run("zero disables caching", func(t *testing.T) {
		source := &FileConfigSource{Path: writeCORSFile(t, `cors:
  allowed_origins: [http://localhost:3000]
  max_age: 0
`)}
		maxAge, err := source.LoadMaxAge()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if maxAge != 0 {
			t.Errorf("maxAge = %d, want 0", maxAge)
		}
	})
}

func TestFileConfigSource_MissingFile(t *testing.T) {
	source := &FileConfigSource{Path: filepath.Join(t.TempDir(), "does-not-exist.yaml")}
	if _, err := source.LoadOrigins(); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFileConfigSource_LoadsThroughSharedLoader(t *testing.T) {
	source := &FileConfigSource{Path: writeCORSFile(t, `cors:
  allowed_origins: [http://localhost:3000]
  allowed_headers: [Content-Type, Authorization]
  max_age: 3600
`)}

	config, err := LoadCORSConfigFromSource(source, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.MaxAge != 3600 {
		t.Errorf("MaxAge = %d, want 3600", config.MaxAge)
	}
	if len(config.AllowedHeaders) != 2 {
		t.Errorf("got %d headers, want 2", len(config.AllowedHeaders))
	}
}
