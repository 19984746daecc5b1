package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const testJWTSecret = "test-secret-key-at-least-32-characters-long-for-testing"

var testWorkspaceID = uuid.MustParse("11111111-1111-1111-1111-111111111111")

// signTestToken creates an HS256 token with the given claims.
func signTestToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

// validClaims returns claims for an admin token bound to the test workspace.
func validClaims(role string) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":          "therapist@example.com",
		"role":         role,
		"workspace_id": testWorkspaceID.String(),
		"exp":          time.Now().Add(1 * time.Hour).Unix(),
	}
}

// testSuccessHandler returns a simple test handler that writes "success"
func testSuccessHandler(t *testing.T) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("success")); err != nil {
			t.Errorf("Failed to write response: %v", err)
		}
	}
}

// TestAuthz_PublicEndpoints verifies that public endpoints are accessible without JWT tokens.
func TestAuthz_PublicEndpoints(t *testing.T) {
	t.Setenv("JWT_SECRET", testJWTSecret)

	publicEndpoints := []struct {
		name   string
		method string
		path   string
	}{
		{"health check", "GET", "/health"},
		{"readiness probe", "GET", "/ready"},
		{"liveness probe", "GET", "/live"},
		{"metrics endpoint", "GET", "/metrics"},
		{"auth token", "POST", "/auth/token"},
	}

	middleware := Authz(testSuccessHandler(t))

	for _, tt := range publicEndpoints {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()

			middleware.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("Expected status %d for public endpoint %s, got %d",
					http.StatusOK, tt.path, rec.Code)
			}
		})
	}
}

// TestAuthz_ProtectedEndpoints_WithoutToken verifies that protected endpoints
// return 401 Unauthorized when no JWT token is provided.
func TestAuthz_ProtectedEndpoints_WithoutToken(t *testing.T) {
	t.Setenv("JWT_SECRET", testJWTSecret)

	protectedEndpoints := []struct {
		method string
		path   string
	}{
		{"GET", "/clients"},
		{"POST", "/clients"},
		{"GET", "/appointments"},
		{"PUT", "/appointments/1"},
		{"GET", "/clients/1/sessions"},
		{"POST", "/ai/ask"},
	}

	middleware := Authz(testSuccessHandler(t))

	for _, tt := range protectedEndpoints {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()

			middleware.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, rec.Code)
			}
		})
	}
}

// TestAuthz_ValidToken_InjectsIdentity verifies that a valid admin token
// passes and that the workspace and user land in the request context.
func TestAuthz_ValidToken_InjectsIdentity(t *testing.T) {
	t.Setenv("JWT_SECRET", testJWTSecret)

	var gotWorkspace uuid.UUID
	var gotUser string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, ok := WorkspaceID(r.Context())
		if !ok {
			t.Error("expected workspace in context")
		}
		gotWorkspace = ws
		user, ok := UserID(r.Context())
		if !ok {
			t.Error("expected user in context")
		}
		gotUser = user
		w.WriteHeader(http.StatusOK)
	})

	middleware := Authz(next)

	req := httptest.NewRequest("GET", "/clients", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, testJWTSecret, validClaims(RoleAdmin)))
	rec := httptest.NewRecorder()

	middleware.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if gotWorkspace != testWorkspaceID {
		t.Errorf("Expected workspace %s, got %s", testWorkspaceID, gotWorkspace)
	}
	if gotUser != "therapist@example.com" {
		t.Errorf("Expected user therapist@example.com, got %s", gotUser)
	}
}

// TestAuthz_InvalidTokens verifies that malformed or tampered tokens are rejected.
func TestAuthz_InvalidTokens(t *testing.T) {
	t.Setenv("JWT_SECRET", testJWTSecret)

	expired := validClaims(RoleAdmin)
	expired["exp"] = time.Now().Add(-1 * time.Hour).Unix()

	noWorkspace := validClaims(RoleAdmin)
	delete(noWorkspace, "workspace_id")

	badWorkspace := validClaims(RoleAdmin)
	badWorkspace["workspace_id"] = "not-a-uuid"

	nilWorkspace := validClaims(RoleAdmin)
	nilWorkspace["workspace_id"] = uuid.Nil.String()

	tests := []struct {
		name   string
		header string
	}{
		{"missing bearer prefix", signTestToken(t, testJWTSecret, validClaims(RoleAdmin))},
		{"wrong secret", "Bearer " + signTestToken(t, "some-other-secret-that-is-long-enough", validClaims(RoleAdmin))},
		{"expired token", "Bearer " + signTestToken(t, testJWTSecret, expired)},
		{"missing workspace claim", "Bearer " + signTestToken(t, testJWTSecret, noWorkspace)},
		{"malformed workspace claim", "Bearer " + signTestToken(t, testJWTSecret, badWorkspace)},
		{"nil workspace claim", "Bearer " + signTestToken(t, testJWTSecret, nilWorkspace)},
		{"garbage token", "Bearer not.a.token"},
	}

	middleware := Authz(testSuccessHandler(t))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/clients", nil)
			req.Header.Set("Authorization", tt.header)
			rec := httptest.NewRecorder()

			middleware.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, rec.Code)
			}
		})
	}
}

// TestAuthz_AssistantRole verifies the read-only permission boundary for
// the assistant role.
func TestAuthz_AssistantRole(t *testing.T) {
	t.Setenv("JWT_SECRET", testJWTSecret)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"can list clients", "GET", "/clients", http.StatusOK},
		{"can list appointments", "GET", "/appointments", http.StatusOK},
		{"cannot create clients", "POST", "/clients", http.StatusForbidden},
		{"cannot delete appointments", "DELETE", "/appointments/1", http.StatusForbidden},
		{"cannot read sessions", "GET", "/sessions/1", http.StatusForbidden},
		{"cannot use ai", "POST", "/ai/ask", http.StatusForbidden},
	}

	middleware := Authz(testSuccessHandler(t))
	token := "Bearer " + signTestToken(t, testJWTSecret, validClaims(RoleAssistant))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set("Authorization", token)
			rec := httptest.NewRecorder()

			middleware.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

// TestAuthz_UnknownRole verifies that tokens with unrecognized roles are denied.
func TestAuthz_UnknownRole(t *testing.T) {
	t.Setenv("JWT_SECRET", testJWTSecret)

	middleware := Authz(testSuccessHandler(t))

	req := httptest.NewRequest("GET", "/clients", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, testJWTSecret, validClaims("superuser")))
	rec := httptest.NewRecorder()

	middleware.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected status %d, got %d", http.StatusForbidden, rec.Code)
	}
}

// TestWorkspaceID_MissingFromContext verifies the accessor reports absence.
func TestWorkspaceID_MissingFromContext(t *testing.T) {
	req := httptest.NewRequest("GET", "/clients", nil)

	if _, ok := WorkspaceID(req.Context()); ok {
		t.Error("expected no workspace in bare context")
	}
	if _, ok := UserID(req.Context()); ok {
		t.Error("expected no user in bare context")
	}
}
