package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"encoding/json"

	"github.com/golang-jwt/jwt/v5"

	authservice "github.com/yussieik/pazpaz-sub002/internal/service/auth"
)

func setupTokenEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", testJWTSecret)
	t.Setenv("ADMIN_USER", "therapist@example.com")
	t.Setenv("ADMIN_USER_PASSWORD", "very-strong-credential-2026")
	t.Setenv("ADMIN_WORKSPACE_ID", testWorkspaceID.String())
}

func newTokenHandler() http.HandlerFunc {
	provider := NewBasicAuthProvider(12, []string{"admin", "password"})
	svc := authservice.NewAuthService(provider, PublicEndpoints)
	return TokenHandler(svc)
}

func TestTokenHandler_Success(t *testing.T) {
	setupTokenEnv(t)

	body := `{"email":"therapist@example.com","password":"very-strong-credential-2026"}`
	req := httptest.NewRequest("POST", "/auth/token", strings.NewReader(body))
	rec := httptest.NewRecorder()

	newTokenHandler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected non-empty token")
	}

	tok, err := jwt.Parse(resp.Token, func(t *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	if err != nil || !tok.Valid {
		t.Fatalf("issued token does not validate: %v", err)
	}
	claims := tok.Claims.(jwt.MapClaims)
	if claims["sub"] != "therapist@example.com" {
		t.Errorf("unexpected sub claim: %v", claims["sub"])
	}
	if claims["role"] != RoleAdmin {
		t.Errorf("unexpected role claim: %v", claims["role"])
	}
	if claims["workspace_id"] != testWorkspaceID.String() {
		t.Errorf("unexpected workspace_id claim: %v", claims["workspace_id"])
	}
}

func TestTokenHandler_InvalidJSON(t *testing.T) {
	setupTokenEnv(t)

	req := httptest.NewRequest("POST", "/auth/token", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	newTokenHandler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestTokenHandler_WrongPassword(t *testing.T) {
	setupTokenEnv(t)

	body := `{"email":"therapist@example.com","password":"wrong-but-long-enough-pass"}`
	req := httptest.NewRequest("POST", "/auth/token", strings.NewReader(body))
	rec := httptest.NewRecorder()

	newTokenHandler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestTokenHandler_MissingWorkspaceConfig(t *testing.T) {
	setupTokenEnv(t)
	t.Setenv("ADMIN_WORKSPACE_ID", "")

	body := `{"email":"therapist@example.com","password":"very-strong-credential-2026"}`
	req := httptest.NewRequest("POST", "/auth/token", strings.NewReader(body))
	rec := httptest.NewRecorder()

	newTokenHandler().ServeHTTP(rec, req)

	// Identity resolution fails without a workspace binding, so no token
	// is ever issued for a tenantless user.
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}
