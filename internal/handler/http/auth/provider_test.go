package auth

import (
	"context"
	"strings"
	"testing"

	authservice "github.com/yussieik/pazpaz-sub002/internal/service/auth"
)

func TestNewBasicAuthProvider(t *testing.T) {
	weakPasswords := []string{"admin", "password", "123456"}
	provider := NewBasicAuthProvider(12, weakPasswords)

	if provider == nil {
		t.Fatal("expected provider to be non-nil")
	}

	if provider.minPasswordLength != 12 {
		t.Errorf("expected minPasswordLength to be 12, got %d", provider.minPasswordLength)
	}

	if len(provider.weakPasswords) != 3 {
		t.Errorf("expected 3 weak passwords, got %d", len(provider.weakPasswords))
	}
}

func TestBasicAuthProvider_Name(t *testing.T) {
	provider := NewBasicAuthProvider(12, nil)

	if provider.Name() != "basic" {
		t.Errorf("expected name to be 'basic', got '%s'", provider.Name())
	}
}

func TestBasicAuthProvider_GetRequirements(t *testing.T) {
	weakPasswords := []string{"admin", "password"}
	provider := NewBasicAuthProvider(10, weakPasswords)

	reqs := provider.GetRequirements()
	if reqs.MinPasswordLength != 10 {
		t.Errorf("expected MinPasswordLength 10, got %d", reqs.MinPasswordLength)
	}
	if len(reqs.WeakPasswords) != 2 {
		t.Errorf("expected 2 weak passwords, got %d", len(reqs.WeakPasswords))
	}
}

func TestBasicAuthProvider_ValidateCredentials(t *testing.T) {
	t.Setenv("ADMIN_USER", "therapist@example.com")
	t.Setenv("ADMIN_USER_PASSWORD", "very-strong-credential-2026")

	provider := NewBasicAuthProvider(12, []string{"admin", "password", "123456"})
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		wantErr  string
	}{
		{"valid credentials", "therapist@example.com", "very-strong-credential-2026", ""},
		{"empty username", "", "very-strong-credential-2026", "must not be empty"},
		{"empty password", "therapist@example.com", "", "must not be empty"},
		{"short password", "therapist@example.com", "short", "at least 12 characters"},
		{"weak password", "therapist@example.com", "password12345", "weak password"},
		{"wrong password", "therapist@example.com", "wrong-but-long-enough-pass", "invalid credentials"},
		{"unknown user", "other@example.com", "very-strong-credential-2026", "invalid credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := provider.ValidateCredentials(ctx, authservice.Credentials{
				Username: tt.username,
				Password: tt.password,
			})
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected success, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestBasicAuthProvider_IdentifyUser(t *testing.T) {
	t.Setenv("ADMIN_USER", "therapist@example.com")
	t.Setenv("ADMIN_WORKSPACE_ID", testWorkspaceID.String())

	provider := NewBasicAuthProvider(12, nil)
	ctx := context.Background()

	identity, err := provider.IdentifyUser(ctx, "therapist@example.com")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if identity.Role != RoleAdmin {
		t.Errorf("expected role %q, got %q", RoleAdmin, identity.Role)
	}
	if identity.WorkspaceID != testWorkspaceID {
		t.Errorf("expected workspace %s, got %s", testWorkspaceID, identity.WorkspaceID)
	}

	if _, err := provider.IdentifyUser(ctx, "other@example.com"); err == nil {
		t.Error("expected error for unknown user")
	}
	if _, err := provider.IdentifyUser(ctx, ""); err == nil {
		t.Error("expected error for empty email")
	}
}

func TestBasicAuthProvider_IdentifyUser_MissingWorkspace(t *testing.T) {
	t.Setenv("ADMIN_USER", "therapist@example.com")
	t.Setenv("ADMIN_WORKSPACE_ID", "")

	provider := NewBasicAuthProvider(12, nil)

	if _, err := provider.IdentifyUser(context.Background(), "therapist@example.com"); err == nil {
		t.Error("expected error when workspace id is not configured")
	}
}

func TestBasicAuthProvider_IdentifyUser_MalformedWorkspace(t *testing.T) {
	t.Setenv("ADMIN_USER", "therapist@example.com")
	t.Setenv("ADMIN_WORKSPACE_ID", "not-a-uuid")

	provider := NewBasicAuthProvider(12, nil)

	if _, err := provider.IdentifyUser(context.Background(), "therapist@example.com"); err == nil {
		t.Error("expected error for malformed workspace id")
	}
}
