package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	authservice "github.com/yussieik/pazpaz-sub002/internal/service/auth"
)

// BasicAuthProvider implements environment-based authentication for a
// single-practitioner deployment: one admin user bound to one workspace.
type BasicAuthProvider struct {
	minPasswordLength int
	weakPasswords     []string
}

// NewBasicAuthProvider creates a new basic auth provider.
func NewBasicAuthProvider(minPasswordLength int, weakPasswords []string) *BasicAuthProvider {
	return &BasicAuthProvider{
		minPasswordLength: minPasswordLength,
		weakPasswords:     weakPasswords,
	}
}

// ValidateCredentials validates credentials against environment variables.
func (p *BasicAuthProvider) ValidateCredentials(ctx context.Context, creds authservice.Credentials) error {
	// Check if credentials are empty
	if creds.Username == "" || creds.Password == "" {
		return fmt.Errorf("credentials must not be empty")
	}

	// Check password length
	if len(creds.Password) < p.minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", p.minPasswordLength)
	}

	// Check for weak passwords
	for _, weak := range p.weakPasswords {
		if creds.Password == weak || strings.HasPrefix(creds.Password, weak) {
			return fmt.Errorf("weak password detected")
		}
	}

	adminUser := os.Getenv("ADMIN_USER")
	adminPass := os.Getenv("ADMIN_USER_PASSWORD")

	// Use constant-time comparison to prevent timing attacks
	userMatch := subtle.ConstantTimeCompare([]byte(creds.Username), []byte(adminUser)) == 1
	passMatch := subtle.ConstantTimeCompare([]byte(creds.Password), []byte(adminPass)) == 1

	if !userMatch || !passMatch {
		return fmt.Errorf("invalid credentials")
	}

	return nil
}

// GetRequirements returns the password requirements.
func (p *BasicAuthProvider) GetRequirements() authservice.CredentialRequirements {
	return authservice.CredentialRequirements{
		MinPasswordLength: p.minPasswordLength,
		WeakPasswords:     p.weakPasswords,
	}
}

// Name returns the provider name.
func (p *BasicAuthProvider) Name() string {
	return "basic"
}

// IdentifyUser returns the identity for a given email address.
// For BasicAuthProvider only the admin user is supported; its workspace
// comes from ADMIN_WORKSPACE_ID.
func (p *BasicAuthProvider) IdentifyUser(ctx context.Context, email string) (authservice.Identity, error) {
	if email == "" {
		return authservice.Identity{}, fmt.Errorf("email must not be empty")
	}

	adminUser := os.Getenv("ADMIN_USER")

	// Use constant-time comparison to prevent timing attacks
	if subtle.ConstantTimeCompare([]byte(email), []byte(adminUser)) == 1 {
		wsID, err := workspaceFromEnv("ADMIN_WORKSPACE_ID")
		if err != nil {
			return authservice.Identity{}, err
		}
		return authservice.Identity{Role: RoleAdmin, WorkspaceID: wsID}, nil
	}

	return authservice.Identity{}, fmt.Errorf("user not found")
}

// workspaceFromEnv parses a workspace UUID from the named environment
// variable. Tenancy is mandatory: a missing or malformed value is an
// error, never a default workspace.
func workspaceFromEnv(key string) (uuid.UUID, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%s is not set", key)
	}
	wsID, err := uuid.Parse(raw)
	if err != nil || wsID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%s is not a valid workspace id", key)
	}
	return wsID, nil
}
