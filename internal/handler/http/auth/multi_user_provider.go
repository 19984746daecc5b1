package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"os"
	"strings"

	authservice "github.com/yussieik/pazpaz-sub002/internal/service/auth"
)

// MultiUserAuthProvider implements environment-based authentication for
// multiple users. It supports an admin user and an optional read-only
// assistant user, each bound to their own workspace.
type MultiUserAuthProvider struct {
	minPasswordLength int
	weakPasswords     []string
}

// NewMultiUserAuthProvider creates a new multi-user auth provider.
func NewMultiUserAuthProvider(minPasswordLength int, weakPasswords []string) *MultiUserAuthProvider {
	return &MultiUserAuthProvider{
		minPasswordLength: minPasswordLength,
		weakPasswords:     weakPasswords,
	}
}

// ValidateCredentials validates credentials against environment variables.
// It checks both admin and assistant credentials.
func (p *MultiUserAuthProvider) ValidateCredentials(ctx context.Context, creds authservice.Credentials) error {
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

	// Get admin credentials
	adminUser := os.Getenv("ADMIN_USER")
	adminPass := os.Getenv("ADMIN_USER_PASSWORD")

	// Check admin credentials using constant-time comparison
	adminUserMatch := subtle.ConstantTimeCompare([]byte(creds.Username), []byte(adminUser)) == 1
	adminPassMatch := subtle.ConstantTimeCompare([]byte(creds.Password), []byte(adminPass)) == 1

	if adminUserMatch && adminPassMatch {
		return nil
	}

	// Get assistant credentials (optional)
	assistantUser := os.Getenv("ASSISTANT_USER")
	assistantPass := os.Getenv("ASSISTANT_USER_PASSWORD")

	// Only check assistant if configured
	if assistantUser != "" {
		assistantUserMatch := subtle.ConstantTimeCompare([]byte(creds.Username), []byte(assistantUser)) == 1
		assistantPassMatch := subtle.ConstantTimeCompare([]byte(creds.Password), []byte(assistantPass)) == 1

		if assistantUserMatch && assistantPassMatch {
			return nil
		}
	}

	return fmt.Errorf("invalid credentials")
}

// IdentifyUser returns the identity for a given email address.
// The admin workspace comes from ADMIN_WORKSPACE_ID, the assistant
// workspace from ASSISTANT_WORKSPACE_ID.
func (p *MultiUserAuthProvider) IdentifyUser(ctx context.Context, email string) (authservice.Identity, error) {
	if email == "" {
		return authservice.Identity{}, fmt.Errorf("email must not be empty")
	}

	adminUser := os.Getenv("ADMIN_USER")
	assistantUser := os.Getenv("ASSISTANT_USER")

	// Check admin using constant-time comparison
	if subtle.ConstantTimeCompare([]byte(email), []byte(adminUser)) == 1 {
		wsID, err := workspaceFromEnv("ADMIN_WORKSPACE_ID")
		if err != nil {
			return authservice.Identity{}, err
		}
		return authservice.Identity{Role: RoleAdmin, WorkspaceID: wsID}, nil
	}

	// Check assistant if configured
	if assistantUser != "" && subtle.ConstantTimeCompare([]byte(email), []byte(assistantUser)) == 1 {
		wsID, err := workspaceFromEnv("ASSISTANT_WORKSPACE_ID")
		if err != nil {
			return authservice.Identity{}, err
		}
		return authservice.Identity{Role: RoleAssistant, WorkspaceID: wsID}, nil
	}

	return authservice.Identity{}, fmt.Errorf("user not found")
}

// GetRequirements returns the password requirements.
func (p *MultiUserAuthProvider) GetRequirements() authservice.CredentialRequirements {
	return authservice.CredentialRequirements{
		MinPasswordLength: p.minPasswordLength,
		WeakPasswords:     p.weakPasswords,
	}
}

// Name returns the provider name.
func (p *MultiUserAuthProvider) Name() string {
	return "multi-user"
}
