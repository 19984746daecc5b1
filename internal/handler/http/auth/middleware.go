package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yussieik/pazpaz-sub002/internal/handler/http/respond"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey string

const (
	ctxUser      ctxKey = "user"
	ctxWorkspace ctxKey = "workspace"
)

// Claims holds the identity extracted from a validated JWT.
// WorkspaceID scopes every request to a single tenant; handlers must
// never accept a workspace identifier from the request body or URL.
type Claims struct {
	Subject     string
	Role        string
	WorkspaceID uuid.UUID
}

// WorkspaceID returns the authenticated workspace from the request context.
// The second return value is false when the request did not pass through
// the Authz middleware.
func WorkspaceID(ctx context.Context) (uuid.UUID, bool) {
	ws, ok := ctx.Value(ctxWorkspace).(uuid.UUID)
	return ws, ok
}

// UserID returns the authenticated subject from the request context.
func UserID(ctx context.Context) (string, bool) {
	u, ok := ctx.Value(ctxUser).(string)
	return u, ok
}

// WithWorkspace returns a context scoped to the given workspace. Handlers
// normally receive this from Authz; CLI tools and tests use it directly.
func WithWorkspace(ctx context.Context, workspaceID uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxWorkspace, workspaceID)
}

// Authz is an authorization middleware that requires JWT authentication
// for all HTTP methods on protected endpoints.
//
// Authorization Logic:
// 1. Check if the endpoint is public (health checks, metrics, auth)
//   - If public: Allow access without JWT validation
//
// 2. If protected: Require valid JWT token for ALL methods (GET, POST, PUT, DELETE, etc.)
//   - Extract and validate JWT from Authorization header
//   - Verify the role grants the requested method and path
//   - Require a workspace_id claim and scope the request context to it
//
// Security Note:
// Every protected request is bound to exactly one workspace. A token
// without a valid workspace_id claim is rejected even when the signature
// and role are valid, so cross-tenant access cannot be expressed at all.
func Authz(next http.Handler) http.Handler {
	secret := []byte(os.Getenv("JWT_SECRET"))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IsPublicEndpoint(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := validateJWT(r.Header.Get("Authorization"), secret)
		if err != nil {
			respond.SafeError(w, http.StatusUnauthorized, fmt.Errorf("unauthorized: %w", err))
			return
		}
		if !checkRolePermission(claims.Role, r.Method, r.URL.Path) {
			respond.SafeError(w, http.StatusForbidden, errors.New("forbidden"))
			return
		}
		ctx := context.WithValue(r.Context(), ctxUser, claims.Subject)
		ctx = context.WithValue(ctx, ctxWorkspace, claims.WorkspaceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func validateJWT(authz string, secret []byte) (Claims, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(authz, prefix) {
		return Claims{}, errors.New("missing bearer token")
	}
	tokenString := strings.TrimPrefix(authz, prefix)
	tok, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil || !tok.Valid {
		return Claims{}, errors.New("invalid token")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, errors.New("invalid claims")
	}
	if exp, ok := claims["exp"].(float64); !ok || int64(exp) < time.Now().Unix() {
		return Claims{}, errors.New("token expired")
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return Claims{}, errors.New("invalid sub claim")
	}
	role, ok := claims["role"].(string)
	if !ok {
		return Claims{}, errors.New("invalid role claim")
	}
	wsRaw, ok := claims["workspace_id"].(string)
	if !ok {
		return Claims{}, errors.New("invalid workspace_id claim")
	}
	wsID, err := uuid.Parse(wsRaw)
	if err != nil || wsID == uuid.Nil {
		return Claims{}, errors.New("invalid workspace_id claim")
	}
	return Claims{Subject: sub, Role: role, WorkspaceID: wsID}, nil
}
