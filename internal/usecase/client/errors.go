// Package client provides use cases for managing clients within a
// workspace. It implements business logic for creating, updating, deleting,
// and querying client records, delegating persistence to the repository.
package client

import "errors"

// Sentinel errors for client use case operations.
var (
	// ErrClientNotFound indicates that the requested client was not found
	// in the workspace.
	ErrClientNotFound = errors.New("client not found")

	// ErrInvalidClientID indicates that the provided client ID is missing.
	ErrInvalidClientID = errors.New("invalid client ID")

	// ErrInvalidWorkspaceID indicates that the workspace ID is missing.
	// Every client operation is workspace-scoped.
	ErrInvalidWorkspaceID = errors.New("invalid workspace ID")
)
