package session

import "errors"

var (
	// ErrSessionNotFound indicates that the requested session note was not
	// found in the workspace.
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidSessionID indicates that the session ID is missing.
	ErrInvalidSessionID = errors.New("invalid session ID")

	// ErrInvalidWorkspaceID indicates that the workspace ID is missing.
	ErrInvalidWorkspaceID = errors.New("invalid workspace ID")
)
