package pathutil

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidID is returned when the ID in the URL path is invalid.
var ErrInvalidID = errors.New("invalid id")

// ExtractUUID strips prefix from path and parses the remaining segment
// as a UUID. The segment must be a single path element; nested paths
// and the nil UUID both return ErrInvalidID.
//
//	id, err := ExtractUUID("/clients/5f1c2f1e-0000-4000-8000-000000000001", "/clients/")
func ExtractUUID(path, prefix string) (uuid.UUID, error) {
	idStr := strings.TrimPrefix(path, prefix)
	idStr = strings.TrimSuffix(idStr, "/")
	if idStr == "" || strings.Contains(idStr, "/") {
		return uuid.Nil, ErrInvalidID
	}
	id, err := uuid.Parse(idStr)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, ErrInvalidID
	}
	return id, nil
}
