package auth

import (
	"strings"

	"github.com/google/uuid"
)

// NewToken generates an opaque bearer token. Tokens are random identifiers
// with no embedded claims; validity lives entirely in the auth_tokens table.
func NewToken() string {
	return uuid.New().String() + uuid.New().String()
}

// ParseBearer extracts the token from an Authorization header value.
// Returns "" when the header is absent or not a Bearer scheme.
func ParseBearer(header string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
