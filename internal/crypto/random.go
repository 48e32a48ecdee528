package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// GenerateSecureToken creates a cryptographically secure random token.
// Returns a base64 URL-encoded string suitable for use as auth codes,
// session credentials, state nonces, etc.
func GenerateSecureToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// HashServiceToken hashes a service bearer token using bcrypt.
// This should be used before storing the token in config
func HashServiceToken(token string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
}

// VerifyServiceToken checks a presented bearer token against its bcrypt hash
func VerifyServiceToken(hashed []byte, token string) bool {
	return bcrypt.CompareHashAndPassword(hashed, []byte(token)) == nil
}
