package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

func TestGenerateSecureToken(t *testing.T) {
	token, err := GenerateSecureToken()
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	// Each call generates a unique token
	token2, err := GenerateSecureToken()
	assert.NoError(t, err)
	assert.NotEqual(t, token, token2)

	// base64 encoding of 32 bytes should be at least 40 chars
	assert.GreaterOrEqual(t, len(token), 40)
}

func TestHashServiceToken(t *testing.T) {
	token := "svc-token-12345"

	hashed, err := HashServiceToken(token)
	assert.NoError(t, err)
	assert.NotEmpty(t, hashed)
	assert.NotEqual(t, []byte(token), hashed)

	err = bcrypt.CompareHashAndPassword(hashed, []byte(token))
	assert.NoError(t, err)

	assert.True(t, VerifyServiceToken(hashed, token))
	assert.False(t, VerifyServiceToken(hashed, "wrong-token"))

	// Same token produces different hashes due to salt
	hashed2, err := HashServiceToken(token)
	assert.NoError(t, err)
	assert.NotEqual(t, hashed, hashed2)
}
