package crypto

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClaims struct {
	Email string `json:"email"`
	Blob  string `json:"blob"`
}

func TestTokenSignerRoundTrip(t *testing.T) {
	signer := NewTokenSigner([]byte("test-signing-key"), time.Hour)

	token, err := signer.Sign(testClaims{Email: "user@example.com", Blob: "raw-session-blob"})
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	var claims testClaims
	err = signer.Verify(token, &claims)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "raw-session-blob", claims.Blob)
}

func TestTokenSignerRejectsTampering(t *testing.T) {
	signer := NewTokenSigner([]byte("test-signing-key"), time.Hour)

	token, err := signer.Sign(testClaims{Email: "user@example.com"})
	require.NoError(t, err)

	t.Run("appended character", func(t *testing.T) {
		var claims testClaims
		assert.Error(t, signer.Verify(token+"x", &claims))
	})

	t.Run("flipped payload character", func(t *testing.T) {
		payload, sig, ok := strings.Cut(token, ".")
		require.True(t, ok)

		flipped := []byte(payload)
		if flipped[0] == 'A' {
			flipped[0] = 'B'
		} else {
			flipped[0] = 'A'
		}

		var claims testClaims
		assert.Error(t, signer.Verify(string(flipped)+"."+sig, &claims))
	})

	t.Run("wrong key", func(t *testing.T) {
		other := NewTokenSigner([]byte("different-key"), time.Hour)
		var claims testClaims
		assert.Error(t, other.Verify(token, &claims))
	})

	t.Run("garbage input", func(t *testing.T) {
		var claims testClaims
		assert.Error(t, signer.Verify("not-a-token", &claims))
		assert.Error(t, signer.Verify("", &claims))
		assert.Error(t, signer.Verify("a.b.c", &claims))
	})
}

func TestTokenSignerExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	signer := NewTokenSignerWithClock([]byte("test-signing-key"), time.Hour, clock)

	token, err := signer.Sign(testClaims{Email: "user@example.com"})
	require.NoError(t, err)

	var claims testClaims
	require.NoError(t, signer.Verify(token, &claims))

	// Advance past the TTL
	now = now.Add(time.Hour + time.Second)
	err = signer.Verify(token, &claims)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestSignDataValidation(t *testing.T) {
	key := []byte("key")

	sig := SignData("payload", key)
	assert.True(t, ValidateSignedData("payload", sig, key))
	assert.False(t, ValidateSignedData("other payload", sig, key))
	assert.False(t, ValidateSignedData("payload", sig, []byte("other key")))
	assert.False(t, ValidateSignedData("payload", "not base64 !!!", key))
}
