package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptorRoundTrip(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")

	enc, err := NewEncryptor(key)
	require.NoError(t, err)

	ciphertext, err := enc.Encrypt("session-token-value")
	require.NoError(t, err)
	assert.NotEqual(t, "session-token-value", ciphertext)

	plaintext, err := enc.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "session-token-value", plaintext)

	// Nonces are random, so repeated encryption differs
	ciphertext2, err := enc.Encrypt("session-token-value")
	require.NoError(t, err)
	assert.NotEqual(t, ciphertext, ciphertext2)
}

func TestEncryptorRejectsBadKey(t *testing.T) {
	_, err := NewEncryptor([]byte("too-short"))
	assert.Error(t, err)
}

func TestEncryptorRejectsCorruptCiphertext(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")

	enc, err := NewEncryptor(key)
	require.NoError(t, err)

	_, err = enc.Decrypt("!!!not-base64!!!")
	assert.Error(t, err)

	_, err = enc.Decrypt("c2hvcnQ=") // valid base64, shorter than a nonce
	assert.Error(t, err)

	ciphertext, err := enc.Encrypt("value")
	require.NoError(t, err)
	_, err = enc.Decrypt(ciphertext[:len(ciphertext)-4] + "AAAA")
	assert.Error(t, err)
}
