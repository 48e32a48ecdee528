// Package transfer implements the signed tokens that carry an
// authenticated session across a context boundary, e.g. from the system
// browser back into the app's embedded WebView. The token wraps the
// underlying session credential as an opaque blob; holders of a valid,
// unexpired token can restore that session without re-authenticating.
package transfer

import (
	"fmt"
	"time"

	"github.com/traino/session-bridge/internal/crypto"
	"github.com/traino/session-bridge/internal/emailutil"
	"github.com/traino/session-bridge/internal/log"
)

// DefaultTokenTTL is how long a transfer token stays valid
const DefaultTokenTTL = time.Hour

// Claims represents the data embedded in a transfer token
type Claims struct {
	Email           string    `json:"email"`
	OriginalSession string    `json:"original_session"`
	IssuedAt        time.Time `json:"issued_at"`
}

// Codec issues and verifies transfer tokens
type Codec struct {
	signer crypto.TokenSigner
	now    func() time.Time
}

// NewCodec creates a transfer token codec. An empty signing key is a
// deployment defect and refuses to construct rather than issue
// unverifiable tokens.
func NewCodec(signingKey []byte, ttl time.Duration) (*Codec, error) {
	return NewCodecWithClock(signingKey, ttl, time.Now)
}

// NewCodecWithClock creates a codec with a caller-supplied clock for tests
func NewCodecWithClock(signingKey []byte, ttl time.Duration, now func() time.Time) (*Codec, error) {
	if len(signingKey) == 0 {
		return nil, fmt.Errorf("transfer token signing key is not configured")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Codec{
		signer: crypto.NewTokenSignerWithClock(signingKey, ttl, now),
		now:    now,
	}, nil
}

// TTL returns the configured token lifetime
func (c *Codec) TTL() time.Duration {
	return c.signer.TTL()
}

// Issue creates a signed transfer token for the given identity wrapping
// the opaque session credential
func (c *Codec) Issue(email, originalSession string) (string, error) {
	email = emailutil.Normalize(email)
	if email == "" {
		return "", fmt.Errorf("email is required")
	}
	if originalSession == "" {
		return "", fmt.Errorf("original session is required")
	}

	claims := Claims{
		Email:           email,
		OriginalSession: originalSession,
		IssuedAt:        c.now(),
	}

	token, err := c.signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("failed to sign transfer token: %w", err)
	}

	return token, nil
}

// Verify validates a transfer token and returns its claims. Returns nil
// for any malformed, tampered, or expired token: callers treat all of
// these as the routine "link expired" case, so the distinction between
// failure modes is logged but never propagated.
func (c *Codec) Verify(token string) *Claims {
	if token == "" {
		return nil
	}

	var claims Claims
	if err := c.signer.Verify(token, &claims); err != nil {
		log.LogDebugWithFields("transfer", "Transfer token rejected", map[string]any{
			"reason": err.Error(),
		})
		return nil
	}

	if claims.Email == "" || claims.OriginalSession == "" {
		return nil
	}

	return &claims
}
