// Package pending bridges an out-of-band login completion (OAuth
// finishing in the system browser) to a polling WebView that cannot
// receive redirects. The completing flow stores the transfer token under
// a one-time auth code; the poller consumes it exactly once.
package pending

import (
	"context"
	"errors"
	"time"
)

const (
	// DefaultTTL is how long an unconsumed entry survives
	DefaultTTL = 15 * time.Minute

	// DefaultSweepInterval is how often expired entries are purged
	DefaultSweepInterval = 5 * time.Minute
)

// ErrCodeNotFound is returned when an auth code is unknown, expired, or
// already consumed. Callers must not be able to distinguish these cases.
var ErrCodeNotFound = errors.New("pending session not found")

// Entry is a stored pending session
type Entry struct {
	SessionToken string
	ExpiresAt    time.Time
}

// Store holds pending sessions keyed by one-time auth code.
//
// Consume is at-most-once: under concurrent calls for the same code, at
// most one caller receives the token. Store is last-write-wins per code;
// the caller is responsible for generating unguessable codes.
type Store interface {
	Store(ctx context.Context, authCode, sessionToken string) error
	Consume(ctx context.Context, authCode string) (string, error)
	CleanupExpired(ctx context.Context) (int, error)
}
