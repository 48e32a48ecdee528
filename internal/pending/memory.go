package pending

import (
	"context"
	"sync"
	"time"
)

// Ensure MemoryStore implements the Store interface
var _ Store = (*MemoryStore)(nil)

// MemoryStore is the process-local registry backend. Entries are lost on
// restart; the initiating flow is short-lived and retryable, so that is
// an accepted tradeoff.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates an in-memory pending session store
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return NewMemoryStoreWithClock(ttl, time.Now)
}

// NewMemoryStoreWithClock creates a store with a caller-supplied clock for tests
func NewMemoryStoreWithClock(ttl time.Duration, now func() time.Time) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		entries: make(map[string]Entry),
		ttl:     ttl,
		now:     now,
	}
}

// Store inserts or overwrites the entry for authCode with a fresh expiry
func (s *MemoryStore) Store(_ context.Context, authCode, sessionToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[authCode] = Entry{
		SessionToken: sessionToken,
		ExpiresAt:    s.now().Add(s.ttl),
	}
	return nil
}

// Consume retrieves and deletes the entry for authCode. The lookup,
// expiry check, and delete run under one lock so that concurrent
// consumers cannot both succeed.
func (s *MemoryStore) Consume(_ context.Context, authCode string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[authCode]
	if !ok {
		return "", ErrCodeNotFound
	}

	delete(s.entries, authCode)

	if s.now().After(entry.ExpiresAt) {
		return "", ErrCodeNotFound
	}

	return entry.SessionToken, nil
}

// CleanupExpired removes all entries past their expiry and returns how
// many were deleted
func (s *MemoryStore) CleanupExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	count := 0
	for code, entry := range s.entries {
		if now.After(entry.ExpiresAt) {
			delete(s.entries, code)
			count++
		}
	}
	return count, nil
}

// Len reports the number of live entries, expired or not. Used by tests
// and the sweep log.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
