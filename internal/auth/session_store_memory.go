package auth

import (
	"context"
	"sync"
)

// NewInMemorySessionStore returns a SessionStore backed by an in-memory map.
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{credentials: make(map[string]string)}
}

// InMemorySessionStore implements SessionStore for tests and local development.
type InMemorySessionStore struct {
	mu          sync.RWMutex
	credentials map[string]string
}

// SetRefreshCredential stores the fingerprint for the account.
func (s *InMemorySessionStore) SetRefreshCredential(_ context.Context, accountID, fingerprint string) error {
	s.mu.Lock()
	s.credentials[accountID] = fingerprint
	s.mu.Unlock()
	return nil
}

// SwapRefreshCredential replaces the fingerprint only when the stored value
// still equals old, mirroring the compare-and-set UPDATE of the SQL store.
func (s *InMemorySessionStore) SwapRefreshCredential(_ context.Context, accountID, old, new string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.credentials[accountID]
	if !ok || current != old {
		return ErrSessionSuperseded
	}
	s.credentials[accountID] = new
	return nil
}

// ClearRefreshCredential removes the fingerprint for the account.
func (s *InMemorySessionStore) ClearRefreshCredential(_ context.Context, accountID string) error {
	s.mu.Lock()
	delete(s.credentials, accountID)
	s.mu.Unlock()
	return nil
}

// Current returns the stored fingerprint. Useful for tests.
func (s *InMemorySessionStore) Current(accountID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fingerprint, ok := s.credentials[accountID]
	return fingerprint, ok
}
