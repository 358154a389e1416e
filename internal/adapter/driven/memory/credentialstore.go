// Package memory implements in-process state stores. They back ephemeral
// sessions (no state file configured) and stand in for SQLite in tests.
package memory

import (
	"context"
	"sync"

	"github.com/ericfisherdev/qabox/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialStore)(nil)

// CredentialStore holds the console credential in memory. Concurrent writers
// race with last-writer-wins semantics.
type CredentialStore struct {
	mu    sync.RWMutex
	token string
}

// NewCredentialStore returns a store pre-populated with token ("" for empty).
func NewCredentialStore(token string) *CredentialStore {
	return &CredentialStore{token: token}
}

// Read returns the stored credential or "".
func (s *CredentialStore) Read(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

// Write replaces the stored credential.
func (s *CredentialStore) Write(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

// Clear empties the store.
func (s *CredentialStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
