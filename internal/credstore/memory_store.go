package credstore

import (
	"context"
	"sync"
)

// NewInMemoryStore returns a Store backed by process memory. It is used in
// tests and when no keyphrase is configured, in which case the session
// simply does not survive a restart.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// InMemoryStore implements Store without touching the filesystem.
type InMemoryStore struct {
	mu      sync.Mutex
	cred    Credential
	present bool

	// FailSave and FailClear let tests simulate storage failures.
	FailSave  error
	FailClear error
}

// Load returns the held credential, if any.
func (s *InMemoryStore) Load(_ context.Context) (Credential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.present {
		return Credential{}, false
	}
	return s.cred, true
}

// Save replaces the held credential.
func (s *InMemoryStore) Save(_ context.Context, cred Credential) error {
	if !cred.Complete() {
		return ErrIncompleteCredential
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSave != nil {
		return s.FailSave
	}
	s.cred = cred
	s.present = true
	return nil
}

// Clear drops the held credential.
func (s *InMemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailClear != nil {
		return s.FailClear
	}
	s.cred = Credential{}
	s.present = false
	return nil
}
