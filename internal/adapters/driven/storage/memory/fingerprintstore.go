package memory

import (
	"context"
	"sync"

	"github.com/murmurapp/searchcore/internal/core/domain"
	"github.com/murmurapp/searchcore/internal/core/ports/driven"
)

// Ensure FingerprintStore implements the interface.
var _ driven.FingerprintStore = (*FingerprintStore)(nil)

// FingerprintStore is an in-memory implementation of driven.FingerprintStore.
type FingerprintStore struct {
	mu           sync.RWMutex
	fingerprints map[string]domain.Fingerprint
}

// NewFingerprintStore creates a new in-memory fingerprint store.
func NewFingerprintStore() *FingerprintStore {
	return &FingerprintStore{
		fingerprints: make(map[string]domain.Fingerprint),
	}
}

// Get retrieves the stored fingerprint for a record.
func (s *FingerprintStore) Get(_ context.Context, recordID string) (domain.Fingerprint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fp, ok := s.fingerprints[recordID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return fp, nil
}

// Set stores or replaces the fingerprint for a record.
func (s *FingerprintStore) Set(_ context.Context, recordID string, fp domain.Fingerprint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fingerprints[recordID] = fp
	return nil
}

// Delete removes the fingerprint for a record.
func (s *FingerprintStore) Delete(_ context.Context, recordID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.fingerprints, recordID)
	return nil
}

// Close releases resources (no-op for memory store).
func (s *FingerprintStore) Close() error {
	return nil
}
