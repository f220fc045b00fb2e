// Package badger provides a fingerprint store backed by BadgerDB, for
// deployments that want change detection without the SQLite metadata
// store (for example a vector index in PostgreSQL and nothing else on
// local disk).
package badger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/murmurapp/searchcore/internal/core/domain"
	"github.com/murmurapp/searchcore/internal/core/ports/driven"
	"github.com/murmurapp/searchcore/internal/logger"
)

// Ensure FingerprintStore implements the interface.
var _ driven.FingerprintStore = (*FingerprintStore)(nil)

// keyPrefix namespaces fingerprint entries so the database can host
// other key spaces later without a migration.
const keyPrefix = "fingerprint:"

// FingerprintStore persists record fingerprints in BadgerDB.
type FingerprintStore struct {
	db *badger.DB
}

// loggerAdapter routes badger's internal logging through the package
// logger so it only shows up in verbose mode.
type loggerAdapter struct{}

var _ badger.Logger = (*loggerAdapter)(nil)

func (loggerAdapter) Errorf(msg string, args ...any)   { logger.Warn("badger: "+msg, args...) }
func (loggerAdapter) Warningf(msg string, args ...any) { logger.Warn("badger: "+msg, args...) }
func (loggerAdapter) Infof(msg string, args ...any)    { logger.Debug("badger: "+msg, args...) }
func (loggerAdapter) Debugf(msg string, args ...any)   { logger.Debug("badger: "+msg, args...) }

// NewFingerprintStore opens a BadgerDB database at the given data
// directory. If dataDir is empty, defaults to
// ~/.murmur/searchcore/fingerprints.
func NewFingerprintStore(dataDir string) (*FingerprintStore, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".murmur", "searchcore", "fingerprints")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// Fingerprints are tiny hex strings; compression would cost more
	// than it saves.
	opts := badger.DefaultOptions(dataDir)
	opts.Compression = options.None
	opts.Logger = loggerAdapter{}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger database: %w", err)
	}

	return &FingerprintStore{db: db}, nil
}

// Get retrieves the stored fingerprint for a record.
// Returns domain.ErrNotFound if the record was never indexed.
func (s *FingerprintStore) Get(_ context.Context, recordID string) (domain.Fingerprint, error) {
	var fp domain.Fingerprint
	err := s.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get(key(recordID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			fp = domain.Fingerprint(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading fingerprint for %s: %w", recordID, err)
	}
	return fp, nil
}

// Set stores or replaces the fingerprint for a record.
func (s *FingerprintStore) Set(_ context.Context, recordID string, fp domain.Fingerprint) error {
	err := s.db.Update(func(tx *badger.Txn) error {
		return tx.Set(key(recordID), []byte(fp))
	})
	if err != nil {
		return fmt.Errorf("writing fingerprint for %s: %w", recordID, err)
	}
	return nil
}

// Delete removes the fingerprint for a record.
// Deleting an absent entry is a no-op, not an error.
func (s *FingerprintStore) Delete(_ context.Context, recordID string) error {
	err := s.db.Update(func(tx *badger.Txn) error {
		return tx.Delete(key(recordID))
	})
	if err != nil {
		return fmt.Errorf("deleting fingerprint for %s: %w", recordID, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *FingerprintStore) Close() error {
	return s.db.Close()
}

func key(recordID string) []byte {
	return []byte(keyPrefix + recordID)
}
