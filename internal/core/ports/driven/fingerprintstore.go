package driven

import (
	"context"

	"github.com/murmurapp/searchcore/internal/core/domain"
)

// FingerprintStore persists one content fingerprint per record,
// written at index time and compared on the next cycle to decide
// whether the record changed.
type FingerprintStore interface {
	// Get retrieves the stored fingerprint for a record.
	// Returns domain.ErrNotFound if the record was never indexed.
	Get(ctx context.Context, recordID string) (domain.Fingerprint, error)

	// Set stores or replaces the fingerprint for a record.
	Set(ctx context.Context, recordID string, fp domain.Fingerprint) error

	// Delete removes the fingerprint for a record.
	// Deleting an absent entry is a no-op, not an error.
	Delete(ctx context.Context, recordID string) error

	// Close releases resources.
	Close() error
}
