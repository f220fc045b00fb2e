package driven

import (
	"context"

	"github.com/murmurapp/searchcore/internal/core/domain"
)

// RecordStore is the source of truth for voice records.
// The index orchestrator only reads from it; the write methods serve
// the record management commands.
type RecordStore interface {
	// ListAll returns every record, in a stable order.
	ListAll(ctx context.Context) ([]domain.Record, error)

	// Get retrieves a record by ID.
	// Returns domain.ErrNotFound if the record does not exist.
	Get(ctx context.Context, id string) (*domain.Record, error)

	// Save stores or updates a record.
	Save(ctx context.Context, rec *domain.Record) error

	// Delete removes a record.
	// Deleting an absent record is a no-op, not an error.
	Delete(ctx context.Context, id string) error
}
