package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSyncInProgress indicates an indexing cycle is already running.
	// Concurrent triggers are dropped, never run in parallel.
	ErrSyncInProgress = errors.New("sync in progress")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// ready. Vector/semantic search and indexing are disabled without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrKeywordUnavailable indicates the keyword index is unreachable.
	// Search degrades to vector-only ranking.
	ErrKeywordUnavailable = errors.New("keyword index unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is unreachable.
	// Search degrades to keyword-only ranking.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrSearchUnavailable indicates both ranking paths failed.
	// Only a total dual-path failure surfaces this to the caller.
	ErrSearchUnavailable = errors.New("search unavailable")

	// ErrChunkSizeViolation indicates a produced chunk exceeded the
	// configured token budget without being a single oversized
	// sentence. This signals a chunker logic bug, never bad input.
	ErrChunkSizeViolation = errors.New("chunk size violation")
)

// SegmentationError indicates the sentence segmenter received
// malformed input. Non-fatal: callers may fall back to treating the
// entire text as one sentence.
type SegmentationError struct {
	// Reason describes what made the input unsegmentable.
	Reason string
}

func (e *SegmentationError) Error() string {
	return fmt.Sprintf("segmentation failed: %s", e.Reason)
}

// FieldError wraps a failure that occurred while chunking or
// embedding one field of a record. It isolates the failing field so
// one field's unavailable embedding does not silently drop the rest.
type FieldError struct {
	// Field is the record field whose processing failed.
	Field Field

	// Err is the underlying failure.
	Err error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %v", e.Field, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *FieldError) Unwrap() error {
	return e.Err
}
