package domain

import "fmt"

// Field identifies which part of a record a chunk was cut from.
// Keyword and vector hits both report the field so callers can
// weight or display them differently.
type Field string

const (
	// FieldTranscript marks chunks cut from the transcript body.
	FieldTranscript Field = "transcript"

	// FieldTitle marks the single chunk holding the record title.
	FieldTitle Field = "title"

	// FieldSummary marks the single chunk holding the summary, when present.
	FieldSummary Field = "summary"

	// FieldContext marks the single chunk holding the context note, when present.
	FieldContext Field = "context"
)

// Valid reports whether f is one of the known record fields.
func (f Field) Valid() bool {
	switch f {
	case FieldTranscript, FieldTitle, FieldSummary, FieldContext:
		return true
	}
	return false
}

// String returns the string representation.
func (f Field) String() string {
	return string(f)
}

// AllFields returns every known record field.
func AllFields() []Field {
	return []Field{FieldTranscript, FieldTitle, FieldSummary, FieldContext}
}

// Chunk is the atomic retrieval unit: a span of text from one field
// of one record, together with its embedding vector. Transcript
// chunks hold one or more whole sentences; other fields produce
// exactly one chunk holding the entire field.
type Chunk struct {
	// ID is the stable identifier, derived from (RecordID, Field, Index).
	ID string

	// RecordID links to the owning Record.
	RecordID string

	// Field is the record field this chunk was cut from.
	Field Field

	// Index is the 0-based position among chunks from the same field.
	Index int

	// Text is the chunk's raw text.
	Text string

	// Embedding is the unit-normalised vector representation.
	// Mean-pooled over sentence embeddings for multi-sentence chunks.
	Embedding []float32

	// TokenCount is the approximate token length, used to enforce
	// chunk size limits.
	TokenCount int
}

// ChunkID derives the stable identifier for a chunk. The same
// (record, field, index) triple always yields the same ID, so
// re-indexing an unchanged record overwrites rather than duplicates.
func ChunkID(recordID string, field Field, index int) string {
	return fmt.Sprintf("%s:%s:%d", recordID, field, index)
}
