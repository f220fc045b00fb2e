package chunking

import (
	"context"
	"strings"

	"github.com/murmurapp/searchcore/internal/core/domain"
	"github.com/murmurapp/searchcore/internal/core/ports/driven"
)

// RecordChunker maps a whole record into its indexable chunks:
// N semantic transcript chunks, one title chunk, and one chunk each
// for summary and context when those fields are populated.
// It implements the driven.RecordChunker port.
type RecordChunker struct {
	semantic *SemanticChunker
}

// NewRecordChunker creates a record chunker on top of the given
// semantic chunker.
func NewRecordChunker(semantic *SemanticChunker) *RecordChunker {
	return &RecordChunker{semantic: semantic}
}

// ChunkRecord produces the full chunk set for a record. Chunk indexes
// are sequential per field and chunk IDs are derived from
// (record, field, index), so re-chunking an unchanged record yields
// identical IDs.
//
// A failure while processing one field is wrapped in a
// domain.FieldError naming that field and aborts the record; partial
// chunk sets are never returned.
func (rc *RecordChunker) ChunkRecord(ctx context.Context, rec domain.Record) ([]domain.Chunk, error) {
	var chunks []domain.Chunk

	spans, err := rc.semantic.ChunkText(ctx, rec.Transcript)
	if err != nil {
		return nil, &domain.FieldError{Field: domain.FieldTranscript, Err: err}
	}
	for i, span := range spans {
		chunks = append(chunks, bindSpan(rec.ID, domain.FieldTranscript, i, span))
	}

	if title := strings.TrimSpace(rec.Title); title != "" {
		span, err := rc.semantic.EmbedField(ctx, title)
		if err != nil {
			return nil, &domain.FieldError{Field: domain.FieldTitle, Err: err}
		}
		chunks = append(chunks, bindSpan(rec.ID, domain.FieldTitle, 0, span))
	}

	if rec.HasSummary() {
		span, err := rc.semantic.EmbedField(ctx, strings.TrimSpace(rec.Summary))
		if err != nil {
			return nil, &domain.FieldError{Field: domain.FieldSummary, Err: err}
		}
		chunks = append(chunks, bindSpan(rec.ID, domain.FieldSummary, 0, span))
	}

	if rec.HasContext() {
		span, err := rc.semantic.EmbedField(ctx, strings.TrimSpace(rec.Context))
		if err != nil {
			return nil, &domain.FieldError{Field: domain.FieldContext, Err: err}
		}
		chunks = append(chunks, bindSpan(rec.ID, domain.FieldContext, 0, span))
	}

	return chunks, nil
}

func bindSpan(recordID string, field domain.Field, index int, span Span) domain.Chunk {
	return domain.Chunk{
		ID:         domain.ChunkID(recordID, field, index),
		RecordID:   recordID,
		Field:      field,
		Index:      index,
		Text:       span.Text,
		Embedding:  span.Embedding,
		TokenCount: span.TokenCount,
	}
}

var _ driven.RecordChunker = (*RecordChunker)(nil)
