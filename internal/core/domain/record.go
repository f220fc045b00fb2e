package domain

import (
	"strings"
	"time"
)

// Record represents a single voice record: the transcript of one
// recording plus the metadata fields captured alongside it.
// It is the unit of indexing; chunks always belong to exactly one record.
type Record struct {
	// ID is the unique identifier for the record.
	ID string

	// Title is the human-readable title of the recording.
	Title string

	// Transcript is the full speech-to-text output. This is the only
	// field long enough to be split into multiple chunks.
	Transcript string

	// Summary is an optional condensed version of the transcript.
	Summary string

	// Context is an optional free-form note about where or why the
	// recording was made (e.g., "standup 2024-03-01").
	Context string

	// CreatedAt is when the recording was captured.
	CreatedAt time.Time

	// UpdatedAt is when the record was last modified.
	UpdatedAt time.Time
}

// IndexableText returns the concatenation of every field that
// participates in indexing, in a fixed order. Fingerprints are
// computed over this text, so the order must never change between
// releases or every record would appear modified.
func (r Record) IndexableText() string {
	parts := []string{r.Title, r.Transcript, r.Summary, r.Context}
	return strings.Join(parts, "\n")
}

// HasSummary reports whether the record carries a non-empty summary.
func (r Record) HasSummary() bool {
	return strings.TrimSpace(r.Summary) != ""
}

// HasContext reports whether the record carries a non-empty context note.
func (r Record) HasContext() bool {
	return strings.TrimSpace(r.Context) != ""
}
