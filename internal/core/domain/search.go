package domain

// SearchOptions configures a search query.
type SearchOptions struct {
	// TopK is the maximum number of fused results to return.
	// Zero means the service default.
	TopK int

	// Fields restricts results to chunks from the given record fields.
	// Empty means all fields.
	Fields []Field
}

// SearchResult represents a single fused search hit.
// Results are produced fresh per query and never persisted.
type SearchResult struct {
	// RecordID is the owning record's identifier.
	RecordID string

	// Field is the record field the matching chunk was cut from.
	Field Field

	// ChunkID identifies the matching chunk.
	ChunkID string

	// Score is the fused relevance score. Comparable only within
	// one response, not across queries.
	Score float64

	// Snippet is a short extract of the matching chunk for display.
	Snippet string
}

// SearchResponse is the full answer to one query, including
// degradation diagnostics when one ranking path was unavailable.
type SearchResponse struct {
	// Results is the fused, descending-ranked hit list.
	Results []SearchResult

	// Degraded is set when one of the two ranking paths failed and
	// the results come from the surviving path alone.
	Degraded bool

	// DegradedReason names the failed path when Degraded is set.
	DegradedReason string
}
