package domain

// IndexStatus is the lifecycle phase of the index orchestrator.
type IndexStatus string

const (
	// IndexStatusIdle means no indexing cycle is running.
	IndexStatusIdle IndexStatus = "idle"

	// IndexStatusIndexing means a sync or single-record update is in flight.
	IndexStatusIndexing IndexStatus = "indexing"

	// IndexStatusError means the last cycle failed. The status stays
	// sticky until the next successful cycle clears it.
	IndexStatusError IndexStatus = "error"
)

// IndexingState is the externally observable progress of the
// orchestrator. A single instance exists per orchestrator; it is
// written only by the orchestrator and read by observers (CLI
// status output, MCP clients, watch mode).
type IndexingState struct {
	// Status is the current lifecycle phase.
	Status IndexStatus

	// Current is the number of records processed so far in this cycle.
	Current int

	// Total is the number of records the cycle will process.
	Total int

	// LastError holds the most recent cycle failure message.
	// Empty while Status is not error.
	LastError string
}

// IndexStats summarises the outcome of one completed indexing cycle.
type IndexStats struct {
	// Processed is the number of records examined.
	Processed int

	// Indexed is the number of records that were (re-)chunked and embedded.
	Indexed int

	// Skipped is the number of records left alone because their
	// fingerprint was unchanged.
	Skipped int

	// Removed is the number of orphaned records reconciled out of the index.
	Removed int

	// Failed is the number of records whose indexing errored.
	Failed int
}
