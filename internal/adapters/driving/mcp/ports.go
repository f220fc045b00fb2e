package mcp

import (
	"github.com/murmurapp/searchcore/internal/core/ports/driven"
	"github.com/murmurapp/searchcore/internal/core/ports/driving"
)

// Ports aggregates all port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides hybrid search capabilities.
	Search driving.SearchService

	// Indexer reports indexing progress.
	Indexer driving.Indexer

	// Records exposes the voice record repository.
	Records driven.RecordStore
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	// Indexer and Records are optional
	return nil
}
