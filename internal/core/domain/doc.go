// Package domain defines the core business entities for Searchcore.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Record: A voice record with transcript and metadata fields
//   - Chunk: A searchable unit cut from one field of a record
//   - Fingerprint: A content digest used to detect record changes
//   - IndexStatus: Observable progress of an indexing cycle
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
