// Package services holds the application core behind the driving
// ports: chunking-driven indexing, hybrid search and the sync
// scheduler. Services depend on driven ports only, never on concrete
// adapters.
package services
