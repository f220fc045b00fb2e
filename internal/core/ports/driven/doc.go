// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - EmbeddingService: Generates vector embeddings for chunks and queries
//   - VectorIndex: Vector storage and similarity search
//   - KeywordIndex: BM25 keyword search over the chunk corpus
//   - RecordStore: Source of truth for voice records
//   - ChunkStore: Persistence for produced chunks (corpus + hydration)
//   - FingerprintStore: Content digests for change detection
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - SchedulerStore: Scheduler state persistence. Without it, the
//     background sync scheduler keeps state in memory only.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
