// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - VectorIndex: namespaced vector storage with cosine top-k query
//   - AnalysisStore: single-slot cache of the latest AnalysisRecord
//   - DocumentStore: registry of ingested documents
//   - TextExtractor: turns uploaded bytes into lines of text
//   - ArtifactStore: persists uploads and extracted text
//   - ConfigStore: application configuration
//
// # Optional Interfaces
//
// These can be nil; the operations that need them fail with a
// domain "unavailable" error instead:
//
//   - EmbeddingService: without it nothing can be indexed or retrieved.
//   - LLMService: without it questions cannot be answered.
//   - Summarizer: zero or more backends for document analysis.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
