// Package domain defines the core business entities for docqa.
//
// This package is the innermost layer of the hexagonal architecture.
// It defines the fundamental types:
//
//   - Document: an uploaded file and the outcome of its ingestion
//   - ExtractedText: the ordered lines produced by text extraction
//   - VectorRecord: the unit stored in a namespaced vector index
//   - AnalysisRecord: derived statistics for the latest ingested document
//   - Answer: the result of retrieval-augmented answering
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
