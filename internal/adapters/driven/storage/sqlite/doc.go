// Package sqlite provides a SQLite-backed implementation of the storage ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, accessed through sqlx. One database file serves:
//
//   - VectorIndex: namespaced vectors with brute-force cosine ranking
//   - AnalysisStore: the single most recent analysis record
//   - DocumentStore: the registry of ingested documents
//
// # Schema
//
// The schema is managed through versioned migrations in the migrations/
// directory, applied in order on open and recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.docqa/data/docqa.db
package sqlite
