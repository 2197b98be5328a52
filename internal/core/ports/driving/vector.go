package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// VectorService browses and searches the vector index.
type VectorService interface {
	// Dump returns up to limit records of the ingestion namespace.
	// limit <= 0 uses the configured default; it is capped at domain.MaxDumpLimit.
	Dump(ctx context.Context, limit int) ([]domain.VectorRecord, error)

	// Search returns the segments most similar to query.
	// topK <= 0 uses the configured default.
	Search(ctx context.Context, query string, topK int) ([]domain.QueryMatch, error)

	// Count returns the number of records in the ingestion namespace.
	Count(ctx context.Context) (int, error)
}
