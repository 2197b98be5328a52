package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// VectorIndex stores (id, vector, metadata) records partitioned by namespace.
// Implementations must be safe for concurrent use.
type VectorIndex interface {
	// EnsureIndex creates the index for the given dimensionality with the
	// cosine metric if it does not exist. Calling it again is a no-op.
	EnsureIndex(ctx context.Context, dimensions int) error

	// Upsert inserts or replaces the record with the same id in namespace.
	// Other namespaces are never affected.
	Upsert(ctx context.Context, namespace string, record domain.VectorRecord) error

	// Query returns up to opts.TopK records most similar to vector by
	// cosine similarity, in descending order.
	Query(ctx context.Context, namespace string, vector []float32, opts domain.QueryOptions) ([]domain.QueryMatch, error)

	// List returns up to limit records of namespace ordered by id, with vectors and metadata.
	List(ctx context.Context, namespace string, limit int) ([]domain.VectorRecord, error)

	// Count returns the number of records in namespace.
	Count(ctx context.Context, namespace string) (int, error)

	// Close releases resources.
	Close() error
}
