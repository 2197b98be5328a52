package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// DocumentStore keeps a registry of ingested documents keyed by name.
type DocumentStore interface {
	// Save stores or replaces the record with the same name.
	Save(ctx context.Context, record domain.DocumentRecord) error

	// Get returns the record for name, or domain.ErrNotFound.
	Get(ctx context.Context, name string) (*domain.DocumentRecord, error)

	// List returns all records, most recently updated first.
	List(ctx context.Context) ([]domain.DocumentRecord, error)
}
