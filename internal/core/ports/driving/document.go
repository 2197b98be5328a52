package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// DocumentService reads the registry of ingested documents.
type DocumentService interface {
	// List returns all ingested documents, most recent first.
	List(ctx context.Context) ([]domain.DocumentRecord, error)

	// Get returns the document with the given name.
	Get(ctx context.Context, name string) (*domain.DocumentRecord, error)

	// Text returns the extracted text of the named document.
	Text(ctx context.Context, name string) (string, error)
}
