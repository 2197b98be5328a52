package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService reads the document registry.
type DocumentService struct {
	docStore  driven.DocumentStore
	artifacts driven.ArtifactStore
}

// NewDocumentService creates a new document service. artifacts may be nil,
// in which case Text reports domain.ErrNotFound.
func NewDocumentService(docStore driven.DocumentStore, artifacts driven.ArtifactStore) *DocumentService {
	return &DocumentService{docStore: docStore, artifacts: artifacts}
}

// List returns all documents, most recently updated first.
func (s *DocumentService) List(ctx context.Context) ([]domain.DocumentRecord, error) {
	docs, err := s.docStore.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].UpdatedAt.Equal(docs[j].UpdatedAt) {
			return docs[i].Name < docs[j].Name
		}
		return docs[i].UpdatedAt.After(docs[j].UpdatedAt)
	})
	return docs, nil
}

// Get retrieves a document by name.
func (s *DocumentService) Get(ctx context.Context, name string) (*domain.DocumentRecord, error) {
	return s.docStore.Get(ctx, name)
}

// Text returns the persisted extracted text of a document.
func (s *DocumentService) Text(ctx context.Context, name string) (string, error) {
	doc, err := s.docStore.Get(ctx, name)
	if err != nil {
		return "", err
	}
	if s.artifacts == nil || doc.TextPath == "" {
		return "", fmt.Errorf("no extracted text for %s: %w", name, domain.ErrNotFound)
	}
	return s.artifacts.LoadText(doc.Filename)
}
