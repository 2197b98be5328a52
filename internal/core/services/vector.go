package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ensure VectorService implements the interface.
var _ driving.VectorService = (*VectorService)(nil)

// VectorService reads the ingestion namespace of the vector index.
type VectorService struct {
	index     driven.VectorIndex
	embedder  driven.EmbeddingService
	namespace string
	dumpLimit int
	topK      int
}

// NewVectorService creates a new vector service.
func NewVectorService(
	index driven.VectorIndex,
	embedder driven.EmbeddingService,
	namespace string,
	dumpLimit, topK int,
) *VectorService {
	if namespace == "" {
		namespace = domain.DefaultNamespace
	}
	if dumpLimit <= 0 {
		dumpLimit = domain.DefaultDumpLimit
	}
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	return &VectorService{
		index:     index,
		embedder:  embedder,
		namespace: namespace,
		dumpLimit: min(dumpLimit, domain.MaxDumpLimit),
		topK:      topK,
	}
}

// Dump returns up to limit records ordered by id.
func (s *VectorService) Dump(ctx context.Context, limit int) ([]domain.VectorRecord, error) {
	if s.index == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}
	if limit <= 0 {
		limit = s.dumpLimit
	}
	limit = min(limit, domain.MaxDumpLimit)

	records, err := s.index.List(ctx, s.namespace, limit)
	if err != nil {
		return nil, fmt.Errorf("list vectors: %w", err)
	}
	return records, nil
}

// Search embeds query and returns the most similar records.
func (s *VectorService) Search(ctx context.Context, query string, topK int) ([]domain.QueryMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is required: %w", domain.ErrInvalidInput)
	}
	if s.index == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if topK <= 0 {
		topK = s.topK
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := s.index.Query(ctx, s.namespace, vec, domain.QueryOptions{
		TopK:            topK,
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	return matches, nil
}

// Count returns the number of records in the namespace.
func (s *VectorService) Count(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, domain.ErrVectorIndexUnavailable
	}
	return s.index.Count(ctx, s.namespace)
}
