package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is a namespaced in-memory vector index with brute-force
// cosine ranking.
type VectorIndex struct {
	mu         sync.RWMutex
	dimensions int
	namespaces map[string]map[string]domain.VectorRecord
}

// NewVectorIndex creates an empty index. Dimensions are fixed by EnsureIndex
// or, failing that, by the first upsert.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{
		namespaces: make(map[string]map[string]domain.VectorRecord),
	}
}

// EnsureIndex fixes the dimensionality. Calling it again with the same value is a no-op.
func (v *VectorIndex) EnsureIndex(_ context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive", domain.ErrInvalidInput)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.dimensions != 0 && v.dimensions != dimensions {
		return fmt.Errorf("%w: index has %d, requested %d", domain.ErrDimensionMismatch, v.dimensions, dimensions)
	}
	v.dimensions = dimensions
	return nil
}

// Upsert inserts or replaces a record.
func (v *VectorIndex) Upsert(_ context.Context, namespace string, record domain.VectorRecord) error {
	if record.ID == "" {
		return fmt.Errorf("%w: record id is empty", domain.ErrInvalidInput)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.dimensions == 0 {
		v.dimensions = len(record.Vector)
	}
	if len(record.Vector) != v.dimensions {
		return fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, len(record.Vector), v.dimensions)
	}

	ns, ok := v.namespaces[namespace]
	if !ok {
		ns = make(map[string]domain.VectorRecord)
		v.namespaces[namespace] = ns
	}
	ns[record.ID] = domain.VectorRecord{
		ID:        record.ID,
		Vector:    slices.Clone(record.Vector),
		Metadata:  maps.Clone(record.Metadata),
		Namespace: namespace,
	}
	return nil
}

// Query ranks every record in namespace by cosine similarity.
func (v *VectorIndex) Query(
	_ context.Context, namespace string, vector []float32, opts domain.QueryOptions,
) ([]domain.QueryMatch, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.dimensions != 0 && len(vector) != v.dimensions {
		return nil, fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, len(vector), v.dimensions)
	}

	ns := v.namespaces[namespace]
	matches := make([]domain.QueryMatch, 0, len(ns))
	for _, rec := range ns {
		m := domain.QueryMatch{
			ID:         rec.ID,
			Similarity: domain.CosineSimilarity(vector, rec.Vector),
		}
		if opts.IncludeValues {
			m.Vector = slices.Clone(rec.Vector)
		}
		if opts.IncludeMetadata {
			m.Metadata = maps.Clone(rec.Metadata)
		}
		matches = append(matches, m)
	}

	return domain.RankMatches(matches, opts.TopK), nil
}

// List returns up to limit records ordered by id.
func (v *VectorIndex) List(_ context.Context, namespace string, limit int) ([]domain.VectorRecord, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	ns := v.namespaces[namespace]
	ids := make([]string, 0, len(ns))
	for id := range ns {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if limit >= 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	records := make([]domain.VectorRecord, len(ids))
	for i, id := range ids {
		rec := ns[id]
		records[i] = domain.VectorRecord{
			ID:        rec.ID,
			Vector:    slices.Clone(rec.Vector),
			Metadata:  maps.Clone(rec.Metadata),
			Namespace: namespace,
		}
	}
	return records, nil
}

// Count returns the number of records in namespace.
func (v *VectorIndex) Count(_ context.Context, namespace string) (int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.namespaces[namespace]), nil
}

// Close releases resources.
func (v *VectorIndex) Close() error {
	return nil
}
