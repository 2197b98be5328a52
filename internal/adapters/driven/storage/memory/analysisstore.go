package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure AnalysisStore implements the interface.
var _ driven.AnalysisStore = (*AnalysisStore)(nil)

// AnalysisStore keeps a single analysis record. The last Put wins.
type AnalysisStore struct {
	mu     sync.RWMutex
	record *domain.AnalysisRecord
}

// NewAnalysisStore creates an empty analysis store.
func NewAnalysisStore() *AnalysisStore {
	return &AnalysisStore{}
}

// Put replaces the current record.
func (s *AnalysisStore) Put(_ context.Context, record domain.AnalysisRecord) error {
	rec := cloneAnalysis(record)
	s.mu.Lock()
	s.record = &rec
	s.mu.Unlock()
	return nil
}

// Get returns a copy of the current record.
func (s *AnalysisStore) Get(_ context.Context) (*domain.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.record == nil {
		return nil, domain.ErrNotFound
	}
	rec := cloneAnalysis(*s.record)
	return &rec, nil
}

func cloneAnalysis(r domain.AnalysisRecord) domain.AnalysisRecord {
	r.Summaries = maps.Clone(r.Summaries)
	r.Errors = maps.Clone(r.Errors)
	r.Statistics.CompressionRatios = maps.Clone(r.Statistics.CompressionRatios)
	r.Statistics.Similarity = maps.Clone(r.Statistics.Similarity)
	return r
}
