package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// AnalysisStore holds the most recent AnalysisRecord.
type AnalysisStore interface {
	// Put replaces the current record.
	Put(ctx context.Context, record domain.AnalysisRecord) error

	// Get returns the current record, or domain.ErrNotFound before the first Put.
	Get(ctx context.Context) (*domain.AnalysisRecord, error)
}
