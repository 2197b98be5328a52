package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// AnalysisService exposes the analysis cache.
type AnalysisService interface {
	// Analyze computes and stores the analysis of a document's text.
	Analyze(ctx context.Context, filename, text string) (*domain.AnalysisRecord, error)

	// Latest returns the current analysis, or domain.ErrNotFound before
	// the first ingestion.
	Latest(ctx context.Context) (*domain.AnalysisRecord, error)
}
