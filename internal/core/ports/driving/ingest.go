package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// IngestService indexes documents and refreshes the analysis cache.
type IngestService interface {
	// Upload stores the document, extracts its text, persists the text and
	// ingests it. Extraction errors are returned; per-line indexing
	// failures are reported in the result.
	Upload(ctx context.Context, doc domain.Document) (*UploadResult, error)

	// Ingest indexes already extracted text under documentName and
	// recomputes the analysis. The two branches run independently.
	Ingest(ctx context.Context, documentName string, text string) (*domain.IngestResult, error)

	// Supports reports whether a file can be extracted.
	Supports(filename, mimeType string) bool
}

// UploadResult describes a completed upload.
type UploadResult struct {
	// Filename is the stored upload name.
	Filename string `json:"filename"`

	// TextFile is where the extracted text was written.
	TextFile string `json:"text_file"`

	domain.IngestResult
}
