package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// TextExtractor turns a document's bytes into lines of text.
// Each extractor handles specific MIME types (e.g. PDF, Markdown).
type TextExtractor interface {
	// Name identifies the extractor in logs.
	Name() string

	// SupportedMIMETypes returns the MIME types this extractor handles.
	SupportedMIMETypes() []string

	// SupportedExtensions returns file extensions (with dot) used when
	// the MIME type is missing or generic.
	SupportedExtensions() []string

	// Extract returns the document text. Malformed input fails with
	// domain.ErrExtraction.
	Extract(ctx context.Context, doc domain.Document) (domain.ExtractedText, error)
}

// ExtractorRegistry selects the extractor for a document.
type ExtractorRegistry interface {
	// Extract dispatches to the matching extractor, or fails with
	// domain.ErrUnsupportedType.
	Extract(ctx context.Context, doc domain.Document) (domain.ExtractedText, error)

	// Register adds an extractor.
	Register(extractor TextExtractor)

	// Supports reports whether a file of that name and type can be extracted.
	Supports(filename, mimeType string) bool
}
