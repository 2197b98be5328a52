// Package plaintext extracts text files as-is.
package plaintext

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor handles plain text documents.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "plaintext"
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/csv",
		"text/tab-separated-values",
		"application/json",
	}
}

// SupportedExtensions returns the file extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".txt", ".text", ".csv", ".tsv", ".log", ".json"}
}

// Extract returns the content split into lines. Content that is not valid
// UTF-8 is rejected.
func (e *Extractor) Extract(_ context.Context, doc domain.Document) (domain.ExtractedText, error) {
	if !utf8.Valid(doc.Content) {
		return domain.ExtractedText{}, fmt.Errorf("%s is not valid UTF-8: %w", doc.Filename, domain.ErrExtraction)
	}
	content := strings.TrimPrefix(string(doc.Content), "\uFEFF")
	return domain.NewExtractedText(doc.Name(), content), nil
}
