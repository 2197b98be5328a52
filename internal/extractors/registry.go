package extractors

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry manages text extractors keyed by MIME type and extension.
type Registry struct {
	mu          sync.RWMutex
	byMIME      map[string]driven.TextExtractor
	byExtension map[string]driven.TextExtractor
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byMIME:      make(map[string]driven.TextExtractor),
		byExtension: make(map[string]driven.TextExtractor),
	}
}

// Register adds an extractor. Later registrations win for shared keys.
func (r *Registry) Register(e driven.TextExtractor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range e.SupportedMIMETypes() {
		r.byMIME[strings.ToLower(m)] = e
	}
	for _, ext := range e.SupportedExtensions() {
		r.byExtension[strings.ToLower(ext)] = e
	}
}

// Supports reports whether an extractor exists for the file.
func (r *Registry) Supports(filename, mimeType string) bool {
	return r.lookup(filename, mimeType) != nil
}

// Extract runs the matching extractor. Unknown formats fail with
// domain.ErrUnsupportedType.
func (r *Registry) Extract(ctx context.Context, doc domain.Document) (domain.ExtractedText, error) {
	e := r.lookup(doc.Filename, doc.MIMEType)
	if e == nil {
		return domain.ExtractedText{}, fmt.Errorf("%s (%s): %w", filepath.Base(doc.Filename), doc.MIMEType, domain.ErrUnsupportedType)
	}

	text, err := e.Extract(ctx, doc)
	if err != nil {
		return domain.ExtractedText{}, err
	}
	text.DocumentName = doc.Name()
	return text, nil
}

// Extensions returns the registered file extensions.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.byExtension))
	for ext := range r.byExtension {
		exts = append(exts, ext)
	}
	return exts
}

func (r *Registry) lookup(filename, mimeType string) driven.TextExtractor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if mimeType != "" {
		if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
			if e, ok := r.byMIME[strings.ToLower(mt)]; ok {
				return e
			}
		}
	}
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
		return r.byExtension[ext]
	}
	return nil
}
