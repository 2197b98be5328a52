// Package docx extracts paragraph text from Word documents.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

const documentPart = "word/document.xml"

// Extractor handles DOCX documents.
type Extractor struct{}

// New creates a new DOCX extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "docx"
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
}

// SupportedExtensions returns the file extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".docx"}
}

// Extract returns one line per paragraph of word/document.xml.
func (e *Extractor) Extract(_ context.Context, doc domain.Document) (domain.ExtractedText, error) {
	reader, err := zip.NewReader(bytes.NewReader(doc.Content), int64(len(doc.Content)))
	if err != nil {
		return domain.ExtractedText{}, fmt.Errorf("open docx: %v: %w", err, domain.ErrExtraction)
	}

	for _, file := range reader.File {
		if file.Name != documentPart {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return domain.ExtractedText{}, fmt.Errorf("open %s: %v: %w", documentPart, err, domain.ErrExtraction)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return domain.ExtractedText{}, fmt.Errorf("read %s: %v: %w", documentPart, err, domain.ErrExtraction)
		}

		paragraphs, err := parseDocumentXML(content)
		if err != nil {
			return domain.ExtractedText{}, fmt.Errorf("parse %s: %v: %w", documentPart, err, domain.ErrExtraction)
		}
		return domain.ExtractedText{DocumentName: doc.Name(), Lines: paragraphs}, nil
	}

	return domain.ExtractedText{}, fmt.Errorf("%s missing: %w", documentPart, domain.ErrExtraction)
}

// documentXML represents the structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
	Tabs []struct{}    `xml:"tab"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

// parseDocumentXML returns the text of each paragraph.
func parseDocumentXML(content []byte) ([]string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, err
	}

	lines := make([]string, 0, len(doc.Body.Paragraphs))
	for _, para := range doc.Body.Paragraphs {
		var b strings.Builder
		for _, r := range para.Runs {
			for range r.Tabs {
				b.WriteByte('\t')
			}
			for _, t := range r.Text {
				b.WriteString(t.Content)
			}
		}
		lines = append(lines, b.String())
	}
	return lines, nil
}
