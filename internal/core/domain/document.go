package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// Document is an uploaded file as received from a caller.
// Content is held only for the duration of one ingestion.
type Document struct {
	// Filename is the name supplied by the caller.
	Filename string

	// MIMEType is the declared content type, may be empty.
	MIMEType string

	// Content is the raw bytes.
	Content []byte
}

// Name returns the document name used to build record ids.
func (d Document) Name() string {
	return DocumentName(d.Filename)
}

// DocumentName derives a document name from a filename: the base name
// with its final extension removed. "reports/q3.pdf" becomes "q3".
func DocumentName(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// ExtractedText is the text of one document as an ordered sequence of lines.
type ExtractedText struct {
	// DocumentName identifies the originating document.
	DocumentName string

	// Lines holds the extracted lines in document order.
	Lines []string
}

// NewExtractedText splits text on newlines. Carriage returns that end a
// line are dropped so CRLF input yields the same lines as LF input.
func NewExtractedText(documentName, text string) ExtractedText {
	if text == "" {
		return ExtractedText{DocumentName: documentName}
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return ExtractedText{DocumentName: documentName, Lines: lines}
}

// Text joins the lines back into a single string.
func (t ExtractedText) Text() string {
	return strings.Join(t.Lines, "\n")
}

// NonBlankLines returns the number of lines with non-whitespace content.
func (t ExtractedText) NonBlankLines() int {
	n := 0
	for _, line := range t.Lines {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}

// IngestStatus is the overall outcome of indexing a document.
type IngestStatus string

// Ingest statuses.
const (
	IngestStatusSuccess IngestStatus = "Success"
	IngestStatusFailed  IngestStatus = "Failed"
)

// LineFailure records why a single line was not upserted.
type LineFailure struct {
	LineIndex int    `json:"line_index"`
	RecordID  string `json:"record_id"`
	Reason    string `json:"reason"`
}

// IngestResult aggregates the per-line outcome of indexing one document.
type IngestResult struct {
	// DocumentName is the name used for record ids.
	DocumentName string `json:"document_name"`

	// Lines is the number of lines in the extracted text, blank ones included.
	Lines int `json:"lines"`

	// RecordsWritten counts successful upserts.
	RecordsWritten int `json:"records_written"`

	// Failures lists lines that were not upserted, in line order.
	Failures []LineFailure `json:"failures,omitempty"`

	// AnalysisError is set when the analysis branch failed.
	// It does not affect Status.
	AnalysisError string `json:"analysis_error,omitempty"`
}

// Success reports whether every non-blank line was upserted.
func (r IngestResult) Success() bool {
	return len(r.Failures) == 0
}

// Status maps Success to an IngestStatus.
func (r IngestResult) Status() IngestStatus {
	if r.Success() {
		return IngestStatusSuccess
	}
	return IngestStatusFailed
}

// DocumentRecord is the registry entry kept for each ingested document.
type DocumentRecord struct {
	Name           string       `json:"name"`
	Filename       string       `json:"filename"`
	MIMEType       string       `json:"mime_type"`
	TextPath       string       `json:"text_path,omitempty"`
	Lines          int          `json:"lines"`
	RecordsWritten int          `json:"records_written"`
	Status         IngestStatus `json:"status"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}
