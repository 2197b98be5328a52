package domain

import "strconv"

// DefaultNamespace is the namespace ingestion writes to and answering reads from.
const DefaultNamespace = "real"

// Metadata keys written by the indexing pipeline.
const (
	MetadataText     = "text"
	MetadataDocument = "document"
	MetadataLine     = "line"
)

// VectorRecord is the unit stored in a vector index.
type VectorRecord struct {
	// ID is unique within Namespace. See RecordID.
	ID string `json:"id"`

	// Vector has the dimensionality of the embedding model.
	Vector []float32 `json:"values"`

	// Metadata holds at least the segment text under MetadataText.
	Metadata map[string]any `json:"metadata"`

	// Namespace partitions the index.
	Namespace string `json:"-"`
}

// Text returns the segment text stored in the record metadata.
func (r VectorRecord) Text() string {
	return MetadataString(r.Metadata, MetadataText)
}

// RecordID builds the deterministic id for a line of a document.
// Re-ingesting the same document yields the same ids, so upserts
// overwrite instead of duplicating.
func RecordID(documentName string, lineIndex int) string {
	return documentName + "_line_" + strconv.Itoa(lineIndex)
}

// QueryOptions controls a top-k vector query.
type QueryOptions struct {
	// TopK is the maximum number of matches.
	TopK int

	// IncludeValues returns the stored vectors with each match.
	IncludeValues bool

	// IncludeMetadata returns the stored metadata with each match.
	IncludeMetadata bool
}

// QueryMatch is one result of a vector query.
type QueryMatch struct {
	ID string `json:"id"`

	// Similarity is the cosine similarity in [-1, 1].
	Similarity float64 `json:"score"`

	Vector   []float32      `json:"values,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Text returns the segment text from the match metadata.
func (m QueryMatch) Text() string {
	return MetadataString(m.Metadata, MetadataText)
}

// Document returns the source document name from the match metadata.
func (m QueryMatch) Document() string {
	return MetadataString(m.Metadata, MetadataDocument)
}

// Line returns the source line index from the match metadata, or -1.
func (m QueryMatch) Line() int {
	return MetadataInt(m.Metadata, MetadataLine)
}

// MetadataInt returns an integer value from metadata, or -1. Numbers
// decoded from JSON arrive as float64.
func MetadataInt(meta map[string]any, key string) int {
	switch v := meta[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return -1
}

// MetadataString returns a string value from metadata, or "".
func MetadataString(meta map[string]any, key string) string {
	if meta == nil {
		return ""
	}
	s, _ := meta[key].(string)
	return s
}
