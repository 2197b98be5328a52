package driven

// ArtifactStore persists uploaded files and their extracted text.
type ArtifactStore interface {
	// SaveUpload writes the uploaded bytes and returns the stored path.
	SaveUpload(filename string, content []byte) (string, error)

	// SaveText writes extracted text for the document and returns the stored path.
	SaveText(filename string, text string) (string, error)

	// LoadText reads previously extracted text for filename.
	LoadText(filename string) (string, error)
}
