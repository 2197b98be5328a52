// Package file stores uploaded documents and their extracted text on the
// local filesystem.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure ArtifactStore implements the interface.
var _ driven.ArtifactStore = (*ArtifactStore)(nil)

// ArtifactStore writes uploads to one directory and extracted text to another.
// Re-uploading a file overwrites both.
type ArtifactStore struct {
	uploadDir string
	textDir   string
}

// NewArtifactStore creates both directories if they do not exist.
func NewArtifactStore(uploadDir, textDir string) (*ArtifactStore, error) {
	for _, dir := range []string{uploadDir, textDir} {
		if dir == "" {
			return nil, fmt.Errorf("%w: artifact directory is empty", domain.ErrInvalidInput)
		}
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return &ArtifactStore{uploadDir: uploadDir, textDir: textDir}, nil
}

// SaveUpload writes content to uploadDir under the base name of filename.
func (s *ArtifactStore) SaveUpload(filename string, content []byte) (string, error) {
	base, err := baseName(filename)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.uploadDir, base)
	if err := os.WriteFile(path, content, 0600); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	return path, nil
}

// SaveText writes text to textDir as <stem>.txt.
func (s *ArtifactStore) SaveText(filename string, text string) (string, error) {
	path, err := s.textPath(filename)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(text), 0600); err != nil {
		return "", fmt.Errorf("save text: %w", err)
	}
	return path, nil
}

// LoadText reads the text saved for filename.
func (s *ArtifactStore) LoadText(filename string) (string, error) {
	path, err := s.textPath(filename)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: no text for %s", domain.ErrNotFound, filename)
		}
		return "", fmt.Errorf("load text: %w", err)
	}
	return string(data), nil
}

// UploadDir returns the directory holding uploads.
func (s *ArtifactStore) UploadDir() string {
	return s.uploadDir
}

// TextDir returns the directory holding extracted text.
func (s *ArtifactStore) TextDir() string {
	return s.textDir
}

func (s *ArtifactStore) textPath(filename string) (string, error) {
	stem := domain.DocumentName(filename)
	if stem == "" || stem == "." || stem == ".." {
		return "", fmt.Errorf("%w: invalid filename %q", domain.ErrInvalidInput, filename)
	}
	return filepath.Join(s.textDir, stem+".txt"), nil
}

// baseName strips directories so names cannot escape the store.
func baseName(filename string) (string, error) {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	switch base {
	case "", ".", "..", "/":
		return "", fmt.Errorf("%w: invalid filename %q", domain.ErrInvalidInput, filename)
	}
	return base, nil
}
