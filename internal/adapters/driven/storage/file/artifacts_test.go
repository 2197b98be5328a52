package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func newTestStore(t *testing.T) (*ArtifactStore, string) {
	t.Helper()
	root := t.TempDir()
	store, err := NewArtifactStore(filepath.Join(root, "uploads"), filepath.Join(root, "texts"))
	require.NoError(t, err)
	return store, root
}

func TestNewArtifactStore_CreatesDirs(t *testing.T) {
	store, root := newTestStore(t)

	for _, dir := range []string{store.UploadDir(), store.TextDir()} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
	assert.Equal(t, filepath.Join(root, "uploads"), store.UploadDir())
}

func TestNewArtifactStore_EmptyDir(t *testing.T) {
	_, err := NewArtifactStore("", t.TempDir())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSaveUpload(t *testing.T) {
	store, root := newTestStore(t)

	path, err := store.SaveUpload("report.pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "uploads", "report.pdf"), path)

	// Overwrite on re-upload.
	_, err = store.SaveUpload("report.pdf", []byte("%PDF-2"))
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-2", string(data))
}

func TestSaveUpload_BlocksTraversal(t *testing.T) {
	store, root := newTestStore(t)

	path, err := store.SaveUpload("../../etc/passwd", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "uploads", "passwd"), path)

	path, err = store.SaveUpload(`..\..\evil.pdf`, []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "uploads", "evil.pdf"), path)

	_, err = store.SaveUpload("..", []byte("x"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSaveAndLoadText(t *testing.T) {
	store, root := newTestStore(t)

	path, err := store.SaveText("dir/report.pdf", "line one\nline two")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "texts", "report.txt"), path)

	text, err := store.LoadText("report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", text)
}

func TestLoadText_Missing(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.LoadText("nothing.pdf")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
