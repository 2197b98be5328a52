package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestDocumentStore_SaveGet(t *testing.T) {
	ctx := context.Background()
	store := NewDocumentStore()

	_, err := store.Get(ctx, "report")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.Save(ctx, domain.DocumentRecord{Name: "report", Filename: "report.pdf", Lines: 3}))
	require.NoError(t, store.Save(ctx, domain.DocumentRecord{Name: "report", Filename: "report.pdf", Lines: 5}))

	got, err := store.Get(ctx, "report")
	require.NoError(t, err)
	assert.Equal(t, 5, got.Lines)
}

func TestDocumentStore_ListOrder(t *testing.T) {
	ctx := context.Background()
	store := NewDocumentStore()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, domain.DocumentRecord{Name: "old", UpdatedAt: base}))
	require.NoError(t, store.Save(ctx, domain.DocumentRecord{Name: "new", UpdatedAt: base.Add(time.Hour)}))
	require.NoError(t, store.Save(ctx, domain.DocumentRecord{Name: "also-old", UpdatedAt: base}))

	docs, err := store.List(ctx)
	require.NoError(t, err)

	names := []string{docs[0].Name, docs[1].Name, docs[2].Name}
	assert.Equal(t, []string{"new", "also-old", "old"}, names)
}
