package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestAnalysisStore_GetBeforePut(t *testing.T) {
	store := newTestStore(t).AnalysisStore()

	_, err := store.Get(context.Background())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAnalysisStore_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t).AnalysisStore()

	first := domain.AnalysisRecord{
		Filename:  "first.pdf",
		Summaries: map[string]string{"frequency": "one"},
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	second := domain.AnalysisRecord{
		Filename:  "second.pdf",
		Summaries: map[string]string{"frequency": "two", "llm": "three"},
		CreatedAt: time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC),
	}

	require.NoError(t, store.Put(ctx, first))
	require.NoError(t, store.Put(ctx, second))

	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second.pdf", got.Filename)
	assert.Equal(t, second.Summaries, got.Summaries)
	assert.True(t, second.CreatedAt.Equal(got.CreatedAt))
}
