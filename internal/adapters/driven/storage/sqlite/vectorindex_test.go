package sqlite

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func record(id string, vec ...float32) domain.VectorRecord {
	return domain.VectorRecord{
		ID:     id,
		Vector: vec,
		Metadata: map[string]any{
			domain.MetadataText: "text " + id,
			domain.MetadataLine: 3,
		},
	}
}

func TestVectorIndex_EnsureIndex(t *testing.T) {
	ctx := context.Background()
	idx := newTestStore(t).VectorIndex()

	assert.ErrorIs(t, idx.EnsureIndex(ctx, 0), domain.ErrInvalidInput)
	require.NoError(t, idx.EnsureIndex(ctx, 3))
	require.NoError(t, idx.EnsureIndex(ctx, 3))
	assert.ErrorIs(t, idx.EnsureIndex(ctx, 4), domain.ErrDimensionMismatch)
}

func TestVectorIndex_DimensionsSurviveNewHandle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.VectorIndex().EnsureIndex(ctx, 2))

	err := s.VectorIndex().Upsert(ctx, "real", record("a", 1, 2, 3))

	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestVectorIndex_QueryRanksByCosine(t *testing.T) {
	ctx := context.Background()
	idx := newTestStore(t).VectorIndex()
	require.NoError(t, idx.EnsureIndex(ctx, 2))

	require.NoError(t, idx.Upsert(ctx, "real", record("far", 0, 1)))
	require.NoError(t, idx.Upsert(ctx, "real", record("near", 1, 0.1)))
	require.NoError(t, idx.Upsert(ctx, "real", record("exact", 2, 0)))

	matches, err := idx.Query(ctx, "real", []float32{1, 0}, domain.QueryOptions{TopK: 2, IncludeMetadata: true})

	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "exact", matches[0].ID)
	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-6)
	assert.Equal(t, "near", matches[1].ID)
	assert.Equal(t, "text exact", matches[0].Text())
	// Metadata goes through JSON, so numbers come back as float64.
	assert.Equal(t, float64(3), matches[0].Metadata[domain.MetadataLine])
	assert.Nil(t, matches[0].Vector)
}

func TestVectorIndex_QueryIncludeValues(t *testing.T) {
	ctx := context.Background()
	idx := newTestStore(t).VectorIndex()
	require.NoError(t, idx.EnsureIndex(ctx, 2))
	require.NoError(t, idx.Upsert(ctx, "real", record("a", 0.5, 0.25)))

	matches, err := idx.Query(ctx, "real", []float32{1, 0}, domain.QueryOptions{TopK: 1, IncludeValues: true})

	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, []float32{0.5, 0.25}, matches[0].Vector)
	assert.Nil(t, matches[0].Metadata)
}

func TestVectorIndex_TiesBreakByID(t *testing.T) {
	ctx := context.Background()
	idx := newTestStore(t).VectorIndex()
	require.NoError(t, idx.EnsureIndex(ctx, 2))

	for _, id := range []string{"doc_line_2", "doc_line_0", "doc_line_1"} {
		require.NoError(t, idx.Upsert(ctx, "real", record(id, 1, 1)))
	}

	matches, err := idx.Query(ctx, "real", []float32{1, 1}, domain.QueryOptions{TopK: 3})

	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "doc_line_0", matches[0].ID)
	assert.Equal(t, "doc_line_1", matches[1].ID)
	assert.Equal(t, "doc_line_2", matches[2].ID)
}

func TestVectorIndex_UpsertReplaces(t *testing.T) {
	ctx := context.Background()
	idx := newTestStore(t).VectorIndex()
	require.NoError(t, idx.EnsureIndex(ctx, 2))

	require.NoError(t, idx.Upsert(ctx, "real", record("a", 1, 0)))
	rec := record("a", 0, 1)
	rec.Metadata[domain.MetadataText] = "replaced"
	require.NoError(t, idx.Upsert(ctx, "real", rec))

	count, err := idx.Count(ctx, "real")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	list, err := idx.List(ctx, "real", 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []float32{0, 1}, list[0].Vector)
	assert.Equal(t, "replaced", list[0].Text())
	assert.Equal(t, "real", list[0].Namespace)
}

func TestVectorIndex_NamespacesAreIsolated(t *testing.T) {
	ctx := context.Background()
	idx := newTestStore(t).VectorIndex()
	require.NoError(t, idx.EnsureIndex(ctx, 2))

	require.NoError(t, idx.Upsert(ctx, "real", record("a", 1, 0)))
	require.NoError(t, idx.Upsert(ctx, "test", record("a", 0, 1)))

	matches, err := idx.Query(ctx, "real", []float32{0, 1}, domain.QueryOptions{TopK: 5, IncludeValues: true})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, []float32{1, 0}, matches[0].Vector)

	empty, err := idx.Query(ctx, "other", []float32{0, 1}, domain.QueryOptions{TopK: 5})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestVectorIndex_ListOrdersAndLimits(t *testing.T) {
	ctx := context.Background()
	idx := newTestStore(t).VectorIndex()
	require.NoError(t, idx.EnsureIndex(ctx, 1))

	for i := 4; i >= 0; i-- {
		require.NoError(t, idx.Upsert(ctx, "real", record(fmt.Sprintf("r%d", i), float32(i+1))))
	}

	list, err := idx.List(ctx, "real", 3)

	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "r0", list[0].ID)
	assert.Equal(t, "r1", list[1].ID)
	assert.Equal(t, "r2", list[2].ID)
}

func TestVectorIndex_Errors(t *testing.T) {
	ctx := context.Background()
	idx := newTestStore(t).VectorIndex()
	require.NoError(t, idx.EnsureIndex(ctx, 2))

	tests := []struct {
		name    string
		run     func() error
		wantErr error
	}{
		{
			name:    "empty id",
			run:     func() error { return idx.Upsert(ctx, "real", record("", 1, 0)) },
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "upsert wrong length",
			run:     func() error { return idx.Upsert(ctx, "real", record("a", 1)) },
			wantErr: domain.ErrDimensionMismatch,
		},
		{
			name: "query wrong length",
			run: func() error {
				_, err := idx.Query(ctx, "real", []float32{1, 0, 0}, domain.QueryOptions{TopK: 1})
				return err
			},
			wantErr: domain.ErrDimensionMismatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.run(), tt.wantErr)
		})
	}
}
