package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestVectorsCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("vectors", "--limit", "5")
	require.NoError(t, err)

	assert.Equal(t, 5, ts.vectors.lastLimit)
	assert.Contains(t, out, "Vectors (1 of 1)")
	assert.Contains(t, out, "report_line_0  dim=3  Quarterly report")
	assert.Contains(t, out, "document: report line 0")
}

func TestVectorsCmd_Empty(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.vectors.records = nil

	out, err := execute("vectors")
	require.NoError(t, err)
	assert.Equal(t, 0, ts.vectors.lastLimit)
	assert.Contains(t, out, "No vectors stored yet.")
}

func TestVectorsCmd_JSON(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("vectors", "--json")
	require.NoError(t, err)

	var got []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "report_line_0", got[0]["id"])
	assert.Len(t, got[0]["values"], 3)
}

func TestVectorsCmd_Error(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.vectors.err = domain.ErrVectorIndexUnavailable

	_, err := execute("vectors")
	assert.ErrorIs(t, err, domain.ErrVectorIndexUnavailable)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"a longer sentence", 10, "a longe..."},
		{"héllo wörld", 8, "héllo..."},
		{"abc", 2, "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, truncate(tt.in, tt.n))
		})
	}
}
