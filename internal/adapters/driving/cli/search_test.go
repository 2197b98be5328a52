package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestSearchCmd_HasLimitFlag(t *testing.T) {
	flag := searchCmd.Flags().Lookup("limit")
	require.NotNil(t, flag, "limit flag should exist")
	assert.Equal(t, "n", flag.Shorthand)
	assert.Equal(t, "10", flag.DefValue)
}

func TestSearchCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("search", "-n", "3", "revenue")
	require.NoError(t, err)

	assert.Equal(t, 3, ts.vectors.lastTopK)
	assert.Contains(t, out, "Results:")
	assert.Contains(t, out, "1. [report:4 0.912] Revenue grew")
}

func TestSearchCmd_NoResults(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.vectors.matches = nil

	out, err := execute("search", "nothing")
	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestSearchCmd_JSON(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("search", "--json", "revenue")
	require.NoError(t, err)

	var got []domain.QueryMatch
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "report_line_4", got[0].ID)
	assert.InDelta(t, 0.912, got[0].Similarity, 1e-9)
}

func TestSearchCmd_Error(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.vectors.err = domain.ErrVectorIndexUnavailable

	_, err := execute("search", "x")
	assert.ErrorIs(t, err, domain.ErrVectorIndexUnavailable)
}
