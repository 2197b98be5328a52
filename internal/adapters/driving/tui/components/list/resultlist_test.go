package list

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func testMatches(n int) []domain.QueryMatch {
	matches := make([]domain.QueryMatch, n)
	for i := range matches {
		matches[i] = domain.QueryMatch{
			ID:         domain.RecordID("report", i),
			Similarity: 1 - float64(i)/10,
			Metadata: map[string]any{
				domain.MetadataText:     fmt.Sprintf("line %d text", i),
				domain.MetadataDocument: "report",
				domain.MetadataLine:     i,
			},
		}
	}
	return matches
}

func TestNewMatchList(t *testing.T) {
	l := NewMatchList(nil)

	require.NotNil(t, l)
	assert.Zero(t, l.Count())
	assert.Nil(t, l.SelectedMatch())
	assert.Nil(t, l.Init())
}

func TestMatchList_View(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Contains(t, NewMatchList(nil).View(), "No matches")
	})

	t.Run("renders document line and score", func(t *testing.T) {
		l := NewMatchList(nil)
		l.SetDimensions(100, 20)
		l.SetMatches(testMatches(2))

		view := l.View()

		assert.Contains(t, view, "Matches (2)")
		assert.Contains(t, view, "report:0")
		assert.Contains(t, view, "1.000")
		assert.Contains(t, view, "line 1 text")
	})

	t.Run("falls back to id without metadata", func(t *testing.T) {
		l := NewMatchList(nil)
		l.SetMatches([]domain.QueryMatch{{ID: "raw-id", Similarity: 0.5}})

		assert.Contains(t, l.View(), "raw-id")
	})

	t.Run("scrolls to keep selection visible", func(t *testing.T) {
		l := NewMatchList(nil)
		l.SetDimensions(100, 8) // two visible matches
		l.SetMatches(testMatches(5))
		for range 4 {
			l.MoveDown()
		}

		view := l.View()

		assert.Contains(t, view, "report:4")
		assert.NotContains(t, view, "report:0")
	})
}

func TestMatchList_Navigation(t *testing.T) {
	l := NewMatchList(nil)
	l.SetMatches(testMatches(3))

	l.MoveUp()
	assert.Equal(t, 0, l.Selected())

	l.Update(tea.KeyMsg{Type: tea.KeyDown})
	l.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	l.MoveDown()
	assert.Equal(t, 2, l.Selected())

	l.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	assert.Equal(t, 1, l.Selected())
	assert.Equal(t, "report_line_1", l.SelectedMatch().ID)

	l.SetMatches(testMatches(1))
	assert.Equal(t, 0, l.Selected())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate(strings.Repeat("abcdefghij", 2), 10))
	assert.Equal(t, "ééé...", truncate("éééééééé", 6))
}
