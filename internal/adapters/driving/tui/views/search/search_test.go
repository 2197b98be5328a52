package search

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

type mockVectorService struct {
	matches  []domain.QueryMatch
	err      error
	lastTopK int
	lastText string
}

func (m *mockVectorService) Dump(_ context.Context, _ int) ([]domain.VectorRecord, error) {
	return nil, nil
}

func (m *mockVectorService) Search(_ context.Context, text string, topK int) ([]domain.QueryMatch, error) {
	m.lastText, m.lastTopK = text, topK
	return m.matches, m.err
}

func (m *mockVectorService) Count(_ context.Context) (int, error) {
	return len(m.matches), nil
}

func sampleMatches() []domain.QueryMatch {
	return []domain.QueryMatch{
		{ID: "report_line_0", Similarity: 0.9, Metadata: map[string]any{
			domain.MetadataText: "First line about revenue.", domain.MetadataDocument: "report", domain.MetadataLine: 0,
		}},
		{ID: "report_line_7", Similarity: 0.4, Metadata: map[string]any{
			domain.MetadataText: "Second line.", domain.MetadataDocument: "report", domain.MetadataLine: 7,
		}},
	}
}

func newTestView(svc *mockVectorService) *View {
	v := NewView(nil, nil, svc)
	v.SetDimensions(100, 30)
	return v
}

// runSearch types a query, submits it and feeds the result back.
func runSearch(t *testing.T, v *View, query string) {
	t.Helper()
	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(query)})
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	v.Update(cmd())
}

func TestNewView(t *testing.T) {
	v := NewView(nil, nil, nil)

	require.NotNil(t, v)
	assert.True(t, v.InputFocused())
	assert.Equal(t, "Initialising...", v.View())
}

func TestView_Search(t *testing.T) {
	svc := &mockVectorService{matches: sampleMatches()}
	v := newTestView(svc)
	v.SetTopK(4)

	runSearch(t, v, "revenue")

	assert.Equal(t, "revenue", svc.lastText)
	assert.Equal(t, 4, svc.lastTopK)
	assert.Len(t, v.Matches(), 2)
	assert.False(t, v.InputFocused())
	view := v.View()
	assert.Contains(t, view, "report:0")
	assert.Contains(t, view, "2 matches")
}

func TestView_SearchError(t *testing.T) {
	v := newTestView(&mockVectorService{err: domain.ErrEmbeddingUnavailable})

	runSearch(t, v, "x")

	assert.ErrorIs(t, v.Err(), domain.ErrEmbeddingUnavailable)
	assert.Contains(t, v.View(), "Error:")
}

func TestView_NoService(t *testing.T) {
	v := NewView(nil, nil, nil)
	v.SetDimensions(100, 30)

	runSearch(t, v, "x")

	assert.ErrorIs(t, v.Err(), ErrNoVectorService)
}

func TestView_EmptyQueryIgnored(t *testing.T) {
	v := newTestView(&mockVectorService{})

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.True(t, v.InputFocused())
}

func TestView_NavigateAndExpand(t *testing.T) {
	v := newTestView(&mockVectorService{matches: sampleMatches()})
	runSearch(t, v, "q")

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	assert.Equal(t, 1, v.SelectedIndex())

	v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, v.Expanded())
	assert.Contains(t, v.View(), "Second line.")

	// Esc closes the expanded match before leaving the view.
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd)
	assert.False(t, v.Expanded())

	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_NewSearch(t *testing.T) {
	v := newTestView(&mockVectorService{matches: sampleMatches()})
	runSearch(t, v, "first")

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})

	assert.True(t, v.InputFocused())
	assert.Equal(t, "", v.Query())
}

func TestView_ErrorMessage(t *testing.T) {
	v := newTestView(&mockVectorService{})

	v.Update(messages.ErrorOccurred{Err: errors.New("index gone")})

	assert.EqualError(t, v.Err(), "index gone")
}

func TestView_Reset(t *testing.T) {
	v := newTestView(&mockVectorService{matches: sampleMatches()})
	runSearch(t, v, "q")

	v.Reset()

	assert.True(t, v.InputFocused())
	assert.Empty(t, v.Matches())
	assert.NoError(t, v.Err())
}
