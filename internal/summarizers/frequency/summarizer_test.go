package frequency

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizer_Summarize(t *testing.T) {
	ctx := context.Background()

	t.Run("short text returned whole", func(t *testing.T) {
		s := New(3)
		out, err := s.Summarize(ctx, "One sentence. Two sentences!")
		require.NoError(t, err)
		assert.Equal(t, "One sentence. Two sentences!", out)
	})

	t.Run("empty text", func(t *testing.T) {
		out, err := New(3).Summarize(ctx, "   ")
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("keeps frequent sentences in order", func(t *testing.T) {
		text := "Vectors store embeddings. " +
			"The weather was pleasant yesterday. " +
			"Embeddings power vectors and retrieval of vectors. " +
			"Lunch was served at noon. " +
			"Retrieval uses embeddings stored as vectors."
		out, err := New(2).Summarize(ctx, text)
		require.NoError(t, err)

		assert.Equal(t, "Vectors store embeddings. Embeddings power vectors and retrieval of vectors.", out)
	})

	t.Run("trailing text without punctuation is a sentence", func(t *testing.T) {
		out, err := New(5).Summarize(ctx, "First one. trailing words")
		require.NoError(t, err)
		assert.Equal(t, "First one. trailing words", out)
	})

	t.Run("deterministic", func(t *testing.T) {
		text := strings.Repeat("Same words here. ", 10)
		a, err := New(2).Summarize(ctx, text)
		require.NoError(t, err)
		b, err := New(2).Summarize(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, a, b)
		assert.Equal(t, "Same words here. Same words here.", a)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := New(2).Summarize(cctx, "text.")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNew_DefaultSentences(t *testing.T) {
	s := New(0)
	assert.Equal(t, DefaultSentences, s.sentences)
	assert.Equal(t, "frequency", s.Name())
}
