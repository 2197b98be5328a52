// Package llm provides an abstractive summariser backed by a generation service.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// DefaultMaxTokens bounds the length of a generated summary.
const DefaultMaxTokens = 256

// Summarizer asks the generation service for a summary at temperature 0.
type Summarizer struct {
	llm       driven.LLMService
	prompts   driven.PromptStore
	maxTokens int
}

var _ driven.Summarizer = (*Summarizer)(nil)

// New creates an LLM summariser. The prompt is loaded from prompts under
// driven.PromptSummarize and must contain one %s verb for the text.
func New(llm driven.LLMService, prompts driven.PromptStore, maxTokens int) *Summarizer {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Summarizer{llm: llm, prompts: prompts, maxTokens: maxTokens}
}

// Name returns the summariser name.
func (s *Summarizer) Name() string {
	return "llm"
}

// Summarize generates a summary of text.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	if s.llm == nil {
		return "", domain.ErrLLMUnavailable
	}
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	tmpl, err := s.prompts.Load(driven.PromptSummarize)
	if err != nil {
		return "", fmt.Errorf("load summarize prompt: %w", err)
	}

	out, err := s.llm.Generate(ctx, fmt.Sprintf(tmpl, text), driven.GenerateOptions{
		MaxTokens:   s.maxTokens,
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return strings.TrimSpace(out), nil
}
