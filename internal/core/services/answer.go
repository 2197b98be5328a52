package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// contextSeparator joins retrieved segments in the context block.
const contextSeparator = "\n\n"

// AnswerOptions tunes retrieval and generation.
type AnswerOptions struct {
	Namespace       string
	TopK            int
	MaxContextChars int
	MaxTokens       int
}

// AnswerService answers questions by retrieving similar lines and
// generating from them in a single prompt.
type AnswerService struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	llm      driven.LLMService
	prompts  driven.PromptStore
	opts     AnswerOptions
}

// NewAnswerService creates a new answer service. Zero options take the
// domain defaults.
func NewAnswerService(
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	llm driven.LLMService,
	prompts driven.PromptStore,
	opts AnswerOptions,
) *AnswerService {
	if opts.Namespace == "" {
		opts.Namespace = domain.DefaultNamespace
	}
	if opts.TopK <= 0 {
		opts.TopK = domain.DefaultTopK
	}
	if opts.MaxContextChars <= 0 {
		opts.MaxContextChars = domain.DefaultMaxContextChars
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = domain.DefaultMaxTokens
	}
	return &AnswerService{
		embedder: embedder,
		index:    index,
		llm:      llm,
		prompts:  prompts,
		opts:     opts,
	}
}

// Answer embeds the question, retrieves the top-k lines and asks the
// generation service at temperature 0. An empty retrieval still generates,
// with an empty context block.
func (s *AnswerService) Answer(ctx context.Context, question string) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question is required: %w", domain.ErrInvalidInput)
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.index == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	logger.Section("Answer")
	logger.Debug("Question: %q", question)

	vec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	matches, err := s.index.Query(ctx, s.opts.Namespace, vec, domain.QueryOptions{
		TopK:            s.opts.TopK,
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	logger.Debug("Retrieved %d segments", len(matches))

	block := BuildContext(matches, s.opts.MaxContextChars)

	system, err := s.prompts.Load(driven.PromptAnswerSystem)
	if err != nil {
		return nil, fmt.Errorf("load prompt: %w", err)
	}
	user, err := s.prompts.Load(driven.PromptAnswerUser)
	if err != nil {
		return nil, fmt.Errorf("load prompt: %w", err)
	}

	done := logger.Timed("generate")
	text, err := s.llm.Chat(ctx, []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: system},
		{Role: driven.RoleUser, Content: fmt.Sprintf(user, block, question)},
	}, driven.GenerateOptions{
		MaxTokens:   s.opts.MaxTokens,
		Temperature: 0,
	})
	done()
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &domain.Answer{
		Question: question,
		Text:     text,
		Sources:  matches,
	}, nil
}

// BuildContext joins the text of matches in the given order while the
// block stays within budget characters. A first segment larger than the
// budget is truncated to it. A budget <= 0 is unbounded.
func BuildContext(matches []domain.QueryMatch, budget int) string {
	var b strings.Builder
	used := 0

	for _, m := range matches {
		text := strings.TrimSpace(m.Text())
		if text == "" {
			continue
		}
		n := len([]rune(text))

		if b.Len() == 0 {
			if budget > 0 && n > budget {
				return truncateRunes(text, budget)
			}
			b.WriteString(text)
			used = n
			continue
		}

		sep := len(contextSeparator)
		if budget > 0 && used+sep+n > budget {
			break
		}
		b.WriteString(contextSeparator)
		b.WriteString(text)
		used += sep + n
	}

	return b.String()
}
