package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// AnswerService answers questions from the indexed corpus.
type AnswerService interface {
	// Answer embeds the question, retrieves the top-k segments and generates
	// an answer from them. Each call is independent.
	Answer(ctx context.Context, question string) (*domain.Answer, error)
}
