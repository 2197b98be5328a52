// Package summarizers builds the configured summarisation backends.
package summarizers

import (
	"fmt"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/summarizers/frequency"
	"github.com/custodia-labs/docqa/internal/summarizers/llm"
)

// Names of the built-in summarisers.
const (
	Frequency = "frequency"
	LLM       = "llm"
)

// Deps carries what the built-in summarisers may need.
type Deps struct {
	Sentences int
	LLM       driven.LLMService
	Prompts   driven.PromptStore
	MaxTokens int
}

// Build creates the summarisers named in order. Unknown names fail with
// domain.ErrInvalidInput; "llm" without a generation service fails with
// domain.ErrLLMUnavailable.
func Build(names []string, deps Deps) ([]driven.Summarizer, error) {
	out := make([]driven.Summarizer, 0, len(names))
	seen := make(map[string]bool, len(names))

	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		switch name {
		case Frequency:
			out = append(out, frequency.New(deps.Sentences))
		case LLM:
			if deps.LLM == nil || deps.Prompts == nil {
				return nil, fmt.Errorf("summarizer %q: %w", name, domain.ErrLLMUnavailable)
			}
			out = append(out, llm.New(deps.LLM, deps.Prompts, deps.MaxTokens))
		default:
			return nil, fmt.Errorf("unknown summarizer %q: %w", name, domain.ErrInvalidInput)
		}
	}

	return out, nil
}
