package driven

import "github.com/custodia-labs/docqa/internal/core/domain"

// AIConfigValidator checks AI provider configurations by pinging the provider.
type AIConfigValidator interface {
	// ValidateEmbedding returns nil if the configuration works or is not configured.
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateLLM returns nil if the configuration works or is not configured.
	ValidateLLM(config *domain.LLMSettings) error
}
