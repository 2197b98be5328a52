package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAIProvider_IsValid(t *testing.T) {
	assert.True(t, AIProviderOllama.IsValid())
	assert.True(t, AIProviderOpenAI.IsValid())
	assert.True(t, AIProviderAnthropic.IsValid())
	assert.False(t, AIProvider("").IsValid())
	assert.False(t, AIProvider("cohere").IsValid())
}

func TestAIProvider_RequiresAPIKey(t *testing.T) {
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())
	assert.True(t, AIProviderAnthropic.RequiresAPIKey())
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings EmbeddingSettings
		expected bool
	}{
		{"empty", EmbeddingSettings{}, false},
		{"ollama without key", EmbeddingSettings{Provider: AIProviderOllama}, true},
		{"openai without key", EmbeddingSettings{Provider: AIProviderOpenAI}, false},
		{"openai with key", EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "sk"}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.settings.IsConfigured())
		})
	}
}

func TestEmbeddingSettings_ResolvedDimensions(t *testing.T) {
	assert.Equal(t, 1536, EmbeddingSettings{Model: "text-embedding-3-small"}.ResolvedDimensions())
	assert.Equal(t, 256, EmbeddingSettings{Model: "text-embedding-3-small", Dimensions: 256}.ResolvedDimensions())
	assert.Equal(t, 0, EmbeddingSettings{Model: "unknown"}.ResolvedDimensions())
}

func TestLLMSettings_IsConfigured(t *testing.T) {
	assert.False(t, LLMSettings{}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderOllama}.IsConfigured())
	assert.False(t, LLMSettings{Provider: AIProviderAnthropic}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderAnthropic, APIKey: "k"}.IsConfigured())
}

func TestIndexBackend_IsValid(t *testing.T) {
	for _, b := range AllIndexBackends() {
		assert.True(t, b.IsValid(), b)
		assert.NotEqual(t, unknownDescription, b.Description())
	}
	assert.False(t, IndexBackend("faiss").IsValid())
	assert.Equal(t, unknownDescription, IndexBackend("faiss").Description())
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, ":8000", s.Server.Addr)
	assert.Equal(t, "uploaded_files", s.Server.UploadDir)
	assert.Equal(t, "extracted_texts", s.Server.TextDir)
	assert.Equal(t, IndexBackendMemory, s.Index.Backend)
	assert.Equal(t, "real", s.Index.Namespace)
	assert.Equal(t, 3, s.Index.TopK)
	assert.Equal(t, 1024, s.Ingest.ChunkSize)
	assert.Equal(t, 10, s.Ingest.MinWords)
	assert.Equal(t, []string{"frequency"}, s.Ingest.Summarizers)
	assert.Equal(t, AnalysisBackendMemory, s.Analysis.Store)
	assert.Equal(t, 3, s.Retry.MaxAttempts)
	assert.False(t, s.Embedding.IsConfigured())
	assert.False(t, s.LLM.IsConfigured())
}
