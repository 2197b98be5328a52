package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI API or a compatible server.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic API. Generation only.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	Provider AIProvider
	Model    string

	// BaseURL overrides the provider endpoint.
	BaseURL string

	APIKey string

	// Dimensions overrides the model's known dimensionality.
	Dimensions int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// ResolvedDimensions returns Dimensions, or the known size of Model, or 0.
func (e EmbeddingSettings) ResolvedDimensions() int {
	if e.Dimensions > 0 {
		return e.Dimensions
	}
	return EmbeddingDimensions()[e.Model]
}

// LLMSettings holds generation provider configuration.
type LLMSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string

	// MaxTokens bounds each generated answer.
	MaxTokens int
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// IndexBackend selects the vector index implementation.
type IndexBackend string

// Available vector index backends.
const (
	IndexBackendMemory   IndexBackend = "memory"
	IndexBackendSQLite   IndexBackend = "sqlite"
	IndexBackendQdrant   IndexBackend = "qdrant"
	IndexBackendPGVector IndexBackend = "pgvector"
)

// IsValid returns true if the backend is recognised.
func (b IndexBackend) IsValid() bool {
	switch b {
	case IndexBackendMemory, IndexBackendSQLite, IndexBackendQdrant, IndexBackendPGVector:
		return true
	default:
		return false
	}
}

// Description returns a human-readable description of the backend.
func (b IndexBackend) Description() string {
	switch b {
	case IndexBackendMemory:
		return "In-memory (lost on restart)"
	case IndexBackendSQLite:
		return "SQLite file (embedded, brute-force cosine)"
	case IndexBackendQdrant:
		return "Qdrant (REST)"
	case IndexBackendPGVector:
		return "PostgreSQL with pgvector"
	default:
		return unknownDescription
	}
}

// IndexSettings holds vector index configuration.
type IndexSettings struct {
	Backend IndexBackend

	// Namespace is the partition ingestion writes to and answering reads from.
	Namespace string

	// TopK is the number of segments retrieved per question.
	TopK int

	// DumpLimit bounds bulk dumps of the index.
	DumpLimit int

	// DataDir holds the SQLite database.
	DataDir string

	QdrantURL    string
	QdrantAPIKey string
	Collection   string

	PostgresDSN string
}

// IngestSettings controls the indexing and summarization pipelines.
type IngestSettings struct {
	// Workers bounds concurrent per-line embedding and upsert calls.
	Workers int

	// ChunkSize is the Chunker's character budget per segment.
	ChunkSize int

	// MinWords excludes shorter segments from summarization.
	MinWords int

	// Summarizers lists summarization backends by name, in priority order.
	Summarizers []string

	// SummarySentences is the number of sentences the frequency summarizer keeps per segment.
	SummarySentences int
}

// AnswerSettings controls answer synthesis.
type AnswerSettings struct {
	// MaxContextChars bounds the context block passed to the generator.
	MaxContextChars int
}

// AnalysisBackend selects the analysis store implementation.
type AnalysisBackend string

// Available analysis store backends.
const (
	AnalysisBackendMemory AnalysisBackend = "memory"
	AnalysisBackendSQLite AnalysisBackend = "sqlite"
)

// IsValid returns true if the backend is recognised.
func (b AnalysisBackend) IsValid() bool {
	return b == AnalysisBackendMemory || b == AnalysisBackendSQLite
}

// AnalysisSettings controls the analysis cache.
type AnalysisSettings struct {
	Store AnalysisBackend

	// Similarity enables summary/source embedding similarity scores.
	Similarity bool
}

// RetrySettings bounds every call to an external service.
type RetrySettings struct {
	// MaxAttempts is the total number of attempts, first call included.
	MaxAttempts int

	// BaseDelay is doubled on each retry up to MaxDelay.
	BaseDelay time.Duration
	MaxDelay  time.Duration

	// CallTimeout is the hard timeout for a single attempt.
	CallTimeout time.Duration

	// RequestsPerSecond limits outbound calls per provider. 0 means unlimited.
	RequestsPerSecond float64
}

// ServerSettings holds HTTP API configuration.
type ServerSettings struct {
	Addr        string
	CORSOrigins []string
	MaxUploadMB int

	// UploadDir receives uploaded files.
	UploadDir string

	// TextDir receives extracted text, one .txt per document.
	TextDir string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Server    ServerSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Index     IndexSettings
	Ingest    IngestSettings
	Answer    AnswerSettings
	Analysis  AnalysisSettings
	Retry     RetrySettings
}

// Defaults for settings that have one.
const (
	DefaultServerAddr       = ":8000"
	DefaultMaxUploadMB      = 32
	DefaultUploadDir        = "uploaded_files"
	DefaultTextDir          = "extracted_texts"
	DefaultTopK             = 3
	DefaultDumpLimit        = 100
	MaxDumpLimit            = 1000
	DefaultCollection       = "docqa"
	DefaultQdrantURL        = "http://localhost:6333"
	DefaultWorkers          = 4
	DefaultChunkSize        = 1024
	DefaultMinWords         = 10
	DefaultSummarySentences = 3
	DefaultMaxContextChars  = 8000
	DefaultMaxTokens        = 512
	DefaultMaxAttempts      = 3
	DefaultBaseDelay        = 200 * time.Millisecond
	DefaultMaxDelay         = 5 * time.Second
	DefaultCallTimeout      = 60 * time.Second
)

// DefaultAppSettings returns settings with sensible defaults.
// AI providers are left unconfigured; they need an explicit provider and key.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Server: ServerSettings{
			Addr:        DefaultServerAddr,
			CORSOrigins: []string{"*"},
			MaxUploadMB: DefaultMaxUploadMB,
			UploadDir:   DefaultUploadDir,
			TextDir:     DefaultTextDir,
		},
		LLM: LLMSettings{
			MaxTokens: DefaultMaxTokens,
		},
		Index: IndexSettings{
			Backend:    IndexBackendMemory,
			Namespace:  DefaultNamespace,
			TopK:       DefaultTopK,
			DumpLimit:  DefaultDumpLimit,
			QdrantURL:  DefaultQdrantURL,
			Collection: DefaultCollection,
		},
		Ingest: IngestSettings{
			Workers:          DefaultWorkers,
			ChunkSize:        DefaultChunkSize,
			MinWords:         DefaultMinWords,
			Summarizers:      []string{"frequency"},
			SummarySentences: DefaultSummarySentences,
		},
		Answer: AnswerSettings{
			MaxContextChars: DefaultMaxContextChars,
		},
		Analysis: AnalysisSettings{
			Store: AnalysisBackendMemory,
		},
		Retry: RetrySettings{
			MaxAttempts: DefaultMaxAttempts,
			BaseDelay:   DefaultBaseDelay,
			MaxDelay:    DefaultMaxDelay,
			CallTimeout: DefaultCallTimeout,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{AIProviderOllama, AIProviderOpenAI}
}

// AllLLMProviders returns providers that support generation.
func AllLLMProviders() []AIProvider {
	return []AIProvider{AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic}
}

// AllIndexBackends returns every vector index backend.
func AllIndexBackends() []IndexBackend {
	return []IndexBackend{IndexBackendMemory, IndexBackendSQLite, IndexBackendQdrant, IndexBackendPGVector}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"nomic-embed-text":       768,
		"mxbai-embed-large":      1024,
		"all-minilm":             384,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
