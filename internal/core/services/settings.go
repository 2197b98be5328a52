package services

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyServerAddr        = "server.addr"
	keyServerCORS        = "server.cors_origins"
	keyServerMaxUpload   = "server.max_upload_mb"
	keyServerUploadDir   = "server.upload_dir"
	keyServerTextDir     = "server.text_dir"
	keyEmbedProvider     = "embedding.provider"
	keyEmbedModel        = "embedding.model"
	keyEmbedBaseURL      = "embedding.base_url"
	keyEmbedAPIKey       = "embedding.api_key"
	keyEmbedDims         = "embedding.dimensions"
	keyLLMProvider       = "llm.provider"
	keyLLMModel          = "llm.model"
	keyLLMBaseURL        = "llm.base_url"
	keyLLMAPIKey         = "llm.api_key"
	keyLLMMaxTokens      = "llm.max_tokens"
	keyIndexBackend      = "index.backend"
	keyIndexNamespace    = "index.namespace"
	keyIndexTopK         = "index.top_k"
	keyIndexDumpLimit    = "index.dump_limit"
	keyIndexDataDir      = "index.data_dir"
	keyIndexQdrantURL    = "index.qdrant_url"
	keyIndexQdrantAPIKey = "index.qdrant_api_key"
	keyIndexCollection   = "index.collection"
	keyIndexPostgresDSN  = "index.postgres_dsn"
	keyIngestWorkers     = "ingest.workers"
	keyIngestChunkSize   = "ingest.chunk_size"
	keyIngestMinWords    = "ingest.min_words"
	keyIngestSummarizers = "ingest.summarizers"
	keyIngestSentences   = "ingest.summary_sentences"
	keyAnswerMaxContext  = "answer.max_context_chars"
	keyAnalysisStore     = "analysis.store"
	keyAnalysisSimilar   = "analysis.similarity"
	keyRetryMaxAttempts  = "retry.max_attempts"
	keyRetryBaseDelay    = "retry.base_delay"
	keyRetryMaxDelay     = "retry.max_delay"
	keyRetryCallTimeout  = "retry.call_timeout"
	keyRetryRPS          = "retry.requests_per_second"
)

// defaultOllamaURL is used when a local provider has no base URL.
const defaultOllamaURL = "http://localhost:11434"

type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindFloat
	kindBool
	kindDuration
	kindList
)

// settingKinds lists every key Set accepts.
var settingKinds = map[string]settingKind{
	keyServerAddr:        kindString,
	keyServerCORS:        kindList,
	keyServerMaxUpload:   kindInt,
	keyServerUploadDir:   kindString,
	keyServerTextDir:     kindString,
	keyEmbedProvider:     kindString,
	keyEmbedModel:        kindString,
	keyEmbedBaseURL:      kindString,
	keyEmbedAPIKey:       kindString,
	keyEmbedDims:         kindInt,
	keyLLMProvider:       kindString,
	keyLLMModel:          kindString,
	keyLLMBaseURL:        kindString,
	keyLLMAPIKey:         kindString,
	keyLLMMaxTokens:      kindInt,
	keyIndexBackend:      kindString,
	keyIndexNamespace:    kindString,
	keyIndexTopK:         kindInt,
	keyIndexDumpLimit:    kindInt,
	keyIndexDataDir:      kindString,
	keyIndexQdrantURL:    kindString,
	keyIndexQdrantAPIKey: kindString,
	keyIndexCollection:   kindString,
	keyIndexPostgresDSN:  kindString,
	keyIngestWorkers:     kindInt,
	keyIngestChunkSize:   kindInt,
	keyIngestMinWords:    kindInt,
	keyIngestSummarizers: kindList,
	keyIngestSentences:   kindInt,
	keyAnswerMaxContext:  kindInt,
	keyAnalysisStore:     kindString,
	keyAnalysisSimilar:   kindBool,
	keyRetryMaxAttempts:  kindInt,
	keyRetryBaseDelay:    kindDuration,
	keyRetryMaxDelay:     kindDuration,
	keyRetryCallTimeout:  kindDuration,
	keyRetryRPS:          kindFloat,
}

// knownSummarizers are the accepted ingest.summarizers entries.
var knownSummarizers = []string{"frequency", "llm"}

// SettingsKeys returns every settable key, sorted.
func SettingsKeys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings with defaults applied.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Server: domain.ServerSettings{
			Addr:        s.getString(keyServerAddr, d.Server.Addr),
			CORSOrigins: s.getList(keyServerCORS, d.Server.CORSOrigins),
			MaxUploadMB: s.getInt(keyServerMaxUpload, d.Server.MaxUploadMB),
			UploadDir:   s.getString(keyServerUploadDir, d.Server.UploadDir),
			TextDir:     s.getString(keyServerTextDir, d.Server.TextDir),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:   s.getProvider(keyEmbedProvider),
			Model:      s.configStore.GetString(keyEmbedModel),
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:     s.configStore.GetString(keyEmbedAPIKey),
			Dimensions: s.configStore.GetInt(keyEmbedDims),
		},
		LLM: domain.LLMSettings{
			Provider:  s.getProvider(keyLLMProvider),
			Model:     s.configStore.GetString(keyLLMModel),
			BaseURL:   s.configStore.GetString(keyLLMBaseURL),
			APIKey:    s.configStore.GetString(keyLLMAPIKey),
			MaxTokens: s.getInt(keyLLMMaxTokens, d.LLM.MaxTokens),
		},
		Index: domain.IndexSettings{
			Backend:      domain.IndexBackend(s.getString(keyIndexBackend, string(d.Index.Backend))),
			Namespace:    s.getString(keyIndexNamespace, d.Index.Namespace),
			TopK:         s.getInt(keyIndexTopK, d.Index.TopK),
			DumpLimit:    min(s.getInt(keyIndexDumpLimit, d.Index.DumpLimit), domain.MaxDumpLimit),
			DataDir:      s.getString(keyIndexDataDir, filepath.Join(filepath.Dir(s.configStore.Path()), "data")),
			QdrantURL:    s.getString(keyIndexQdrantURL, d.Index.QdrantURL),
			QdrantAPIKey: s.configStore.GetString(keyIndexQdrantAPIKey),
			Collection:   s.getString(keyIndexCollection, d.Index.Collection),
			PostgresDSN:  s.configStore.GetString(keyIndexPostgresDSN),
		},
		Ingest: domain.IngestSettings{
			Workers:          s.getInt(keyIngestWorkers, d.Ingest.Workers),
			ChunkSize:        s.getInt(keyIngestChunkSize, d.Ingest.ChunkSize),
			MinWords:         s.getNonNegInt(keyIngestMinWords, d.Ingest.MinWords),
			Summarizers:      s.getList(keyIngestSummarizers, d.Ingest.Summarizers),
			SummarySentences: s.getInt(keyIngestSentences, d.Ingest.SummarySentences),
		},
		Answer: domain.AnswerSettings{
			MaxContextChars: s.getInt(keyAnswerMaxContext, d.Answer.MaxContextChars),
		},
		Analysis: domain.AnalysisSettings{
			Store:      domain.AnalysisBackend(s.getString(keyAnalysisStore, string(d.Analysis.Store))),
			Similarity: s.getBool(keyAnalysisSimilar, d.Analysis.Similarity),
		},
		Retry: domain.RetrySettings{
			MaxAttempts:       s.getInt(keyRetryMaxAttempts, d.Retry.MaxAttempts),
			BaseDelay:         s.getDuration(keyRetryBaseDelay, d.Retry.BaseDelay),
			MaxDelay:          s.getDuration(keyRetryMaxDelay, d.Retry.MaxDelay),
			CallTimeout:       s.getDuration(keyRetryCallTimeout, d.Retry.CallTimeout),
			RequestsPerSecond: s.configStore.GetFloat(keyRetryRPS),
		},
	}

	s.applyProviderDefaults(&settings.Embedding.Provider, &settings.Embedding.Model,
		&settings.Embedding.APIKey, domain.DefaultEmbeddingModels())
	s.applyProviderDefaults(&settings.LLM.Provider, &settings.LLM.Model,
		&settings.LLM.APIKey, domain.DefaultLLMModels())

	return settings, nil
}

// applyProviderDefaults fills the default model and the provider's
// conventional API key variable.
func (s *SettingsService) applyProviderDefaults(
	provider *domain.AIProvider, model, apiKey *string, models map[domain.AIProvider]string,
) {
	if *provider == "" {
		return
	}
	if *model == "" {
		*model = models[*provider]
	}
	if *apiKey == "" {
		switch *provider {
		case domain.AIProviderOpenAI:
			*apiKey = s.getenv("OPENAI_API_KEY")
		case domain.AIProviderAnthropic:
			*apiKey = s.getenv("ANTHROPIC_API_KEY")
		}
	}
}

// Set validates and stores a single key, persisting immediately.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("unknown setting %q: %w", key, domain.ErrInvalidInput)
	}

	parsed, err := parseSetting(kind, value)
	if err != nil {
		return fmt.Errorf("setting %s: %v: %w", key, err, domain.ErrInvalidInput)
	}
	if err := validateSetting(key, parsed); err != nil {
		return fmt.Errorf("setting %s: %v: %w", key, err, domain.ErrInvalidInput)
	}

	return s.configStore.Set(key, parsed)
}

func parseSetting(kind settingKind, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("expected an integer")
		}
		if n < 0 {
			return nil, fmt.Errorf("must not be negative")
		}
		return n, nil
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return nil, fmt.Errorf("expected a non-negative number")
		}
		return f, nil
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("expected true or false")
		}
		return b, nil
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("expected a duration such as 200ms")
		}
		return d.String(), nil
	case kindList:
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return items, nil
	default:
		return value, nil
	}
}

func validateSetting(key string, value any) error {
	switch key {
	case keyEmbedProvider:
		p := domain.AIProvider(value.(string))
		if !slices.Contains(domain.AllEmbeddingProviders(), p) {
			return fmt.Errorf("provider %q does not support embeddings", p)
		}
	case keyLLMProvider:
		if p := domain.AIProvider(value.(string)); !p.IsValid() {
			return fmt.Errorf("invalid provider %q", p)
		}
	case keyIndexBackend:
		if b := domain.IndexBackend(value.(string)); !b.IsValid() {
			return fmt.Errorf("invalid backend %q", b)
		}
	case keyAnalysisStore:
		if b := domain.AnalysisBackend(value.(string)); !b.IsValid() {
			return fmt.Errorf("invalid analysis store %q", b)
		}
	case keyIngestSummarizers:
		for _, name := range value.([]string) {
			if !slices.Contains(knownSummarizers, name) {
				return fmt.Errorf("unknown summarizer %q", name)
			}
		}
	case keyIndexDumpLimit:
		if value.(int) > domain.MaxDumpLimit {
			return fmt.Errorf("must be at most %d", domain.MaxDumpLimit)
		}
	case keyIndexNamespace:
		if value.(string) == "" {
			return fmt.Errorf("must not be empty")
		}
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}
	baseURL := ""
	if provider == domain.AIProviderOllama {
		baseURL = s.getString(keyEmbedBaseURL, defaultOllamaURL)
	}

	values := []keyValue{
		{keyEmbedProvider, provider.String()},
		{keyEmbedModel, model},
		{keyEmbedBaseURL, baseURL},
		{keyEmbedAPIKey, apiKey},
	}
	if d, ok := domain.EmbeddingDimensions()[model]; ok {
		values = append(values, keyValue{keyEmbedDims, d})
	}
	return s.setAll(values)
}

// SetLLMProvider configures the generation provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	if model == "" {
		model = domain.DefaultLLMModels()[provider]
	}
	baseURL := ""
	if provider == domain.AIProviderOllama {
		baseURL = s.getString(keyLLMBaseURL, defaultOllamaURL)
	}

	return s.setAll([]keyValue{
		{keyLLMProvider, provider.String()},
		{keyLLMModel, model},
		{keyLLMBaseURL, baseURL},
		{keyLLMAPIKey, apiKey},
	})
}

type keyValue struct {
	key string
	val any
}

func (s *SettingsService) setAll(values []keyValue) error {
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.val); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// Validate checks that the settings can run the service.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider is not configured: %w", domain.ErrEmbeddingUnavailable)
	}
	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("llm provider is not configured: %w", domain.ErrLLMUnavailable)
	}
	if !settings.Index.Backend.IsValid() {
		return fmt.Errorf("invalid index backend %q: %w", settings.Index.Backend, domain.ErrInvalidInput)
	}
	if !settings.Analysis.Store.IsValid() {
		return fmt.Errorf("invalid analysis store %q: %w", settings.Analysis.Store, domain.ErrInvalidInput)
	}
	switch settings.Index.Backend {
	case domain.IndexBackendQdrant:
		if settings.Index.QdrantURL == "" {
			return fmt.Errorf("index.qdrant_url is required for qdrant: %w", domain.ErrInvalidInput)
		}
	case domain.IndexBackendPGVector:
		if settings.Index.PostgresDSN == "" {
			return fmt.Errorf("index.postgres_dsn is required for pgvector: %w", domain.ErrInvalidInput)
		}
	}
	for _, name := range settings.Ingest.Summarizers {
		if !slices.Contains(knownSummarizers, name) {
			return fmt.Errorf("unknown summarizer %q: %w", name, domain.ErrInvalidInput)
		}
	}
	return nil
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Path returns the configuration file path.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getNonNegInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	if val := s.configStore.GetInt(key); val >= 0 {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getList(key string, defaultVal []string) []string {
	val := s.configStore.GetStringSlice(key)
	if len(val) == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getProvider(key string) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(key))
	if !provider.IsValid() {
		return ""
	}
	return provider
}
