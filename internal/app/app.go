// Package app is the composition root. It reads settings and builds every
// driven adapter and core service the driving adapters need.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/docqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/docqa/internal/adapters/driven/config/file"
	artifactfile "github.com/custodia-labs/docqa/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/qdrant"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/services"
	"github.com/custodia-labs/docqa/internal/extractors"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/postprocessors"
	"github.com/custodia-labs/docqa/internal/summarizers"
)

// Options selects where configuration is read from.
type Options struct {
	// ConfigPath is a config file or directory. Empty uses ~/.docqa.
	ConfigPath string

	// EnvFiles are loaded before the config store is read. Defaults to ".env".
	EnvFiles []string

	// SkipProviders leaves the AI providers unset. Used by commands that only
	// read or edit settings.
	SkipProviders bool
}

// App holds the wired services. Close releases every adapter.
type App struct {
	Settings *domain.AppSettings

	SettingsService *services.SettingsService
	Ingest          *services.IngestService
	Answer          *services.AnswerService
	Analysis        *services.AnalysisService
	Vectors         *services.VectorService
	Documents       *services.DocumentService
	Extractors      *extractors.Registry

	// Warnings lists providers that could not be initialised.
	Warnings []string

	closers []func() error
}

// New builds the application from configuration.
func New(ctx context.Context, opts Options) (*App, error) {
	envFiles := opts.EnvFiles
	if envFiles == nil {
		envFiles = []string{".env"}
	}
	if err := file.LoadDotEnv(envFiles...); err != nil {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	configStore, err := file.NewConfigStore(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}

	settingsService := services.NewSettingsService(configStore, nil)
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	settingsService = services.NewSettingsService(configStore, ai.NewConfigValidator(settings.Retry))

	a := &App{
		Settings:        settings,
		SettingsService: settingsService,
	}
	if opts.SkipProviders {
		return a, nil
	}

	if err := a.build(ctx, configStore.Dir()); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, configDir string) error {
	s := a.Settings
	logger.Section("Initialising")

	providers := ai.Init(s)
	a.closers = append(a.closers, func() error { providers.Close(); return nil })
	for _, w := range providers.Warnings {
		logger.Warn("%s", w)
	}
	a.Warnings = providers.Warnings

	var sqliteStore *sqlite.Store
	if s.Index.Backend == domain.IndexBackendSQLite || s.Analysis.Store == domain.AnalysisBackendSQLite {
		store, err := sqlite.NewStore(s.Index.DataDir)
		if err != nil {
			return fmt.Errorf("opening sqlite store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		sqliteStore = store
		logger.Info("SQLite store at %s", store.Path())
	}

	index, err := NewVectorIndex(ctx, &s.Index, s.Retry, sqliteStore)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, index.Close)

	if providers.EmbeddingService != nil {
		if err := index.EnsureIndex(ctx, providers.EmbeddingService.Dimensions()); err != nil {
			return fmt.Errorf("preparing %s index: %w", s.Index.Backend, err)
		}
	}

	var analysisStore driven.AnalysisStore = memory.NewAnalysisStore()
	var documentStore driven.DocumentStore = memory.NewDocumentStore()
	if sqliteStore != nil {
		documentStore = sqliteStore.DocumentStore()
		if s.Analysis.Store == domain.AnalysisBackendSQLite {
			analysisStore = sqliteStore.AnalysisStore()
		}
	}

	artifacts, err := artifactfile.NewArtifactStore(s.Server.UploadDir, s.Server.TextDir)
	if err != nil {
		return fmt.Errorf("preparing artifact directories: %w", err)
	}

	prompts, err := file.NewPromptStore(filepath.Join(configDir, "prompts"))
	if err != nil {
		return fmt.Errorf("opening prompts: %w", err)
	}

	pipeline, err := postprocessors.NewSummaryPipeline(s.Ingest.ChunkSize, s.Ingest.MinWords)
	if err != nil {
		return fmt.Errorf("building summary pipeline: %w", err)
	}
	sums, err := summarizers.Build(s.Ingest.Summarizers, summarizers.Deps{
		Sentences: s.Ingest.SummarySentences,
		LLM:       providers.LLMService,
		Prompts:   prompts,
		MaxTokens: s.LLM.MaxTokens,
	})
	if err != nil {
		if !errors.Is(err, domain.ErrLLMUnavailable) {
			return fmt.Errorf("building summarizers: %w", err)
		}
		logger.Warn("LLM summarizer disabled: %v", err)
		sums, err = summarizers.Build(withoutLLM(s.Ingest.Summarizers), summarizers.Deps{Sentences: s.Ingest.SummarySentences})
		if err != nil {
			return fmt.Errorf("building summarizers: %w", err)
		}
	}

	a.Analysis = services.NewAnalysisService(analysisStore, pipeline, sums)
	if s.Analysis.Similarity && providers.EmbeddingService != nil {
		a.Analysis.SetSimilarityEmbedder(providers.EmbeddingService)
	}

	a.Extractors = extractors.NewDefaultRegistry()

	a.Ingest = services.NewIngestService(providers.EmbeddingService, index, a.Analysis, s.Index.Namespace, s.Ingest.Workers)
	a.Ingest.SetExtractors(a.Extractors)
	a.Ingest.SetArtifactStore(artifacts)
	a.Ingest.SetDocumentStore(documentStore)

	a.Answer = services.NewAnswerService(providers.EmbeddingService, index, providers.LLMService, prompts,
		services.AnswerOptions{
			Namespace:       s.Index.Namespace,
			TopK:            s.Index.TopK,
			MaxContextChars: s.Answer.MaxContextChars,
			MaxTokens:       s.LLM.MaxTokens,
		})
	a.Vectors = services.NewVectorService(index, providers.EmbeddingService, s.Index.Namespace, s.Index.DumpLimit, s.Index.TopK)
	a.Documents = services.NewDocumentService(documentStore, artifacts)

	logger.Info("Index backend: %s, namespace: %s", s.Index.Backend, s.Index.Namespace)
	return nil
}

// Close releases adapters in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// NewVectorIndex builds the configured vector index backend. store must be
// non-nil for the sqlite backend.
func NewVectorIndex(
	ctx context.Context, settings *domain.IndexSettings, retry domain.RetrySettings, store *sqlite.Store,
) (driven.VectorIndex, error) {
	switch settings.Backend {
	case domain.IndexBackendMemory, "":
		return memory.NewVectorIndex(), nil
	case domain.IndexBackendSQLite:
		if store == nil {
			return nil, fmt.Errorf("%w: sqlite store not opened", domain.ErrVectorIndexUnavailable)
		}
		return store.VectorIndex(), nil
	case domain.IndexBackendQdrant:
		return qdrant.New(qdrant.Config{
			URL:        settings.QdrantURL,
			APIKey:     settings.QdrantAPIKey,
			Collection: settings.Collection,
			Retry:      retry,
		}), nil
	case domain.IndexBackendPGVector:
		idx, err := postgres.Open(ctx, settings.PostgresDSN, "")
		if err != nil {
			return nil, err
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("%w: unknown index backend %q", domain.ErrInvalidInput, settings.Backend)
	}
}

func withoutLLM(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n != summarizers.LLM {
			out = append(out, n)
		}
	}
	return out
}
