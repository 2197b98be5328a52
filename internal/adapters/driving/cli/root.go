// Package cli implements the docqa command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Command annotations controlling how much of the runtime is built.
const (
	annotationBootstrap = "docqa/bootstrap"
	bootstrapNone       = "none"
	bootstrapSettings   = "settings"
)

// version is set by SetVersion from the build.
var version = "dev"

// Services used by commands. Set by the bootstrap or by tests.
var (
	ingestService   driving.IngestService
	answerService   driving.AnswerService
	analysisService driving.AnalysisService
	vectorService   driving.VectorService
	documentService driving.DocumentService
	settingsService driving.SettingsService

	appSettings *domain.AppSettings
)

// Persistent flags.
var (
	verbose    bool
	configPath string
)

// Runtime is what the composition root hands to the CLI.
type Runtime struct {
	Ingest    driving.IngestService
	Answer    driving.AnswerService
	Analysis  driving.AnalysisService
	Vectors   driving.VectorService
	Documents driving.DocumentService
	Settings  driving.SettingsService

	// Config is the settings snapshot the services were built from.
	Config *domain.AppSettings

	// Close releases adapters. May be nil.
	Close func() error
}

// BootstrapFunc builds the runtime. With settingsOnly set, only the
// settings service and config are required.
type BootstrapFunc func(ctx context.Context, configPath string, settingsOnly bool) (*Runtime, error)

var (
	bootstrap    BootstrapFunc
	closeRuntime func() error
)

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Question answering over your documents",
	Long: `docqa ingests PDF and text documents line by line into a vector index,
answers questions from the most similar lines with an LLM, and keeps a
summary and statistics of the last ingested document.

Run 'docqa serve' for the HTTP API, 'docqa chat' for the terminal UI,
or 'docqa mcp serve' to expose the same tools to AI assistants.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		return teardown()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file or directory (default ~/.docqa)")
}

// SetVersion sets the version reported by 'docqa version'.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetBootstrap installs the function that builds services before a command runs.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// SetServices injects services directly, bypassing the bootstrap.
func SetServices(rt *Runtime) {
	if rt == nil {
		rt = &Runtime{}
	}
	ingestService = rt.Ingest
	answerService = rt.Answer
	analysisService = rt.Analysis
	vectorService = rt.Vectors
	documentService = rt.Documents
	settingsService = rt.Settings
	appSettings = rt.Config
	closeRuntime = rt.Close
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	mode := cmd.Annotations[annotationBootstrap]
	if mode == bootstrapNone || bootstrap == nil {
		return nil
	}

	rt, err := bootstrap(cmd.Context(), configPath, mode == bootstrapSettings)
	if err != nil {
		return fmt.Errorf("initialising: %w", err)
	}
	SetServices(rt)
	return nil
}

func teardown() error {
	if closeRuntime == nil {
		return nil
	}
	err := closeRuntime()
	closeRuntime = nil
	return err
}

// settings returns the loaded configuration, falling back to defaults.
func settings() *domain.AppSettings {
	if appSettings != nil {
		return appSettings
	}
	s := domain.DefaultAppSettings()
	return &s
}

// errNotConfigured reports a service the runtime did not provide.
func errNotConfigured(name string) error {
	return errors.New(name + " service not configured")
}
