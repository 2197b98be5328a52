package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure AnalysisService implements the interface.
var _ driving.AnalysisService = (*AnalysisService)(nil)

// similaritySourceChars bounds how much source text is embedded when
// comparing it to a summary.
const similaritySourceChars = 8000

// ErrSummarizationFailed is returned when every configured summariser failed.
var ErrSummarizationFailed = errors.New("summarization failed")

// AnalysisService derives summaries and statistics from document text and
// keeps the most recent result in the analysis store.
type AnalysisService struct {
	store       driven.AnalysisStore
	pipeline    driven.SegmentPipeline
	summarizers []driven.Summarizer
	embedder    driven.EmbeddingService
	now         func() time.Time
}

// NewAnalysisService creates a new analysis service.
func NewAnalysisService(
	store driven.AnalysisStore,
	pipeline driven.SegmentPipeline,
	summarizers []driven.Summarizer,
) *AnalysisService {
	return &AnalysisService{
		store:       store,
		pipeline:    pipeline,
		summarizers: summarizers,
		now:         time.Now,
	}
}

// SetSimilarityEmbedder enables summary/source similarity scores.
func (s *AnalysisService) SetSimilarityEmbedder(embedder driven.EmbeddingService) {
	s.embedder = embedder
}

// Analyze summarises text with every configured backend, computes the
// statistics and replaces the stored analysis. The record is stored even
// when summarisation fails; in that case ErrSummarizationFailed is returned
// alongside it.
func (s *AnalysisService) Analyze(ctx context.Context, filename, text string) (*domain.AnalysisRecord, error) {
	defer logger.Timed("analysis")()

	segments, err := s.pipeline.Process(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("prepare segments: %w", err)
	}
	logger.Debug("Analysis segments: %d", len(segments))

	words := domain.WordCount(text)
	record := domain.AnalysisRecord{
		Filename:  filename,
		Summaries: make(map[string]string, len(s.summarizers)),
		Statistics: domain.AnalysisStatistics{
			WordCount:         words,
			SentenceCount:     domain.SentenceCount(text),
			CompressionRatios: make(map[string]float64, len(s.summarizers)),
		},
		CreatedAt: s.now().UTC(),
	}

	for _, sum := range s.summarizers {
		summary, err := s.summarize(ctx, sum, segments)
		if err != nil {
			if record.Errors == nil {
				record.Errors = make(map[string]string)
			}
			record.Errors[sum.Name()] = err.Error()
			logger.Warn("Summarizer %s failed: %v", sum.Name(), err)
			continue
		}

		record.Summaries[sum.Name()] = summary
		ratio := domain.CompressionRatio(domain.WordCount(summary), words)
		record.Statistics.CompressionRatios[sum.Name()] = ratio

		if record.Summary == "" && summary != "" {
			record.Summary = summary
			record.Statistics.CompressionRatio = ratio
		}
	}

	if s.embedder != nil {
		record.Statistics.Similarity = s.similarity(ctx, text, record.Summaries)
	}

	if err := s.store.Put(ctx, record); err != nil {
		return nil, fmt.Errorf("store analysis: %w", err)
	}

	if len(s.summarizers) > 0 && len(record.Errors) == len(s.summarizers) {
		return &record, fmt.Errorf("%w: %s", ErrSummarizationFailed, joinErrors(record.Errors))
	}
	return &record, nil
}

// Latest returns the current analysis.
func (s *AnalysisService) Latest(ctx context.Context) (*domain.AnalysisRecord, error) {
	return s.store.Get(ctx)
}

// summarize runs one backend over every segment. A failing segment is
// skipped; the backend fails only when every segment failed.
func (s *AnalysisService) summarize(ctx context.Context, sum driven.Summarizer, segments []string) (string, error) {
	parts := make([]string, 0, len(segments))
	var lastErr error
	failed := 0

	for i, seg := range segments {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		out, err := sum.Summarize(ctx, seg)
		if err != nil {
			failed++
			lastErr = err
			logger.Debug("Summarizer %s skipped segment %d: %v", sum.Name(), i, err)
			continue
		}
		if out = strings.TrimSpace(out); out != "" {
			parts = append(parts, out)
		}
	}

	if len(segments) > 0 && failed == len(segments) {
		return "", lastErr
	}
	return strings.Join(parts, " "), nil
}

// similarity embeds the head of the source text once and compares it to
// each non-empty summary. Embedding failures leave the score out.
func (s *AnalysisService) similarity(ctx context.Context, text string, summaries map[string]string) map[string]float64 {
	if len(summaries) == 0 || strings.TrimSpace(text) == "" {
		return nil
	}

	source, err := s.embedder.Embed(ctx, truncateRunes(text, similaritySourceChars))
	if err != nil {
		logger.Warn("Similarity skipped: embed source: %v", err)
		return nil
	}

	scores := make(map[string]float64, len(summaries))
	for name, summary := range summaries {
		if summary == "" {
			continue
		}
		vec, err := s.embedder.Embed(ctx, summary)
		if err != nil {
			logger.Warn("Similarity skipped for %s: %v", name, err)
			continue
		}
		scores[name] = domain.CosineSimilarity(source, vec)
	}
	return scores
}

func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func joinErrors(errs map[string]string) string {
	names := make([]string, 0, len(errs))
	for name := range errs {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+errs[name])
	}
	return strings.Join(parts, "; ")
}
