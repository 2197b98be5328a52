package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// ErrUploadNotConfigured is returned by Upload when the service was built
// without extractors or an artifact store.
var ErrUploadNotConfigured = errors.New("upload pipeline not configured")

// IngestService indexes document lines and refreshes the analysis.
type IngestService struct {
	embedder  driven.EmbeddingService
	index     driven.VectorIndex
	analysis  driving.AnalysisService
	namespace string
	workers   int

	extractors driven.ExtractorRegistry
	artifacts  driven.ArtifactStore
	documents  driven.DocumentStore

	now func() time.Time
}

// NewIngestService creates a new ingest service. A namespace of "" uses
// domain.DefaultNamespace and workers <= 0 uses domain.DefaultWorkers.
func NewIngestService(
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	analysis driving.AnalysisService,
	namespace string,
	workers int,
) *IngestService {
	if namespace == "" {
		namespace = domain.DefaultNamespace
	}
	if workers <= 0 {
		workers = domain.DefaultWorkers
	}
	return &IngestService{
		embedder:  embedder,
		index:     index,
		analysis:  analysis,
		namespace: namespace,
		workers:   workers,
		now:       time.Now,
	}
}

// SetExtractors sets the registry used by Upload.
func (s *IngestService) SetExtractors(r driven.ExtractorRegistry) {
	s.extractors = r
}

// SetArtifactStore sets where uploads and extracted text are written.
func (s *IngestService) SetArtifactStore(a driven.ArtifactStore) {
	s.artifacts = a
}

// SetDocumentStore sets the document registry.
func (s *IngestService) SetDocumentStore(d driven.DocumentStore) {
	s.documents = d
}

// Supports reports whether Upload can extract the file.
func (s *IngestService) Supports(filename, mimeType string) bool {
	return s.extractors != nil && s.extractors.Supports(filename, mimeType)
}

// Upload persists the document, extracts its text and ingests it under the
// filename stem.
func (s *IngestService) Upload(ctx context.Context, doc domain.Document) (*driving.UploadResult, error) {
	name := doc.Name()
	if name == "" {
		return nil, fmt.Errorf("filename is required: %w", domain.ErrInvalidInput)
	}
	if s.extractors == nil || s.artifacts == nil {
		return nil, ErrUploadNotConfigured
	}

	logger.Section("Upload")
	logger.Info("Uploading %s (%d bytes)", doc.Filename, len(doc.Content))

	if _, err := s.artifacts.SaveUpload(doc.Filename, doc.Content); err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}

	done := logger.Timed("extract")
	extracted, err := s.extractors.Extract(ctx, doc)
	done()
	if err != nil {
		return nil, err
	}

	text := extracted.Text()
	textPath, err := s.artifacts.SaveText(doc.Filename, text)
	if err != nil {
		return nil, fmt.Errorf("save extracted text: %w", err)
	}

	filename := filepath.Base(doc.Filename)
	result, err := s.ingest(ctx, name, filename, text)
	if err != nil {
		return nil, err
	}

	s.register(ctx, domain.DocumentRecord{
		Name:     name,
		Filename: filename,
		MIMEType: doc.MIMEType,
		TextPath: textPath,
	}, result)

	return &driving.UploadResult{
		Filename:     filename,
		TextFile:     textPath,
		IngestResult: *result,
	}, nil
}

// Ingest indexes text under documentName and recomputes the analysis.
func (s *IngestService) Ingest(ctx context.Context, documentName string, text string) (*domain.IngestResult, error) {
	result, err := s.ingest(ctx, documentName, documentName, text)
	if err != nil {
		return nil, err
	}

	s.register(ctx, domain.DocumentRecord{
		Name:     documentName,
		Filename: documentName,
		MIMEType: "text/plain",
	}, result)

	return result, nil
}

// ingest runs the indexing and analysis branches concurrently. Both always
// run to completion; an analysis failure is reported without touching the
// indexing outcome. Record ids use documentName; the analysis is filed
// under filename.
func (s *IngestService) ingest(ctx context.Context, documentName, filename, text string) (*domain.IngestResult, error) {
	documentName = strings.TrimSpace(documentName)
	if documentName == "" {
		return nil, fmt.Errorf("document name is required: %w", domain.ErrInvalidInput)
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.index == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}

	logger.Section("Ingest")
	extracted := domain.NewExtractedText(documentName, text)
	logger.Info("Ingesting %s: %d lines, %d non-blank", documentName, len(extracted.Lines), extracted.NonBlankLines())

	var (
		wg          sync.WaitGroup
		analysisErr error
	)
	if s.analysis != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, analysisErr = s.analysis.Analyze(ctx, filename, text)
		}()
	}

	written, failures := s.indexLines(ctx, extracted)
	wg.Wait()

	result := &domain.IngestResult{
		DocumentName:   documentName,
		Lines:          len(extracted.Lines),
		RecordsWritten: written,
		Failures:       failures,
	}
	if analysisErr != nil {
		logger.Error("Analysis of %s failed: %v", documentName, analysisErr)
		result.AnalysisError = analysisErr.Error()
	}

	logger.Info("Ingested %s: %d records written, %d failed", documentName, written, len(failures))
	return result, nil
}

type lineJob struct {
	index int
	text  string
}

// indexLines embeds and upserts every non-blank line with a bounded worker
// pool. Each line is attributed its own failure. Once ctx is done, lines
// not yet started are failed with the context error.
func (s *IngestService) indexLines(ctx context.Context, extracted domain.ExtractedText) (int, []domain.LineFailure) {
	defer logger.Timed("index")()

	jobs := make(chan lineJob)
	var (
		mu       sync.Mutex
		written  int
		failures []domain.LineFailure
		wg       sync.WaitGroup
	)

	fail := func(job lineJob, id string, err error) {
		mu.Lock()
		failures = append(failures, domain.LineFailure{LineIndex: job.index, RecordID: id, Reason: err.Error()})
		mu.Unlock()
	}

	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				id := domain.RecordID(extracted.DocumentName, job.index)
				if err := ctx.Err(); err != nil {
					fail(job, id, err)
					continue
				}
				if err := s.indexLine(ctx, extracted.DocumentName, id, job); err != nil {
					logger.Error("Upsert %s failed: %v", id, err)
					fail(job, id, err)
					continue
				}
				mu.Lock()
				written++
				mu.Unlock()
			}
		}()
	}

	for i, line := range extracted.Lines {
		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}
		jobs <- lineJob{index: i, text: text}
	}
	close(jobs)
	wg.Wait()

	sort.Slice(failures, func(i, j int) bool { return failures[i].LineIndex < failures[j].LineIndex })
	return written, failures
}

func (s *IngestService) indexLine(ctx context.Context, documentName, id string, job lineJob) error {
	vec, err := s.embedder.Embed(ctx, job.text)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}

	record := domain.VectorRecord{
		ID:     id,
		Vector: vec,
		Metadata: map[string]any{
			domain.MetadataText:     job.text,
			domain.MetadataDocument: documentName,
			domain.MetadataLine:     job.index,
		},
		Namespace: s.namespace,
	}
	if err := s.index.Upsert(ctx, s.namespace, record); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	return nil
}

// register records the ingestion in the document registry. A registry
// failure is logged and does not fail the ingestion.
func (s *IngestService) register(ctx context.Context, record domain.DocumentRecord, result *domain.IngestResult) {
	if s.documents == nil {
		return
	}

	now := s.now().UTC()
	record.CreatedAt = now
	if prev, err := s.documents.Get(ctx, record.Name); err == nil {
		record.CreatedAt = prev.CreatedAt
		if record.TextPath == "" {
			record.TextPath = prev.TextPath
		}
	}
	record.UpdatedAt = now
	record.Lines = result.Lines
	record.RecordsWritten = result.RecordsWritten
	record.Status = result.Status()

	if err := s.documents.Save(ctx, record); err != nil {
		logger.Error("Register document %s: %v", record.Name, err)
	}
}
