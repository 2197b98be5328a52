package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

var testTime = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

type fakeIngestService struct {
	uploaded []domain.Document
	ingested map[string]string
	failures []domain.LineFailure
	err      error
}

func (f *fakeIngestService) Upload(_ context.Context, doc domain.Document) (*driving.UploadResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.uploaded = append(f.uploaded, doc)
	lines := len(domain.NewExtractedText(doc.Name(), string(doc.Content)).Lines)
	return &driving.UploadResult{
		Filename: doc.Filename,
		TextFile: "extracted_texts/" + doc.Name() + ".txt",
		IngestResult: domain.IngestResult{
			DocumentName:   doc.Name(),
			Lines:          lines,
			RecordsWritten: lines - len(f.failures),
			Failures:       f.failures,
		},
	}, nil
}

func (f *fakeIngestService) Ingest(_ context.Context, name, text string) (*domain.IngestResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.ingested == nil {
		f.ingested = make(map[string]string)
	}
	f.ingested[name] = text
	lines := len(domain.NewExtractedText(name, text).Lines)
	return &domain.IngestResult{DocumentName: name, Lines: lines, RecordsWritten: lines}, nil
}

func (f *fakeIngestService) Supports(filename, _ string) bool {
	switch strings.ToLower(filename[strings.LastIndex(filename, ".")+1:]) {
	case "pdf", "txt", "md", "docx":
		return true
	}
	return false
}

type fakeAnswerService struct {
	asked []string
	err   error
}

func (f *fakeAnswerService) Answer(_ context.Context, q string) (*domain.Answer, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.asked = append(f.asked, q)
	return &domain.Answer{
		Question: q,
		Text:     "Revenue grew 12%.",
		Sources:  []domain.QueryMatch{testMatch("report", 4, 0.912, "Revenue grew 12% year on year.")},
	}, nil
}

type fakeAnalysisService struct {
	record *domain.AnalysisRecord
	err    error
}

func (f *fakeAnalysisService) Analyze(_ context.Context, filename, text string) (*domain.AnalysisRecord, error) {
	return &domain.AnalysisRecord{Filename: filename, Summary: text}, nil
}

func (f *fakeAnalysisService) Latest(_ context.Context) (*domain.AnalysisRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.record == nil {
		return nil, domain.ErrNotFound
	}
	return f.record, nil
}

type fakeVectorService struct {
	records   []domain.VectorRecord
	matches   []domain.QueryMatch
	lastTopK  int
	lastLimit int
	err       error
}

func (f *fakeVectorService) Dump(_ context.Context, limit int) ([]domain.VectorRecord, error) {
	f.lastLimit = limit
	return f.records, f.err
}

func (f *fakeVectorService) Search(_ context.Context, _ string, topK int) ([]domain.QueryMatch, error) {
	f.lastTopK = topK
	return f.matches, f.err
}

func (f *fakeVectorService) Count(_ context.Context) (int, error) {
	return len(f.records), f.err
}

type fakeDocumentService struct {
	docs []domain.DocumentRecord
	text map[string]string
}

func (f *fakeDocumentService) List(_ context.Context) ([]domain.DocumentRecord, error) {
	return f.docs, nil
}

func (f *fakeDocumentService) Get(_ context.Context, name string) (*domain.DocumentRecord, error) {
	for i := range f.docs {
		if f.docs[i].Name == name {
			return &f.docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeDocumentService) Text(_ context.Context, name string) (string, error) {
	text, ok := f.text[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return text, nil
}

type fakeSettingsService struct {
	settings     domain.AppSettings
	set          map[string]string
	embedding    []string
	llm          []string
	validateErr  error
	embeddingErr error
}

func newFakeSettingsService() *fakeSettingsService {
	return &fakeSettingsService{settings: domain.DefaultAppSettings(), set: make(map[string]string)}
}

func (f *fakeSettingsService) Get() (*domain.AppSettings, error) {
	s := f.settings
	return &s, nil
}

func (f *fakeSettingsService) Set(key, value string) error {
	if !strings.Contains(key, ".") {
		return domain.ErrInvalidInput
	}
	f.set[key] = value
	if key == "index.backend" {
		f.settings.Index.Backend = domain.IndexBackend(value)
	}
	return nil
}

func (f *fakeSettingsService) SetEmbeddingProvider(p domain.AIProvider, model, key string) error {
	f.embedding = []string{string(p), model, key}
	f.settings.Embedding = domain.EmbeddingSettings{Provider: p, Model: model, APIKey: key}
	return nil
}

func (f *fakeSettingsService) SetLLMProvider(p domain.AIProvider, model, key string) error {
	f.llm = []string{string(p), model, key}
	f.settings.LLM = domain.LLMSettings{Provider: p, Model: model, APIKey: key}
	return nil
}

func (f *fakeSettingsService) Validate() error                { return f.validateErr }
func (f *fakeSettingsService) ValidateEmbeddingConfig() error { return f.embeddingErr }
func (f *fakeSettingsService) ValidateLLMConfig() error       { return nil }
func (f *fakeSettingsService) Path() string                   { return "/home/test/.docqa/config.toml" }

func testMatch(doc string, line int, score float64, text string) domain.QueryMatch {
	return domain.QueryMatch{
		ID:         domain.RecordID(doc, line),
		Similarity: score,
		Metadata: map[string]any{
			domain.MetadataText:     text,
			domain.MetadataDocument: doc,
			domain.MetadataLine:     line,
		},
	}
}

// testServices holds the fakes installed by setupTestServices.
type testServices struct {
	ingest   *fakeIngestService
	answer   *fakeAnswerService
	analysis *fakeAnalysisService
	vectors  *fakeVectorService
	docs     *fakeDocumentService
	settings *fakeSettingsService
}

// setupTestServices installs fakes and resets flags. The returned func
// restores the previous state.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		ingest: &fakeIngestService{},
		answer: &fakeAnswerService{},
		analysis: &fakeAnalysisService{record: &domain.AnalysisRecord{
			Filename: "report.pdf",
			Summary:  "Revenue grew.",
			Summaries: map[string]string{
				"frequency": "Revenue grew.",
				"llm":       "The company grew revenue.",
			},
			Statistics: domain.AnalysisStatistics{
				WordCount:         120,
				SentenceCount:     8,
				CompressionRatio:  0.025,
				CompressionRatios: map[string]float64{"frequency": 0.025, "llm": 0.04},
				Similarity:        map[string]float64{"llm": 0.87},
			},
			CreatedAt: testTime,
		}},
		vectors: &fakeVectorService{
			records: []domain.VectorRecord{
				{ID: "report_line_0", Vector: []float32{0.1, 0.2, 0.3}, Metadata: map[string]any{
					domain.MetadataText: "Quarterly report", domain.MetadataDocument: "report", domain.MetadataLine: 0,
				}},
			},
			matches: []domain.QueryMatch{testMatch("report", 4, 0.912, "Revenue grew 12% year on year.")},
		},
		docs: &fakeDocumentService{
			docs: []domain.DocumentRecord{{
				Name: "report", Filename: "report.pdf", MIMEType: "application/pdf",
				Lines: 42, RecordsWritten: 40, Status: domain.IngestStatusSuccess,
				CreatedAt: testTime, UpdatedAt: testTime,
			}},
			text: map[string]string{"report": "Quarterly report\nRevenue grew 12% year on year."},
		},
		settings: newFakeSettingsService(),
	}

	prev := &Runtime{
		Ingest: ingestService, Answer: answerService, Analysis: analysisService,
		Vectors: vectorService, Documents: documentService, Settings: settingsService,
		Config: appSettings, Close: closeRuntime,
	}
	prevBootstrap := bootstrap

	bootstrap = nil
	SetServices(&Runtime{
		Ingest: ts.ingest, Answer: ts.answer, Analysis: ts.analysis,
		Vectors: ts.vectors, Documents: ts.docs, Settings: ts.settings,
	})
	resetFlags()

	return ts, func() {
		SetServices(prev)
		bootstrap = prevBootstrap
		resetFlags()
		rootCmd.SetIn(nil)
	}
}

func resetFlags() {
	verbose, configPath = false, ""
	ingestName, ingestText, ingestJSON = "", false, false
	askJSON, askSources = false, false
	searchLimit, searchJSON = 10, false
	vectorsLimit, vectorsJSON = 0, false
	analysisJSON, documentsJSON = false, false
	serveAddr, serveWatchDir = "", ""
}

// execute runs the root command with args and returns its output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

var errBoom = errors.New("boom")
