package api

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	result *driving.UploadResult
	err    error
	got    domain.Document
	panics bool
}

func (m *mockIngestService) Upload(_ context.Context, doc domain.Document) (*driving.UploadResult, error) {
	if m.panics {
		panic("boom")
	}
	m.got = doc
	return m.result, m.err
}

func (m *mockIngestService) Ingest(_ context.Context, _ string, _ string) (*domain.IngestResult, error) {
	if m.result == nil {
		return nil, m.err
	}
	return &m.result.IngestResult, m.err
}

func (m *mockIngestService) Supports(_, _ string) bool {
	return true
}

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	text     string
	err      error
	question string
}

func (m *mockAnswerService) Answer(_ context.Context, question string) (*domain.Answer, error) {
	m.question = question
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Answer{Question: question, Text: m.text}, nil
}

// mockAnalysisService is a mock implementation of driving.AnalysisService.
type mockAnalysisService struct {
	record *domain.AnalysisRecord
	err    error
}

func (m *mockAnalysisService) Analyze(_ context.Context, _, _ string) (*domain.AnalysisRecord, error) {
	return m.record, m.err
}

func (m *mockAnalysisService) Latest(_ context.Context) (*domain.AnalysisRecord, error) {
	return m.record, m.err
}

// mockVectorService is a mock implementation of driving.VectorService.
type mockVectorService struct {
	records   []domain.VectorRecord
	matches   []domain.QueryMatch
	err       error
	lastLimit int
	lastTopK  int
}

func (m *mockVectorService) Dump(_ context.Context, limit int) ([]domain.VectorRecord, error) {
	m.lastLimit = limit
	return m.records, m.err
}

func (m *mockVectorService) Search(_ context.Context, _ string, topK int) ([]domain.QueryMatch, error) {
	m.lastTopK = topK
	return m.matches, m.err
}

func (m *mockVectorService) Count(_ context.Context) (int, error) {
	return len(m.records), m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	docs []domain.DocumentRecord
	err  error
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.DocumentRecord, error) {
	return m.docs, m.err
}

func (m *mockDocumentService) Get(_ context.Context, name string) (*domain.DocumentRecord, error) {
	for i := range m.docs {
		if m.docs[i].Name == name {
			return &m.docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) Text(_ context.Context, _ string) (string, error) {
	return "", m.err
}
