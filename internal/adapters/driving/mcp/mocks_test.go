package mcp

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	answer *domain.Answer
	err    error
}

func (m *mockAnswerService) Answer(_ context.Context, question string) (*domain.Answer, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.answer == nil {
		return &domain.Answer{Question: question}, nil
	}
	return m.answer, nil
}

// mockVectorService is a mock implementation of driving.VectorService.
type mockVectorService struct {
	matches  []domain.QueryMatch
	err      error
	lastTopK int
}

func (m *mockVectorService) Dump(_ context.Context, _ int) ([]domain.VectorRecord, error) {
	return nil, m.err
}

func (m *mockVectorService) Search(_ context.Context, _ string, topK int) ([]domain.QueryMatch, error) {
	m.lastTopK = topK
	return m.matches, m.err
}

func (m *mockVectorService) Count(_ context.Context) (int, error) {
	return 0, m.err
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

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	result   *domain.IngestResult
	err      error
	lastName string
	lastText string
}

func (m *mockIngestService) Upload(_ context.Context, _ domain.Document) (*driving.UploadResult, error) {
	return nil, m.err
}

func (m *mockIngestService) Ingest(_ context.Context, name, text string) (*domain.IngestResult, error) {
	m.lastName, m.lastText = name, text
	return m.result, m.err
}

func (m *mockIngestService) Supports(_, _ string) bool {
	return true
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	docs  []domain.DocumentRecord
	texts map[string]string
	err   error
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

func (m *mockDocumentService) Text(_ context.Context, name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	text, ok := m.texts[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return text, nil
}
