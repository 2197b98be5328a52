package tui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// Mock implementations for testing.

type MockAnswerService struct {
	answer *domain.Answer
	err    error
	asked  []string
}

func (m *MockAnswerService) Answer(_ context.Context, question string) (*domain.Answer, error) {
	m.asked = append(m.asked, question)
	if m.err != nil {
		return nil, m.err
	}
	if m.answer != nil {
		return m.answer, nil
	}
	return &domain.Answer{Question: question, Text: "no answer"}, nil
}

type MockVectorService struct {
	matches []domain.QueryMatch
}

func (m *MockVectorService) Dump(_ context.Context, _ int) ([]domain.VectorRecord, error) {
	return nil, nil
}

func (m *MockVectorService) Search(_ context.Context, _ string, _ int) ([]domain.QueryMatch, error) {
	return m.matches, nil
}

func (m *MockVectorService) Count(_ context.Context) (int, error) {
	return len(m.matches), nil
}

type MockDocumentService struct {
	docs  []domain.DocumentRecord
	texts map[string]string
}

func (m *MockDocumentService) List(_ context.Context) ([]domain.DocumentRecord, error) {
	return m.docs, nil
}

func (m *MockDocumentService) Get(_ context.Context, name string) (*domain.DocumentRecord, error) {
	for i := range m.docs {
		if m.docs[i].Name == name {
			return &m.docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockDocumentService) Text(_ context.Context, name string) (string, error) {
	text, ok := m.texts[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return text, nil
}

type MockAnalysisService struct {
	record *domain.AnalysisRecord
}

func (m *MockAnalysisService) Analyze(_ context.Context, _, _ string) (*domain.AnalysisRecord, error) {
	return m.record, nil
}

func (m *MockAnalysisService) Latest(_ context.Context) (*domain.AnalysisRecord, error) {
	if m.record == nil {
		return nil, domain.ErrNotFound
	}
	return m.record, nil
}

func TestNewPorts(t *testing.T) {
	answer := &MockAnswerService{}
	vectors := &MockVectorService{}

	ports := NewPorts(answer, vectors)

	assert.Equal(t, answer, ports.Answer)
	assert.Equal(t, vectors, ports.Vectors)
	assert.Nil(t, ports.Document)
	assert.Nil(t, ports.Analysis)
	assert.Nil(t, ports.Settings)
}

func TestPorts_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ports   *Ports
		wantErr error
	}{
		{
			name:  "required ports set",
			ports: NewPorts(&MockAnswerService{}, &MockVectorService{}),
		},
		{
			name: "all ports set",
			ports: &Ports{
				Answer:   &MockAnswerService{},
				Vectors:  &MockVectorService{},
				Document: &MockDocumentService{},
				Analysis: &MockAnalysisService{},
			},
		},
		{
			name:    "missing answer",
			ports:   &Ports{Vectors: &MockVectorService{}},
			wantErr: ErrMissingAnswerService,
		},
		{
			name:    "missing vectors",
			ports:   &Ports{Answer: &MockAnswerService{}},
			wantErr: ErrMissingVectorService,
		},
		{
			name:    "nil ports",
			ports:   nil,
			wantErr: ErrInvalidPorts,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ports.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
