package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService returns a deterministic vector per text.
type mockEmbeddingService struct {
	mu      sync.Mutex
	vectors map[string][]float32
	failOn  map[string]error
	calls   []string
	embedFn func(ctx context.Context, text string) ([]float32, error)
}

func (m *mockEmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	err := m.failOn[text]
	vec, ok := m.vectors[text]
	fn := m.embedFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, text)
	}
	if err != nil {
		return nil, err
	}
	if ok {
		return vec, nil
	}
	return []float32{float32(len(text)), 1}, nil
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbeddingService) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockEmbeddingService) Dimensions() int              { return 2 }
func (m *mockEmbeddingService) ModelName() string            { return "mock-embed" }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error                 { return nil }

// mockVectorIndex is a namespaced map with brute-force cosine queries.
type mockVectorIndex struct {
	mu        sync.Mutex
	records   map[string]map[string]domain.VectorRecord
	upserts   int
	upsertErr map[string]error
	queryErr  error
	lastQuery domain.QueryOptions
}

func newMockVectorIndex() *mockVectorIndex {
	return &mockVectorIndex{records: make(map[string]map[string]domain.VectorRecord)}
}

func (m *mockVectorIndex) EnsureIndex(_ context.Context, _ int) error { return nil }

func (m *mockVectorIndex) Upsert(_ context.Context, ns string, rec domain.VectorRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.upsertErr[rec.ID]; err != nil {
		return err
	}
	if m.records[ns] == nil {
		m.records[ns] = make(map[string]domain.VectorRecord)
	}
	m.records[ns][rec.ID] = rec
	m.upserts++
	return nil
}

func (m *mockVectorIndex) Query(_ context.Context, ns string, vec []float32, opts domain.QueryOptions) ([]domain.QueryMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastQuery = opts
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	var out []domain.QueryMatch
	for _, r := range m.records[ns] {
		out = append(out, domain.QueryMatch{
			ID:         r.ID,
			Similarity: domain.CosineSimilarity(vec, r.Vector),
			Metadata:   r.Metadata,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Similarity == out[j].Similarity {
			return out[i].ID < out[j].ID
		}
		return out[i].Similarity > out[j].Similarity
	})
	if len(out) > opts.TopK {
		out = out[:opts.TopK]
	}
	return out, nil
}

func (m *mockVectorIndex) List(_ context.Context, ns string, limit int) ([]domain.VectorRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.VectorRecord
	for _, r := range m.records[ns] {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockVectorIndex) Count(_ context.Context, ns string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records[ns]), nil
}

func (m *mockVectorIndex) Close() error { return nil }

func (m *mockVectorIndex) ids(ns string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id := range m.records[ns] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// mockLLMService records the last chat request.
type mockLLMService struct {
	mu       sync.Mutex
	response string
	err      error
	messages []driven.ChatMessage
	opts     driven.GenerateOptions
	calls    int
}

func (m *mockLLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	return m.Chat(ctx, []driven.ChatMessage{{Role: driven.RoleUser, Content: prompt}}, opts)
}

func (m *mockLLMService) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.messages = messages
	m.opts = opts
	return m.response, m.err
}

func (m *mockLLMService) ModelName() string            { return "mock-llm" }
func (m *mockLLMService) Ping(_ context.Context) error { return nil }
func (m *mockLLMService) Close() error                 { return nil }

// mockPromptStore serves fixed templates.
type mockPromptStore struct {
	prompts map[string]string
}

func newMockPromptStore() *mockPromptStore {
	return &mockPromptStore{prompts: map[string]string{
		driven.PromptAnswerSystem: "system",
		driven.PromptAnswerUser:   "Context:\n%s\n\nQuestion: %s",
		driven.PromptSummarize:    "Summarise: %s",
	}}
}

func (m *mockPromptStore) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", fmt.Errorf("prompt %s: %w", name, domain.ErrNotFound)
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// mockAnalysisStore is a single slot.
type mockAnalysisStore struct {
	mu     sync.Mutex
	record *domain.AnalysisRecord
	putErr error
}

func (m *mockAnalysisStore) Put(_ context.Context, rec domain.AnalysisRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.record = &rec
	return nil
}

func (m *mockAnalysisStore) Get(_ context.Context) (*domain.AnalysisRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.record == nil {
		return nil, domain.ErrNotFound
	}
	rec := *m.record
	return &rec, nil
}

// mockSummarizer fails on segments containing failOn.
type mockSummarizer struct {
	name   string
	failOn string
	err    error
}

func (m *mockSummarizer) Name() string { return m.name }

func (m *mockSummarizer) Summarize(_ context.Context, text string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if m.failOn != "" && strings.Contains(text, m.failOn) {
		return "", errors.New("cannot summarise")
	}
	fields := strings.Fields(text)
	if len(fields) > 2 {
		fields = fields[:2]
	}
	return strings.Join(fields, " "), nil
}

// passthroughPipeline returns the whole text as one segment.
type passthroughPipeline struct{}

func (passthroughPipeline) Process(_ context.Context, text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return []string{text}, nil
}

// mockAnalysisService counts calls.
type mockAnalysisService struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (m *mockAnalysisService) Analyze(_ context.Context, filename, _ string) (*domain.AnalysisRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, filename)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.AnalysisRecord{Filename: filename}, nil
}

func (m *mockAnalysisService) Latest(_ context.Context) (*domain.AnalysisRecord, error) {
	return nil, domain.ErrNotFound
}

// mockDocumentStore keeps records by name.
type mockDocumentStore struct {
	mu   sync.Mutex
	docs map[string]domain.DocumentRecord
}

func newMockDocumentStore() *mockDocumentStore {
	return &mockDocumentStore{docs: make(map[string]domain.DocumentRecord)}
}

func (m *mockDocumentStore) Save(_ context.Context, rec domain.DocumentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[rec.Name] = rec
	return nil
}

func (m *mockDocumentStore) Get(_ context.Context, name string) (*domain.DocumentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.docs[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

func (m *mockDocumentStore) List(_ context.Context) ([]domain.DocumentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.DocumentRecord, 0, len(m.docs))
	for _, d := range m.docs {
		out = append(out, d)
	}
	return out, nil
}

// mockExtractorRegistry returns fixed text for supported extensions.
type mockExtractorRegistry struct {
	text string
	err  error
}

func (m *mockExtractorRegistry) Extract(_ context.Context, doc domain.Document) (domain.ExtractedText, error) {
	if m.err != nil {
		return domain.ExtractedText{}, m.err
	}
	return domain.NewExtractedText(doc.Name(), m.text), nil
}

func (m *mockExtractorRegistry) Register(driven.TextExtractor) {}

func (m *mockExtractorRegistry) Supports(filename, _ string) bool {
	return strings.HasSuffix(filename, ".pdf")
}

// mockArtifactStore keeps artifacts in memory.
type mockArtifactStore struct {
	mu      sync.Mutex
	uploads map[string][]byte
	texts   map[string]string
}

func newMockArtifactStore() *mockArtifactStore {
	return &mockArtifactStore{uploads: map[string][]byte{}, texts: map[string]string{}}
}

func (m *mockArtifactStore) SaveUpload(filename string, content []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads[filename] = content
	return "uploads/" + filename, nil
}

func (m *mockArtifactStore) SaveText(filename, text string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts[domain.DocumentName(filename)] = text
	return "texts/" + domain.DocumentName(filename) + ".txt", nil
}

func (m *mockArtifactStore) LoadText(filename string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.texts[domain.DocumentName(filename)]
	if !ok {
		return "", domain.ErrNotFound
	}
	return t, nil
}

// mockConfigStore is an in-memory driven.ConfigStore.
type mockConfigStore struct {
	data map[string]any
}

func newMockConfigStore() *mockConfigStore {
	return &mockConfigStore{data: make(map[string]any)}
}

func (m *mockConfigStore) Get(key string) (any, bool) {
	v, ok := m.data[key]
	return v, ok
}

func (m *mockConfigStore) GetString(key string) string {
	s, _ := m.data[key].(string)
	return s
}

func (m *mockConfigStore) GetInt(key string) int {
	switch v := m.data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}

func (m *mockConfigStore) GetFloat(key string) float64 {
	f, _ := m.data[key].(float64)
	return f
}

func (m *mockConfigStore) GetBool(key string) bool {
	b, _ := m.data[key].(bool)
	return b
}

func (m *mockConfigStore) GetStringSlice(key string) []string {
	s, _ := m.data[key].([]string)
	return s
}

func (m *mockConfigStore) Set(key string, value any) error {
	m.data[key] = value
	return nil
}

func (m *mockConfigStore) Save() error  { return nil }
func (m *mockConfigStore) Load() error  { return nil }
func (m *mockConfigStore) Path() string { return "/tmp/docqa/config.toml" }

// mockAIValidator records validations.
type mockAIValidator struct {
	embedErr error
	llmErr   error
}

func (m *mockAIValidator) ValidateEmbedding(*domain.EmbeddingSettings) error { return m.embedErr }
func (m *mockAIValidator) ValidateLLM(*domain.LLMSettings) error             { return m.llmErr }
