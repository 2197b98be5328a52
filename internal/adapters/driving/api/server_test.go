package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

type testPorts struct {
	ingest   *mockIngestService
	answer   *mockAnswerService
	analysis *mockAnalysisService
	vectors  *mockVectorService
	docs     *mockDocumentService
}

func newTestServer(t *testing.T, cfg Config) (*Server, *testPorts) {
	t.Helper()
	p := &testPorts{
		ingest:   &mockIngestService{},
		answer:   &mockAnswerService{},
		analysis: &mockAnalysisService{err: domain.ErrNotFound},
		vectors:  &mockVectorService{},
		docs:     &mockDocumentService{},
	}
	s, err := NewServer(&Ports{
		Ingest:   p.ingest,
		Answer:   p.answer,
		Analysis: p.analysis,
		Vectors:  p.vectors,
		Document: p.docs,
	}, cfg)
	require.NoError(t, err)
	return s, p
}

func do(t *testing.T, s *Server, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	var body map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func uploadRequest(t *testing.T, path, field, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestNewServer_RequiresPorts(t *testing.T) {
	_, err := NewServer(&Ports{}, Config{})
	assert.ErrorIs(t, err, ErrMissingService)

	_, err = NewServer(nil, Config{})
	assert.ErrorIs(t, err, ErrMissingService)
}

func TestUpload(t *testing.T) {
	for _, path := range []string{"/upload_pdf", "/upload"} {
		t.Run(path, func(t *testing.T) {
			s, p := newTestServer(t, Config{})
			p.ingest.result = &driving.UploadResult{
				Filename: "report.pdf",
				TextFile: "extracted_texts/report.txt",
				IngestResult: domain.IngestResult{
					DocumentName:   "report",
					Lines:          3,
					RecordsWritten: 2,
				},
			}

			rec, body := do(t, s, uploadRequest(t, path, "file", "report.pdf", []byte("%PDF-1.4")))

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "Success", body["status"])
			assert.Equal(t, "report.pdf", body["filename"])
			assert.Equal(t, float64(2), body["records_written"])
			assert.Equal(t, "extracted_texts/report.txt", body["text_file"])
			assert.Equal(t, []any{}, body["failures"])
			assert.NotContains(t, body, "analysis_error")
			assert.Equal(t, "report.pdf", p.ingest.got.Filename)
			assert.Equal(t, []byte("%PDF-1.4"), p.ingest.got.Content)
		})
	}
}

func TestUpload_ReportsFailures(t *testing.T) {
	s, p := newTestServer(t, Config{})
	p.ingest.result = &driving.UploadResult{
		Filename: "report.pdf",
		IngestResult: domain.IngestResult{
			Lines:          2,
			RecordsWritten: 1,
			Failures:       []domain.LineFailure{{LineIndex: 1, RecordID: "report_line_1", Reason: "timeout"}},
			AnalysisError:  "summarization failed",
		},
	}

	rec, body := do(t, s, uploadRequest(t, "/upload_pdf", "file", "report.pdf", []byte("x")))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Failed", body["status"])
	assert.Equal(t, "summarization failed", body["analysis_error"])
	failures := body["failures"].([]any)
	require.Len(t, failures, 1)
	assert.Equal(t, "report_line_1", failures[0].(map[string]any)["record_id"])
}

func TestUpload_Errors(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		field      string
		filename   string
		body       []byte
		cfg        Config
		wantStatus int
	}{
		{
			name:       "missing file field",
			field:      "other",
			filename:   "a.pdf",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "too large",
			field:      "file",
			filename:   "a.pdf",
			body:       bytes.Repeat([]byte("x"), 4096),
			cfg:        Config{MaxUploadBytes: 1024},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unsupported type",
			serviceErr: fmt.Errorf("extract: %w", domain.ErrUnsupportedType),
			field:      "file",
			filename:   "a.exe",
			wantStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:       "extraction failed",
			serviceErr: fmt.Errorf("pdftotext failed: %w", domain.ErrExtraction),
			field:      "file",
			filename:   "a.pdf",
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "server fault",
			serviceErr: errors.New("upload pipeline not configured"),
			field:      "file",
			filename:   "a.pdf",
			wantStatus: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, p := newTestServer(t, tt.cfg)
			p.ingest.err = tt.serviceErr
			content := tt.body
			if content == nil {
				content = []byte("x")
			}

			rec, body := do(t, s, uploadRequest(t, "/upload_pdf", tt.field, tt.filename, content))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestUpload_WrongMethod(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	rec, _ := do(t, s, httptest.NewRequest(http.MethodGet, "/upload_pdf", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAnalysis(t *testing.T) {
	t.Run("before first ingestion", func(t *testing.T) {
		s, _ := newTestServer(t, Config{})

		rec, body := do(t, s, httptest.NewRequest(http.MethodGet, "/analysis", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "No analysis available yet.", body["message"])
	})

	t.Run("returns record as JSON string", func(t *testing.T) {
		s, p := newTestServer(t, Config{})
		p.analysis.err = nil
		p.analysis.record = &domain.AnalysisRecord{
			Filename: "report.pdf",
			Summary:  "Short.",
			Statistics: domain.AnalysisStatistics{
				WordCount:        100,
				SentenceCount:    5,
				CompressionRatio: 0.1,
			},
		}

		rec, body := do(t, s, httptest.NewRequest(http.MethodGet, "/analysis", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		raw, ok := body["analysis"].(string)
		require.True(t, ok)
		var decoded domain.AnalysisRecord
		require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
		assert.Equal(t, "Short.", decoded.Summary)
		assert.Equal(t, 100, decoded.Statistics.WordCount)
	})

	t.Run("store failure", func(t *testing.T) {
		s, p := newTestServer(t, Config{})
		p.analysis.err = errors.New("disk gone")

		rec, _ := do(t, s, httptest.NewRequest(http.MethodGet, "/analysis", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestAskQuestion(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
		wantAnswer string
	}{
		{name: "answers", body: `{"question":"What is it?"}`, wantStatus: http.StatusOK, wantAnswer: "It is a test."},
		{name: "empty question", body: `{"question":"   "}`, wantStatus: http.StatusBadRequest},
		{name: "invalid json", body: `{`, wantStatus: http.StatusBadRequest},
		{name: "llm unavailable", body: `{"question":"q"}`, serviceErr: domain.ErrLLMUnavailable, wantStatus: http.StatusServiceUnavailable},
		{name: "embedding unavailable", body: `{"question":"q"}`, serviceErr: fmt.Errorf("embed question: %w", domain.ErrEmbeddingUnavailable), wantStatus: http.StatusServiceUnavailable},
		{name: "rate limited", body: `{"question":"q"}`, serviceErr: domain.ErrRateLimited, wantStatus: http.StatusTooManyRequests},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, p := newTestServer(t, Config{})
			p.answer.text = "It is a test."
			p.answer.err = tt.serviceErr

			rec, body := do(t, s, jsonRequest(http.MethodPost, "/ask_question", tt.body))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantAnswer != "" {
				assert.Equal(t, tt.wantAnswer, body["answer"])
				assert.Equal(t, "What is it?", p.answer.question)
			} else {
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestGetVectors(t *testing.T) {
	s, p := newTestServer(t, Config{DumpLimit: 50})
	p.vectors.records = []domain.VectorRecord{{
		ID:       "doc_line_0",
		Vector:   []float32{0.5, 0.25},
		Metadata: map[string]any{"text": "Hello"},
	}}

	rec, body := do(t, s, httptest.NewRequest(http.MethodGet, "/get_vectors", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 50, p.vectors.lastLimit)
	vectors := body["vectors"].([]any)
	require.Len(t, vectors, 1)
	v := vectors[0].(map[string]any)
	assert.Equal(t, "doc_line_0", v["id"])
	assert.Equal(t, []any{0.5, 0.25}, v["values"])
	assert.Equal(t, "Hello", v["metadata"].(map[string]any)["text"])

	rec, _ = do(t, s, httptest.NewRequest(http.MethodGet, "/get_vectors?limit=7", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, p.vectors.lastLimit)

	rec, _ = do(t, s, httptest.NewRequest(http.MethodGet, "/get_vectors?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetVectors_EmptyIsArray(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	rec, _ := do(t, s, httptest.NewRequest(http.MethodGet, "/get_vectors", nil))

	assert.JSONEq(t, `{"vectors":[]}`, rec.Body.String())
}

func TestSearch(t *testing.T) {
	s, p := newTestServer(t, Config{})
	p.vectors.matches = []domain.QueryMatch{{ID: "a", Similarity: 0.9, Metadata: map[string]any{"text": "hit"}}}

	rec, body := do(t, s, jsonRequest(http.MethodPost, "/search", `{"query":"hit","top_k":2}`))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, p.vectors.lastTopK)
	matches := body["matches"].([]any)
	require.Len(t, matches, 1)
	assert.Equal(t, 0.9, matches[0].(map[string]any)["score"])

	rec, _ = do(t, s, jsonRequest(http.MethodPost, "/search", `{"query":""}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocuments(t *testing.T) {
	s, p := newTestServer(t, Config{})
	p.docs.docs = []domain.DocumentRecord{{Name: "report", Filename: "report.pdf", Status: domain.IngestStatusSuccess}}

	rec, body := do(t, s, httptest.NewRequest(http.MethodGet, "/documents", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["documents"], 1)

	rec, body = do(t, s, httptest.NewRequest(http.MethodGet, "/documents/report", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "report.pdf", body["filename"])

	rec, _ = do(t, s, httptest.NewRequest(http.MethodGet, "/documents/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	rec, body := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrInvalidInput, http.StatusBadRequest},
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrUnsupportedType, http.StatusUnsupportedMediaType},
		{domain.ErrExtraction, http.StatusUnprocessableEntity},
		{domain.ErrRateLimited, http.StatusTooManyRequests},
		{domain.ErrEmbeddingUnavailable, http.StatusServiceUnavailable},
		{domain.ErrLLMUnavailable, http.StatusServiceUnavailable},
		{domain.ErrVectorIndexUnavailable, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(fmt.Errorf("wrapped: %w", tt.err)))
		})
	}
}

func TestServe_GracefulShutdown(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
