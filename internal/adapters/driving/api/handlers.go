package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// maxJSONBody caps JSON request bodies.
const maxJSONBody = 1 << 20

type uploadResponse struct {
	Message        string               `json:"message"`
	Filename       string               `json:"filename"`
	Status         domain.IngestStatus  `json:"status"`
	Lines          int                  `json:"lines"`
	RecordsWritten int                  `json:"records_written"`
	Failures       []domain.LineFailure `json:"failures"`
	TextFile       string               `json:"text_file"`
	AnalysisError  string               `json:"analysis_error,omitempty"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, fmt.Errorf("%w: upload exceeds %d bytes", domain.ErrInvalidInput, tooLarge.Limit))
			return
		}
		writeError(w, r, fmt.Errorf("%w: multipart field \"file\" is required", domain.ErrInvalidInput))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: reading upload: %v", domain.ErrInvalidInput, err))
		return
	}

	result, err := s.ports.Ingest.Upload(r.Context(), domain.Document{
		Filename: header.Filename,
		MIMEType: header.Header.Get("Content-Type"),
		Content:  content,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	failures := result.Failures
	if failures == nil {
		failures = []domain.LineFailure{}
	}
	msg := "PDF processed and text file saved"
	if !result.Success() {
		msg = fmt.Sprintf("%d of %d lines failed to index", len(result.Failures), result.Lines)
	}
	writeJSON(w, http.StatusOK, uploadResponse{
		Message:        msg,
		Filename:       result.Filename,
		Status:         result.Status(),
		Lines:          result.Lines,
		RecordsWritten: result.RecordsWritten,
		Failures:       failures,
		TextFile:       result.TextFile,
		AnalysisError:  result.AnalysisError,
	})
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	record, err := s.ports.Analysis.Latest(r.Context())
	if errors.Is(err, domain.ErrNotFound) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "No analysis available yet."})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	// The frontend expects the record as a JSON string.
	body, err := json.Marshal(record)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"analysis": string(body)})
}

type askRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleAskQuestion(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, r, fmt.Errorf("%w: question is required", domain.ErrInvalidInput))
		return
	}

	answer, err := s.ports.Answer.Answer(r.Context(), req.Question)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"answer": answer.Text})
}

func (s *Server) handleGetVectors(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.DumpLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, r, fmt.Errorf("%w: limit must be a non-negative integer", domain.ErrInvalidInput))
			return
		}
		limit = n
	}

	records, err := s.ports.Vectors.Dump(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if records == nil {
		records = []domain.VectorRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"vectors": records})
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, r, fmt.Errorf("%w: query is required", domain.ErrInvalidInput))
		return
	}

	matches, err := s.ports.Vectors.Search(r.Context(), req.Query, req.TopK)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if matches == nil {
		matches = []domain.QueryMatch{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": matches})
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	if s.ports.Document == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "document registry not configured"})
		return
	}
	docs, err := s.ports.Document.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if docs == nil {
		docs = []domain.DocumentRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	if s.ports.Document == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "document registry not configured"})
		return
	}
	doc, err := s.ports.Document.Get(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", domain.ErrInvalidInput, err)
	}
	return nil
}
