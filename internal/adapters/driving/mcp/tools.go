package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// defaultSearchLimit applies when the caller omits top_k.
const defaultSearchLimit = 5

// AskInput is the input schema for the ask_question tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the ingested documents"`
}

// AskOutput is the output schema for the ask_question tool.
type AskOutput struct {
	Answer  string         `json:"answer"`
	Sources []SourceOutput `json:"sources"`
}

// SourceOutput is one retrieved line used as context.
type SourceOutput struct {
	ID       string  `json:"id"`
	Document string  `json:"document,omitempty"`
	Line     int     `json:"line"`
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"text to find similar lines for"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"maximum number of matches to return (default 5)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Matches []SourceOutput `json:"matches"`
	Count   int            `json:"count"`
}

// AnalysisInput is the (empty) input schema for the get_analysis tool.
type AnalysisInput struct{}

// AnalysisOutput is the output schema for the get_analysis tool.
type AnalysisOutput struct {
	Available bool                   `json:"available"`
	Analysis  *domain.AnalysisRecord `json:"analysis,omitempty"`
}

// IngestInput is the input schema for the ingest_text tool.
type IngestInput struct {
	Name string `json:"name" jsonschema:"document name used as the record id prefix"`
	Text string `json:"text" jsonschema:"plain text to index, one record per line"`
}

// IngestOutput is the output schema for the ingest_text tool.
type IngestOutput struct {
	Status         domain.IngestStatus  `json:"status"`
	Lines          int                  `json:"lines"`
	RecordsWritten int                  `json:"records_written"`
	Failures       []domain.LineFailure `json:"failures,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_question",
		Description: "Answer a question using the ingested documents as context",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Find the indexed lines most similar to a query",
	}, s.handleSearch)

	if s.ports.Analysis != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "get_analysis",
			Description: "Return the summary and statistics of the last ingested document",
		}, s.handleAnalysis)
	}

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest_text",
			Description: "Index plain text as a named document",
		}, s.handleIngest)
	}
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if strings.TrimSpace(input.Question) == "" {
		return nil, AskOutput{}, fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}

	answer, err := s.ports.Answer.Answer(ctx, input.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Answer:  answer.Text,
		Sources: toSources(answer.Sources),
	}, nil
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	topK := input.TopK
	if topK <= 0 {
		topK = defaultSearchLimit
	}

	matches, err := s.ports.Vectors.Search(ctx, input.Query, topK)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	return nil, SearchOutput{
		Matches: toSources(matches),
		Count:   len(matches),
	}, nil
}

func (s *Server) handleAnalysis(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ AnalysisInput,
) (*mcp.CallToolResult, AnalysisOutput, error) {
	record, err := s.ports.Analysis.Latest(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, AnalysisOutput{}, nil
		}
		return nil, AnalysisOutput{}, err
	}
	return nil, AnalysisOutput{Available: true, Analysis: record}, nil
}

func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	result, err := s.ports.Ingest.Ingest(ctx, input.Name, input.Text)
	if err != nil {
		return nil, IngestOutput{}, err
	}
	return nil, IngestOutput{
		Status:         result.Status(),
		Lines:          result.Lines,
		RecordsWritten: result.RecordsWritten,
		Failures:       result.Failures,
	}, nil
}

func toSources(matches []domain.QueryMatch) []SourceOutput {
	out := make([]SourceOutput, len(matches))
	for i, m := range matches {
		out[i] = SourceOutput{
			ID:       m.ID,
			Document: m.Document(),
			Line:     m.Line(),
			Text:     m.Text(),
			Score:    m.Similarity,
		}
	}
	return out
}
