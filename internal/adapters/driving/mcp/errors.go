// Package mcp provides an MCP (Model Context Protocol) server adapter for docqa.
// It lets AI assistants ask questions about ingested documents and read the
// latest analysis.
package mcp

import "errors"

// ErrMissingAnswerService is returned when the answer service is not provided.
var ErrMissingAnswerService = errors.New("mcp: answer service is required")

// ErrMissingVectorService is returned when the vector service is not provided.
var ErrMissingVectorService = errors.New("mcp: vector service is required")
