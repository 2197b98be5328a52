package mcp

import (
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// Answer answers questions over the indexed lines.
	Answer driving.AnswerService

	// Vectors runs raw similarity searches.
	Vectors driving.VectorService

	// Analysis exposes the latest summary. Optional.
	Analysis driving.AnalysisService

	// Ingest indexes text sent by the assistant. Optional.
	Ingest driving.IngestService

	// Document lists ingested documents. Optional.
	Document driving.DocumentService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Answer == nil {
		return ErrMissingAnswerService
	}
	if p.Vectors == nil {
		return ErrMissingVectorService
	}
	return nil
}
