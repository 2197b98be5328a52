// Package api serves the HTTP JSON API used by the web frontend.
package api

import (
	"errors"

	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// ErrMissingService is returned when a required port is nil.
var ErrMissingService = errors.New("api: ingest, answer, analysis and vector services are required")

// Ports aggregates the driving ports the API calls.
type Ports struct {
	Ingest   driving.IngestService
	Answer   driving.AnswerService
	Analysis driving.AnalysisService
	Vectors  driving.VectorService

	// Document is optional; without it /documents answers 503.
	Document driving.DocumentService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Ingest == nil || p.Answer == nil || p.Analysis == nil || p.Vectors == nil {
		return ErrMissingService
	}
	return nil
}
