// Package tui provides an interactive terminal user interface for docqa.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Answer answers questions against the index.
	Answer driving.AnswerService

	// Vectors runs raw similarity searches.
	Vectors driving.VectorService

	// Document reads the registry of ingested documents.
	Document driving.DocumentService

	// Analysis reads the latest document analysis.
	Analysis driving.AnalysisService

	// Settings manages application settings.
	Settings driving.SettingsService
}

// NewPorts creates a new Ports aggregate with the required services.
func NewPorts(answer driving.AnswerService, vectors driving.VectorService) *Ports {
	return &Ports{
		Answer:  answer,
		Vectors: vectors,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	if p.Vectors == nil {
		return ErrMissingVectorService
	}
	return nil
}
