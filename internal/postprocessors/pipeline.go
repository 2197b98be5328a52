// Package postprocessors prepares document text for summarisation.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Pipeline chains multiple SegmentProcessors and runs them in order.
// It implements the SegmentPipeline interface.
type Pipeline struct {
	processors []driven.SegmentProcessor
}

var _ driven.SegmentPipeline = (*Pipeline)(nil)

// NewPipeline creates a new processing pipeline with the given processors.
// Processors are executed in the order provided.
func NewPipeline(processors ...driven.SegmentProcessor) *Pipeline {
	return &Pipeline{
		processors: processors,
	}
}

// Process runs the text through all processors in order.
// The first processor receives nil segments and should create them.
func (p *Pipeline) Process(ctx context.Context, text string) ([]string, error) {
	var segments []string

	for _, processor := range p.processors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		segments, err = processor.Process(ctx, text, segments)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
	}

	return segments, nil
}

// Add appends a processor to the pipeline.
func (p *Pipeline) Add(processor driven.SegmentProcessor) {
	p.processors = append(p.processors, processor)
}

// Len returns the number of processors in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.processors)
}
